package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/content-studio/internal/assets"
	"github.com/fpang/content-studio/internal/media"
)

// chatThinkingBudget is the token budget for the chat model's reasoning.
const chatThinkingBudget = 2048

// Persona is the character the chat model plays.
type Persona string

const (
	PersonaAssistant    Persona = "Smart Assistant"
	PersonaCoder        Persona = "Professional Programmer"
	PersonaStoryteller  Persona = "Storyteller"
	PersonaTeacher      Persona = "Caring Teacher"
	PersonaPsychologist Persona = "Psychologist"
	PersonaMarketer     Persona = "Marketing Consultant"
	PersonaPoet         Persona = "Classical Poet"
	PersonaComedian     Persona = "Comedian"
	PersonaFilmDirector Persona = "Film Director"
	PersonaFitnessCoach Persona = "Fitness Coach"
	PersonaCritic       Persona = "Film and Art Critic"
	PersonaCopywriter   Persona = "Advertising Copywriter"
)

var Personas = []Persona{
	PersonaAssistant, PersonaCoder, PersonaStoryteller, PersonaTeacher, PersonaPsychologist, PersonaMarketer,
	PersonaPoet, PersonaComedian, PersonaFilmDirector, PersonaFitnessCoach, PersonaCritic, PersonaCopywriter,
}

func ParsePersona(s string) (Persona, error) {
	return parseEnum("persona", s, Personas)
}

// Message is one turn of a persona conversation.
type Message struct {
	Role      string    `json:"role"` // "user" or "model"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Pinned    bool      `json:"pinned,omitempty"`
}

// ConversationRequest is the next user turn with its context.
type ConversationRequest struct {
	Persona     Persona
	Language    Language
	History     []Message
	Message     string
	Attachments []media.Fragment
	// Creativity is the sampling temperature, 0 to 2.
	Creativity float64
}

// Converse sends the next message of a persona chat and returns the reply.
// History is replayed as-is; the caller appends both turns on success.
func (c *Client) Converse(ctx context.Context, req ConversationRequest) (string, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" && len(req.Attachments) == 0 {
		return "", invalidRequest("message is empty")
	}
	if req.Creativity < 0 || req.Creativity > 2 {
		return "", invalidRequest("creativity must be between 0 and 2, got %g", req.Creativity)
	}
	if req.Persona == "" {
		req.Persona = PersonaAssistant
	}
	if req.Language == "" {
		req.Language = LanguagePersian
	}

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for i, m := range req.History {
		var role genai.Role
		switch m.Role {
		case genai.RoleUser, genai.RoleModel:
			role = genai.Role(m.Role)
		default:
			return "", invalidRequest("history message %d has role %q", i, m.Role)
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}

	parts := make([]*genai.Part, 0, len(req.Attachments)+1)
	for i, f := range req.Attachments {
		if len(f.Data) == 0 {
			return "", invalidRequest("attachment %d is empty", i)
		}
		parts = append(parts, genai.NewPartFromBytes(f.Data, f.ContentType))
	}
	parts = append(parts, genai.NewPartFromText(msg))
	contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

	system := assets.RenderPersonaSystemPrompt(string(req.Persona), string(req.Language))
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       temperature(req.Creativity),
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(int32(chatThinkingBudget))},
	}

	log.Info().
		Str("persona", string(req.Persona)).
		Int("history", len(req.History)).
		Int("attachments", len(req.Attachments)).
		Msg("Sending chat message")

	var reply string
	if err := c.generate(ctx, "converse", c.models.Chat, contents, cfg, textReply(&reply)); err != nil {
		return "", err
	}
	return reply, nil
}
