package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/content-studio/internal/assets"
	"github.com/fpang/content-studio/internal/media"
)

// Transcribe returns the spoken words of an audio fragment, or a
// description of it when the clip is music.
func (c *Client) Transcribe(ctx context.Context, audio media.Fragment) (string, error) {
	if len(audio.Data) == 0 {
		return "", invalidRequest("audio is empty")
	}
	if !strings.HasPrefix(audio.ContentType, "audio/") {
		return "", invalidRequest("expected audio, got %q", audio.ContentType)
	}

	log.Info().
		Int("audio_bytes", len(audio.Data)).
		Str("mime", audio.ContentType).
		Msg("Transcribing audio")

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(audio.Data, audio.ContentType),
		genai.NewPartFromText(strings.TrimSpace(assets.TranscribePrompt)),
	}, genai.RoleUser)}

	var text string
	if err := c.generate(ctx, "transcribe", c.models.Transcribe, contents, nil, textReply(&text)); err != nil {
		return "", err
	}
	return text, nil
}
