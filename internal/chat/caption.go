package chat

// caption.go generates social media captions from an uploaded image, a set
// of frames sampled from a video, or an audio clip.
//
// Multi-turn feedback: the user can refine a caption ("shorter", "more
// formal"). The model receives the original media, its previous answer and
// the feedback as one conversation.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/content-studio/internal/assets"
	"github.com/fpang/content-studio/internal/jsonutil"
	"github.com/fpang/content-studio/internal/media"
)

// CaptionStyle is the set of user choices that shape a caption.
type CaptionStyle struct {
	Tone         Tone         `json:"tone"`
	Platform     Platform     `json:"platform"`
	Length       TextLength   `json:"length"`
	Emoji        EmojiDensity `json:"emoji"`
	CallToAction CallToAction `json:"callToAction"`
	Language     Language     `json:"language"`
	// Instruction is optional free-form context, e.g. "grand opening".
	Instruction string `json:"instruction,omitempty"`
	ExtractText bool   `json:"extractText"`
	// Creativity is the sampling temperature, 0 to 2.
	Creativity float64 `json:"creativity"`
}

// DefaultCaptionStyle returns the style used when the caller picks nothing.
func DefaultCaptionStyle() CaptionStyle {
	return CaptionStyle{
		Tone:         ToneInstagram,
		Platform:     PlatformInstagram,
		Length:       LengthMedium,
		Emoji:        EmojiStandard,
		CallToAction: CTANone,
		Language:     LanguagePersian,
		Creativity:   1,
	}
}

// Validate rejects empty or out-of-range choices.
func (s CaptionStyle) Validate() error {
	switch {
	case s.Tone == "", s.Platform == "", s.Length == "", s.Emoji == "", s.CallToAction == "", s.Language == "":
		return invalidRequest("caption style is incomplete")
	case s.Creativity < 0 || s.Creativity > 2:
		return invalidRequest("creativity must be between 0 and 2, got %g", s.Creativity)
	}
	return nil
}

// CaptionRequest is the media to caption and how.
type CaptionRequest struct {
	Fragments []media.Fragment
	Style     CaptionStyle
}

// Caption is a decoded caption. Primary is written in the requested
// language, Secondary in English.
type Caption struct {
	Primary        string   `json:"caption_fa"`
	Secondary      string   `json:"caption_en"`
	Hashtags       []string `json:"hashtags"`
	ExtractedText  string   `json:"extracted_text,omitempty"`
	Sentiment      string   `json:"sentiment,omitempty"`
	SuggestedMusic string   `json:"suggested_music,omitempty"`
}

// captionWire mirrors the reply; pointers tell absent fields from empty ones.
type captionWire struct {
	Primary        *string   `json:"caption_fa"`
	Secondary      *string   `json:"caption_en"`
	Hashtags       *[]string `json:"hashtags"`
	ExtractedText  *string   `json:"extracted_text"`
	Sentiment      *string   `json:"sentiment"`
	SuggestedMusic *string   `json:"suggested_music"`
}

// DecodeCaption parses a caption reply. caption_fa, caption_en and hashtags
// are required; the rest are optional and a JSON null reads as absent.
func DecodeCaption(text string) (*Caption, error) {
	w, err := jsonutil.ParseObject[captionWire](text)
	if err != nil {
		return nil, err
	}
	switch {
	case w.Primary == nil || strings.TrimSpace(*w.Primary) == "":
		return nil, errors.New("caption_fa is missing")
	case w.Secondary == nil:
		return nil, errors.New("caption_en is missing")
	case w.Hashtags == nil:
		return nil, errors.New("hashtags is missing")
	}

	c := &Caption{
		Primary:   strings.TrimSpace(*w.Primary),
		Secondary: strings.TrimSpace(*w.Secondary),
		Hashtags:  make([]string, 0, len(*w.Hashtags)),
	}
	for _, tag := range *w.Hashtags {
		if tag = strings.TrimSpace(tag); tag != "" {
			c.Hashtags = append(c.Hashtags, tag)
		}
	}
	if w.ExtractedText != nil {
		c.ExtractedText = strings.TrimSpace(*w.ExtractedText)
	}
	if w.Sentiment != nil {
		c.Sentiment = *w.Sentiment
	}
	if w.SuggestedMusic != nil {
		c.SuggestedMusic = *w.SuggestedMusic
	}
	return c, nil
}

// Caption writes a caption for the request's media.
func (c *Client) Caption(ctx context.Context, req CaptionRequest) (*Caption, error) {
	contents, cfg, err := captionTurn(req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("fragments", len(req.Fragments)).
		Str("tone", string(req.Style.Tone)).
		Str("platform", string(req.Style.Platform)).
		Str("language", string(req.Style.Language)).
		Msg("Generating caption")

	var result *Caption
	err = c.generate(ctx, "caption", c.models.Caption, contents, cfg, func(resp *genai.GenerateContentResponse) error {
		var derr error
		result, derr = DecodeCaption(responseText(resp))
		return derr
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("caption_length", len(result.Primary)).
		Int("hashtag_count", len(result.Hashtags)).
		Msg("Caption generated")
	return result, nil
}

// RefineCaption asks the model to revise previous according to feedback,
// keeping the original media in context.
func (c *Client) RefineCaption(ctx context.Context, req CaptionRequest, previous *Caption, feedback string) (*Caption, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, invalidRequest("feedback is empty")
	}
	if previous == nil {
		return nil, invalidRequest("no previous caption to refine")
	}
	contents, cfg, err := captionTurn(req)
	if err != nil {
		return nil, err
	}
	prevJSON, err := json.Marshal(previous)
	if err != nil {
		return nil, fmt.Errorf("encode previous caption: %w", err)
	}
	contents = append(contents,
		genai.NewContentFromText(string(prevJSON), genai.RoleModel),
		genai.NewContentFromText(assets.RenderCaptionRefinePrompt(feedback), genai.RoleUser),
	)

	log.Info().
		Str("feedback", jsonutil.Preview(feedback, 100)).
		Msg("Refining caption")

	var result *Caption
	err = c.generate(ctx, "caption_refine", c.models.Caption, contents, cfg, func(resp *genai.GenerateContentResponse) error {
		var derr error
		result, derr = DecodeCaption(responseText(resp))
		return derr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// captionTurn validates req and builds the first user turn: media parts
// followed by the rendered prompt.
func captionTurn(req CaptionRequest) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	if len(req.Fragments) == 0 {
		return nil, nil, invalidRequest("no media to caption")
	}
	if err := req.Style.Validate(); err != nil {
		return nil, nil, err
	}

	parts := make([]*genai.Part, 0, len(req.Fragments)+1)
	for i, f := range req.Fragments {
		if len(f.Data) == 0 {
			return nil, nil, invalidRequest("fragment %d is empty", i)
		}
		// Video reaches the model only as sampled stills.
		if strings.HasPrefix(f.ContentType, "video/") {
			return nil, nil, invalidRequest("fragment %d is raw video (%s); sample frames first", i, f.ContentType)
		}
		parts = append(parts, genai.NewPartFromBytes(f.Data, f.ContentType))
	}

	s := req.Style
	parts = append(parts, genai.NewPartFromText(assets.RenderCaptionPrompt(assets.CaptionData{
		Language:     string(s.Language),
		Tone:         string(s.Tone),
		Platform:     string(s.Platform),
		Length:       string(s.Length),
		Emoji:        string(s.Emoji),
		CallToAction: string(s.CallToAction),
		ExtractText:  s.ExtractText,
		Instruction:  strings.TrimSpace(s.Instruction),
	})))

	cfg := &genai.GenerateContentConfig{Temperature: temperature(s.Creativity)}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg, nil
}
