// Package chat is the gateway to the Gemini model family: captions, video
// analysis, image generation and editing, Veo video generation, speech,
// transcription, writing tools and persona chat.
//
// Every operation goes through a narrow interface over *genai.Client so
// tests can swap in fakes. Transport and API failures surface as
// *RequestError, unusable replies as *DecodeError; neither is ever replaced
// by a default value.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/content-studio/internal/auth"
	"github.com/fpang/content-studio/internal/jsonutil"
	"github.com/fpang/content-studio/internal/metrics"
)

// ContentGenerator is the generateContent call.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// VideoGenerator starts a long-running Veo generation.
type VideoGenerator interface {
	GenerateVideos(ctx context.Context, model string, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
}

// OperationPoller refreshes a long-running video operation.
type OperationPoller interface {
	GetVideosOperation(ctx context.Context, operation *genai.GenerateVideosOperation, config *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error)
}

// FileDownloader fetches generated media by URI.
type FileDownloader interface {
	Download(ctx context.Context, uri genai.DownloadURI, config *genai.DownloadFileConfig) ([]byte, error)
}

// Options tune a Client. Zero values take defaults.
type Options struct {
	Models Models
	// PollInterval is the wait between video operation polls.
	PollInterval time.Duration
	// VideoTimeout bounds a whole video generation including polling.
	VideoTimeout time.Duration
	// Safety is one of block_none, block_few, block_some, block_most.
	Safety string
}

const (
	defaultPollInterval = 5 * time.Second
	defaultVideoTimeout = 10 * time.Minute
)

// Client runs model operations for one API key.
type Client struct {
	content ContentGenerator
	videos  VideoGenerator
	ops     OperationPoller
	files   FileDownloader

	models       Models
	pollInterval time.Duration
	videoTimeout time.Duration
	safety       []*genai.SafetySetting
}

// NewClient creates a Gemini API client for apiKey.
func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("create Gemini client: %w", invalidRequest("API key is empty"))
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return newClient(gc.Models, gc.Models, gc.Operations, gc.Files, opts)
}

func newClient(content ContentGenerator, videos VideoGenerator, ops OperationPoller, files FileDownloader, opts Options) (*Client, error) {
	safety, err := safetySettings(opts.Safety)
	if err != nil {
		return nil, err
	}
	c := &Client{
		content:      content,
		videos:       videos,
		ops:          ops,
		files:        files,
		models:       opts.Models.withDefaults(),
		pollInterval: opts.PollInterval,
		videoTimeout: opts.VideoTimeout,
		safety:       safety,
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.videoTimeout <= 0 {
		c.videoTimeout = defaultVideoTimeout
	}
	return c, nil
}

// Models reports the model used for each operation.
func (c *Client) Models() Models { return c.models }

// Validate makes a minimal call to check that the client's key works.
func (c *Client) Validate(ctx context.Context) error {
	return auth.ValidateAPIKey(ctx, c.content, c.models.Tools)
}

// SafetyLevels are the accepted safety filter settings, most permissive
// first. The empty string keeps the model defaults.
var SafetyLevels = []string{"block_none", "block_few", "block_some", "block_most"}

// ValidSafetyLevel reports whether level is empty or one of SafetyLevels.
func ValidSafetyLevel(level string) bool {
	_, err := safetySettings(level)
	return err == nil
}

// safetySettings maps a user-facing filter level onto per-category thresholds.
func safetySettings(level string) ([]*genai.SafetySetting, error) {
	var threshold genai.HarmBlockThreshold
	switch level {
	case "":
		return nil, nil
	case "block_none":
		threshold = genai.HarmBlockThresholdBlockNone
	case "block_few":
		threshold = genai.HarmBlockThresholdBlockOnlyHigh
	case "block_some":
		threshold = genai.HarmBlockThresholdBlockMediumAndAbove
	case "block_most":
		threshold = genai.HarmBlockThresholdBlockLowAndAbove
	default:
		return nil, invalidRequest("unknown safety filter %q", level)
	}
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	out := make([]*genai.SafetySetting, len(categories))
	for i, cat := range categories {
		out[i] = &genai.SafetySetting{Category: cat, Threshold: threshold}
	}
	return out, nil
}

// generate runs one generateContent call, hands the reply to decode, and
// records the outcome. A nil reply or a decode failure becomes a
// *DecodeError; a call failure becomes a *RequestError.
func (c *Client) generate(
	ctx context.Context,
	op string,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
	decode func(*genai.GenerateContentResponse) error,
) error {
	if config == nil {
		config = &genai.GenerateContentConfig{}
	}
	if config.SafetySettings == nil {
		config.SafetySettings = c.safety
	}

	log.Debug().
		Str("operation", op).
		Str("model", model).
		Int("contents", len(contents)).
		Msg("Starting Gemini API call")

	callStart := time.Now()
	resp, err := c.content.GenerateContent(ctx, model, contents, config)
	duration := time.Since(callStart)
	if err != nil {
		metrics.ObserveModelCall(op, metrics.ResultRequestError, duration)
		log.Error().Err(err).Str("operation", op).Dur("duration", duration).Msg("Gemini API call failed")
		return newRequestError(op, err)
	}

	if resp == nil {
		err = ErrEmptyResponse
	} else {
		err = decode(resp)
	}
	if err != nil {
		metrics.ObserveModelCall(op, metrics.ResultDecodeError, duration)
		text := responseText(resp)
		log.Warn().
			Err(err).
			Str("operation", op).
			Str("response_preview", jsonutil.Preview(text, 200)).
			Dur("duration", duration).
			Msg("Unusable Gemini response")
		return &DecodeError{Op: op, Preview: jsonutil.Preview(text, 500), Err: err}
	}

	metrics.ObserveModelCall(op, metrics.ResultSuccess, duration)
	log.Debug().
		Str("operation", op).
		Dur("duration", duration).
		Msg("Gemini API response received")
	return nil
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought || p.Text == "" {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// firstInline returns the first inline blob of the first candidate whose
// MIME type starts with prefix.
func firstInline(resp *genai.GenerateContentResponse, prefix string) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.InlineData == nil || len(p.InlineData.Data) == 0 {
			continue
		}
		if strings.HasPrefix(p.InlineData.MIMEType, prefix) {
			return p.InlineData
		}
	}
	return nil
}

// textReply is a decode func that requires a non-blank text answer.
func textReply(dst *string) func(*genai.GenerateContentResponse) error {
	return func(resp *genai.GenerateContentResponse) error {
		text := strings.TrimSpace(responseText(resp))
		if text == "" {
			return ErrEmptyResponse
		}
		*dst = text
		return nil
	}
}

func temperature(v float64) *float32 {
	return genai.Ptr(float32(v))
}
