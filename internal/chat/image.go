package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/content-studio/internal/jsonutil"
	"github.com/fpang/content-studio/internal/media"
)

// AspectRatio is an output frame shape accepted by the image model.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "3:4"
	AspectLandscape AspectRatio = "4:3"
	AspectWide      AspectRatio = "16:9"
	AspectTall      AspectRatio = "9:16"
	AspectUltraWide AspectRatio = "21:9"
	AspectPhoto     AspectRatio = "3:2"
	AspectPhotoTall AspectRatio = "2:3"
)

var AspectRatios = []AspectRatio{
	AspectSquare, AspectPortrait, AspectLandscape, AspectWide,
	AspectTall, AspectUltraWide, AspectPhoto, AspectPhotoTall,
}

// ImageSize is the output resolution class.
type ImageSize string

const (
	Size1K ImageSize = "1K"
	Size2K ImageSize = "2K"
	Size4K ImageSize = "4K"
)

var ImageSizes = []ImageSize{Size1K, Size2K, Size4K}

func ParseAspectRatio(s string) (AspectRatio, error) {
	for _, a := range AspectRatios {
		if string(a) == strings.TrimSpace(s) {
			return a, nil
		}
	}
	return "", invalidRequest("unknown aspect ratio %q", s)
}

func ParseImageSize(s string) (ImageSize, error) {
	return parseEnum("image size", s, ImageSizes)
}

// Image is one encoded still returned by the model.
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURL returns the image as a data: URL.
func (i *Image) DataURL() string {
	return i.Fragment().DataURL()
}

// Fragment wraps the image so it can be sent back to the model.
func (i *Image) Fragment() media.Fragment {
	return media.Fragment{ContentType: i.MIMEType, Data: i.Data}
}

// ImageRequest describes a text-to-image generation.
type ImageRequest struct {
	Prompt         string
	Style          ImageStyle
	NegativePrompt string
	AspectRatio    AspectRatio
	Size           ImageSize
}

// buildImagePrompt appends the style and the things to avoid to the prompt.
func buildImagePrompt(req ImageRequest) string {
	prompt := strings.TrimSpace(req.Prompt)
	if req.Style != "" && req.Style != StyleNone {
		prompt += ", style: " + string(req.Style)
	}
	if neg := strings.TrimSpace(req.NegativePrompt); neg != "" {
		prompt += " . Avoid: " + neg
	}
	return prompt
}

// GenerateImage renders one still from a text prompt.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*Image, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, invalidRequest("image prompt is empty")
	}
	if req.AspectRatio == "" {
		req.AspectRatio = AspectSquare
	}
	if req.Size == "" {
		req.Size = Size1K
	}
	prompt := buildImagePrompt(req)

	log.Info().
		Str("prompt", jsonutil.Preview(prompt, 120)).
		Str("aspect_ratio", string(req.AspectRatio)).
		Str("size", string(req.Size)).
		Msg("Generating image")

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: string(req.AspectRatio),
			ImageSize:   string(req.Size),
		},
	}
	return c.generateImage(ctx, "generate_image", c.models.ImageGen, genai.Text(prompt), cfg)
}

// EditImage applies a natural-language edit to base.
func (c *Client) EditImage(ctx context.Context, base media.Fragment, prompt string) (*Image, error) {
	if len(base.Data) == 0 {
		return nil, invalidRequest("base image is empty")
	}
	if !strings.HasPrefix(base.ContentType, "image/") {
		return nil, invalidRequest("base must be an image, got %q", base.ContentType)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, invalidRequest("edit instruction is empty")
	}

	log.Info().
		Int("image_bytes", len(base.Data)).
		Str("image_mime", base.ContentType).
		Str("instruction", jsonutil.Preview(prompt, 120)).
		Msg("Sending image to Gemini for editing")

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(base.Data, base.ContentType),
		genai.NewPartFromText(prompt),
	}, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{ResponseModalities: []string{"TEXT", "IMAGE"}}
	return c.generateImage(ctx, "edit_image", c.models.ImageEdit, contents, cfg)
}

func (c *Client) generateImage(ctx context.Context, op, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*Image, error) {
	var img *Image
	err := c.generate(ctx, op, model, contents, cfg, func(resp *genai.GenerateContentResponse) error {
		blob := firstInline(resp, "image/")
		if blob == nil {
			return ErrEmptyResponse
		}
		img = &Image{Data: blob.Data, MIMEType: blob.MIMEType}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("image_bytes", len(img.Data)).
		Str("mime", img.MIMEType).
		Msg("Image received")
	return img, nil
}
