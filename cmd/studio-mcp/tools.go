package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/filter"
	"github.com/fpang/content-studio/internal/media"
)

// model is the slice of the model client the tools call.
type model interface {
	Caption(ctx context.Context, req chat.CaptionRequest) (*chat.Caption, error)
	AnalyzeVideo(ctx context.Context, frames []media.Fragment, goal string) (*chat.VideoAnalysis, error)
	GenerateImage(ctx context.Context, req chat.ImageRequest) (*chat.Image, error)
	Transcribe(ctx context.Context, audio media.Fragment) (string, error)
}

// tools implements the MCP tool handlers over local files.
type tools struct {
	ingestor *media.Ingestor
	models   func(ctx context.Context) (model, error)
}

func (t *tools) register(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "caption_media",
		Description: "Write a social media caption in the target language with an English translation and hashtags for local photos, a video or audio.",
	}, t.captionMedia)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "analyze_video",
		Description: "Sample frames from a local video and return a director's edit plan: cuts, storyboard, music mood, narration script and thumbnail prompt.",
	}, t.analyzeVideo)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "generate_image",
		Description: "Generate an image from a text prompt and save it to a local file.",
	}, t.generateImage)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "transcribe_audio",
		Description: "Transcribe a local audio file.",
	}, t.transcribeAudio)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "apply_filter",
		Description: "Apply a color filter preset and optional adjustments to a local image and save the result.",
	}, t.applyFilter)
}

func (t *tools) ingest(ctx context.Context, path string, want media.Kind) (*media.Asset, error) {
	asset, err := t.ingestor.IngestFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if want != "" && asset.Kind != want {
		return nil, &media.UnsupportedKindError{ContentType: asset.ContentType}
	}
	return asset, nil
}

type captionInput struct {
	Paths       []string `json:"paths" jsonschema:"local paths of the photos, video or audio to caption"`
	Tone        string   `json:"tone,omitempty" jsonschema:"caption tone, for example funny or professional"`
	Platform    string   `json:"platform,omitempty" jsonschema:"target platform, for example instagram or linkedin"`
	Language    string   `json:"language,omitempty" jsonschema:"main caption language, for example English or Persian"`
	Instruction string   `json:"instruction,omitempty" jsonschema:"extra context for the caption"`
}

func (in captionInput) style() (chat.CaptionStyle, error) {
	style := chat.DefaultCaptionStyle()
	style.Instruction = in.Instruction
	var err error
	if in.Tone != "" {
		if style.Tone, err = chat.ParseTone(in.Tone); err != nil {
			return style, err
		}
	}
	if in.Platform != "" {
		if style.Platform, err = chat.ParsePlatform(in.Platform); err != nil {
			return style, err
		}
	}
	if in.Language != "" {
		if style.Language, err = chat.ParseLanguage(in.Language); err != nil {
			return style, err
		}
	}
	return style, style.Validate()
}

func (t *tools) captionMedia(ctx context.Context, _ *mcp.CallToolRequest, in captionInput) (*mcp.CallToolResult, chat.Caption, error) {
	if len(in.Paths) == 0 {
		return nil, chat.Caption{}, fmt.Errorf("paths is empty")
	}
	style, err := in.style()
	if err != nil {
		return nil, chat.Caption{}, err
	}
	req := chat.CaptionRequest{Style: style}
	for _, p := range in.Paths {
		asset, err := t.ingest(ctx, p, "")
		if err != nil {
			return nil, chat.Caption{}, err
		}
		req.Fragments = append(req.Fragments, asset.Fragments...)
	}
	m, err := t.models(ctx)
	if err != nil {
		return nil, chat.Caption{}, err
	}
	caption, err := m.Caption(ctx, req)
	if err != nil {
		return nil, chat.Caption{}, err
	}
	return nil, *caption, nil
}

type analyzeInput struct {
	Path string `json:"path" jsonschema:"local path of the video"`
	Goal string `json:"goal,omitempty" jsonschema:"what the edit should achieve"`
}

func (t *tools) analyzeVideo(ctx context.Context, _ *mcp.CallToolRequest, in analyzeInput) (*mcp.CallToolResult, chat.VideoAnalysis, error) {
	asset, err := t.ingest(ctx, in.Path, media.KindVideo)
	if err != nil {
		return nil, chat.VideoAnalysis{}, err
	}
	m, err := t.models(ctx)
	if err != nil {
		return nil, chat.VideoAnalysis{}, err
	}
	goal := in.Goal
	if strings.TrimSpace(goal) == "" {
		goal = chat.DefaultDirectorGoal
	}
	analysis, err := m.AnalyzeVideo(ctx, asset.Fragments, goal)
	if err != nil {
		return nil, chat.VideoAnalysis{}, err
	}
	return nil, *analysis, nil
}

type imageInput struct {
	Prompt      string `json:"prompt" jsonschema:"what to draw"`
	Style       string `json:"style,omitempty" jsonschema:"visual style, for example cinematic or watercolor"`
	AspectRatio string `json:"aspect_ratio,omitempty" jsonschema:"aspect ratio such as 1:1 or 16:9"`
	OutputPath  string `json:"output_path,omitempty" jsonschema:"where to save the image; defaults to a file in the working directory"`
}

type savedFile struct {
	Path     string `json:"path"`
	MIMEType string `json:"mimeType"`
	Bytes    int    `json:"bytes"`
}

func (t *tools) generateImage(ctx context.Context, _ *mcp.CallToolRequest, in imageInput) (*mcp.CallToolResult, savedFile, error) {
	req := chat.ImageRequest{Prompt: in.Prompt, AspectRatio: chat.AspectSquare, Size: chat.Size1K}
	var err error
	if in.Style != "" {
		if req.Style, err = chat.ParseImageStyle(in.Style); err != nil {
			return nil, savedFile{}, err
		}
	}
	if in.AspectRatio != "" {
		if req.AspectRatio, err = chat.ParseAspectRatio(in.AspectRatio); err != nil {
			return nil, savedFile{}, err
		}
	}
	m, err := t.models(ctx)
	if err != nil {
		return nil, savedFile{}, err
	}
	img, err := m.GenerateImage(ctx, req)
	if err != nil {
		return nil, savedFile{}, err
	}
	out, err := save(in.OutputPath, "generated", img.MIMEType, img.Data)
	if err != nil {
		return nil, savedFile{}, err
	}
	result := &mcp.CallToolResult{Content: []mcp.Content{
		&mcp.TextContent{Text: "Image saved to " + out.Path},
		&mcp.ImageContent{Data: img.Data, MIMEType: img.MIMEType},
	}}
	return result, out, nil
}

type transcribeInput struct {
	Path string `json:"path" jsonschema:"local path of the audio file"`
}

type transcript struct {
	Text string `json:"text"`
}

func (t *tools) transcribeAudio(ctx context.Context, _ *mcp.CallToolRequest, in transcribeInput) (*mcp.CallToolResult, transcript, error) {
	asset, err := t.ingest(ctx, in.Path, media.KindAudio)
	if err != nil {
		return nil, transcript{}, err
	}
	m, err := t.models(ctx)
	if err != nil {
		return nil, transcript{}, err
	}
	text, err := m.Transcribe(ctx, asset.Fragments[0])
	if err != nil {
		return nil, transcript{}, err
	}
	return nil, transcript{Text: text}, nil
}

type filterInput struct {
	Path       string         `json:"path" jsonschema:"local path of the image"`
	Preset     string         `json:"preset,omitempty" jsonschema:"starting preset: none, noir, retro, vivid, cool or dream"`
	Adjust     *filter.Config `json:"adjust,omitempty" jsonschema:"full filter settings; replaces the preset when given"`
	OutputPath string         `json:"output_path,omitempty" jsonschema:"where to save the result; .jpg selects JPEG, anything else PNG"`
}

func (t *tools) applyFilter(ctx context.Context, _ *mcp.CallToolRequest, in filterInput) (*mcp.CallToolResult, savedFile, error) {
	cfg := filter.Identity()
	if in.Preset != "" {
		preset, ok := filter.Presets[strings.ToLower(in.Preset)]
		if !ok {
			return nil, savedFile{}, fmt.Errorf("unknown preset %q", in.Preset)
		}
		cfg = preset
	}
	if in.Adjust != nil {
		cfg = *in.Adjust
	}
	if err := cfg.Validate(); err != nil {
		return nil, savedFile{}, err
	}

	asset, err := t.ingest(ctx, in.Path, media.KindImage)
	if err != nil {
		return nil, savedFile{}, err
	}
	format := filter.ParseFormat(filepath.Ext(in.OutputPath))
	data, err := filter.RenderBytes(asset.Raw, cfg, format)
	if err != nil {
		return nil, savedFile{}, err
	}
	stem := strings.TrimSuffix(in.Path, filepath.Ext(in.Path)) + "_filtered"
	out, err := save(in.OutputPath, stem, format.ContentType(), data)
	if err != nil {
		return nil, savedFile{}, err
	}
	return nil, out, nil
}

// save writes data to path, or next to stem with an extension for the
// content type when path is empty.
func save(path, stem, contentType string, data []byte) (savedFile, error) {
	if path == "" {
		path = stem + media.ExtensionFor(contentType)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return savedFile{}, fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("bytes", len(data)).Msg("Tool output written")
	return savedFile{Path: path, MIMEType: contentType, Bytes: len(data)}, nil
}
