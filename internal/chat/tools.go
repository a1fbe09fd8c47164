package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/content-studio/internal/assets"
)

// ToolType is a single-shot writing tool.
type ToolType string

const (
	ToolBio           ToolType = "bio"
	ToolEmail         ToolType = "email"
	ToolIdea          ToolType = "idea"
	ToolScript        ToolType = "script"
	ToolTranslate     ToolType = "translate"
	ToolGrammar       ToolType = "grammar"
	ToolSummarize     ToolType = "summarize"
	ToolHashtag       ToolType = "hashtag"
	ToolReply         ToolType = "reply"
	ToolLyrics        ToolType = "lyrics"
	ToolNameGenerator ToolType = "name_generator"
	ToolSEOKeywords   ToolType = "seo_keywords"
	ToolColorPalette  ToolType = "color_palette"
)

var ToolTypes = []ToolType{
	ToolBio, ToolEmail, ToolIdea, ToolScript, ToolTranslate, ToolGrammar, ToolSummarize,
	ToolHashtag, ToolReply, ToolLyrics, ToolNameGenerator, ToolSEOKeywords, ToolColorPalette,
}

func ParseToolType(s string) (ToolType, error) {
	return parseEnum("tool", s, ToolTypes)
}

// toolTask returns the instruction sentence for tool.
func toolTask(tool ToolType, lang Language) (string, bool) {
	switch tool {
	case ToolBio:
		return "Write an engaging Bio.", true
	case ToolEmail:
		return "Write a professional email.", true
	case ToolIdea:
		return "Generate 10 viral content ideas.", true
	case ToolScript:
		return "Write a video script (Hook, Body, CTA).", true
	case ToolTranslate:
		return "Translate accurately to " + string(lang) + ".", true
	case ToolGrammar:
		return "Correct all grammar/spelling errors. Return ONLY corrected text.", true
	case ToolSummarize:
		return "Summarize into bullet points.", true
	case ToolHashtag:
		return "Generate 30 SEO-optimized hashtags.", true
	case ToolReply:
		return "Write a witty/polite reply.", true
	case ToolLyrics:
		return "Write song lyrics.", true
	case ToolNameGenerator:
		return "Generate creative brand names.", true
	case ToolSEOKeywords:
		return "Extract high-ranking SEO keywords (CSV format).", true
	case ToolColorPalette:
		return "Suggest a 5-color palette (Hex codes) for this theme.", true
	}
	return "", false
}

// RunTool runs a writing tool over input and returns the model's text.
func (c *Client) RunTool(ctx context.Context, tool ToolType, input string, lang Language) (string, error) {
	task, ok := toolTask(tool, lang)
	if !ok {
		return "", invalidRequest("unknown tool %q", tool)
	}
	if strings.TrimSpace(input) == "" {
		return "", invalidRequest("tool input is empty")
	}
	if lang == "" {
		lang = LanguagePersian
	}

	log.Info().Str("tool", string(tool)).Str("language", string(lang)).Msg("Running tool")

	prompt := assets.RenderToolPrompt(string(lang), task, input)
	var text string
	if err := c.generate(ctx, "tool_"+string(tool), c.models.Tools, genai.Text(prompt), nil, textReply(&text)); err != nil {
		return "", err
	}
	return text, nil
}

// EnhancePrompt rewrites a generation prompt to be more detailed.
func (c *Client) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", invalidRequest("prompt is empty")
	}
	var text string
	err := c.generate(ctx, "enhance_prompt", c.models.Tools, genai.Text(assets.RenderEnhancePrompt(prompt)), nil, textReply(&text))
	if err != nil {
		return "", err
	}
	return strings.Trim(text, "\""), nil
}
