package assets

import (
	"strings"
	"testing"
)

func TestRenderCaptionPrompt(t *testing.T) {
	base := CaptionData{
		Language:     "Persian",
		Tone:         "Funny",
		Platform:     "Instagram",
		Length:       "Short (1-2 lines)",
		Emoji:        "Standard",
		CallToAction: "Link in bio",
	}

	tests := []struct {
		name    string
		data    func(CaptionData) CaptionData
		want    []string
		notWant []string
	}{
		{
			name: "no OCR no context",
			data: func(d CaptionData) CaptionData { return d },
			want: []string{
				"Target Language: Persian (Main), English (Secondary).",
				"Tone: Funny.",
				"Platform: Instagram.",
				"CTA: Link in bio.",
				"Set 'extracted_text' to null.",
				`"caption_fa"`,
				`"suggested_music"`,
			},
			notWant: []string{"Context:", "Extract visible text"},
		},
		{
			name: "OCR and context",
			data: func(d CaptionData) CaptionData {
				d.ExtractText = true
				d.Instruction = "launch of our new cafe"
				return d
			},
			want:    []string{"Extract visible text to 'extracted_text'.", "Context: launch of our new cafe"},
			notWant: []string{"Set 'extracted_text' to null."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderCaptionPrompt(tt.data(base))
			for _, s := range tt.want {
				if !strings.Contains(got, s) {
					t.Errorf("prompt missing %q\n%s", s, got)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(got, s) {
					t.Errorf("prompt unexpectedly contains %q", s)
				}
			}
		})
	}
}

func TestRenderDirectorPrompt(t *testing.T) {
	got := RenderDirectorPrompt("Create a viral, cinematic video")
	for _, s := range []string{
		`Goal: "Create a viral, cinematic video".`,
		`"virality_score"`,
		`"storyboard"`,
		`"camera_angle"`,
	} {
		if !strings.Contains(got, s) {
			t.Errorf("director prompt missing %q", s)
		}
	}
}

func TestRenderToolPrompt(t *testing.T) {
	got := RenderToolPrompt("English", "Write an engaging Bio.", "barista in Shiraz")
	want := "Role: Expert AI Tool. Language: English. Write an engaging Bio.\n\nUser Input: barista in Shiraz\n"
	if got != want {
		t.Errorf("RenderToolPrompt() = %q, want %q", got, want)
	}
}

func TestRenderPersonaSystemPrompt(t *testing.T) {
	got := RenderPersonaSystemPrompt("Film Director", "Persian")
	if got != "You are a Film Director. Language: Persian." {
		t.Errorf("RenderPersonaSystemPrompt() = %q", got)
	}
}

func TestStaticPrompts(t *testing.T) {
	if !strings.HasPrefix(TranscribePrompt, "Transcribe this audio exactly as spoken.") {
		t.Errorf("TranscribePrompt = %q", TranscribePrompt)
	}
	if got := RenderEnhancePrompt("a cat"); !strings.HasSuffix(strings.TrimSpace(got), `Prompt: "a cat"`) {
		t.Errorf("RenderEnhancePrompt() = %q", got)
	}
}
