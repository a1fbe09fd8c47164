// Package assets provides the prompt templates sent to the model.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time.
package assets

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

// --- Static prompts (no dynamic data) ---

// TranscribePrompt asks for a verbatim transcript, or a description when
// the audio is music.
//
//go:embed prompts/transcribe.txt
var TranscribePrompt string

// --- Dynamic prompt templates ---

//go:embed prompts/caption.txt
var captionTemplate string

//go:embed prompts/caption-refine.txt
var captionRefineTemplate string

//go:embed prompts/director.txt
var directorTemplate string

//go:embed prompts/tool.txt
var toolTemplate string

//go:embed prompts/enhance.txt
var enhanceTemplate string

//go:embed prompts/persona-system.txt
var personaSystemTemplate string

// Pre-parsed templates. template.Must panics on malformed templates,
// catching errors at program startup rather than at call time.
var (
	captionTmpl       = template.Must(template.New("caption").Parse(captionTemplate))
	captionRefineTmpl = template.Must(template.New("caption-refine").Parse(captionRefineTemplate))
	directorTmpl      = template.Must(template.New("director").Parse(directorTemplate))
	toolTmpl          = template.Must(template.New("tool").Parse(toolTemplate))
	enhanceTmpl       = template.Must(template.New("enhance").Parse(enhanceTemplate))
	personaSystemTmpl = template.Must(template.New("persona-system").Parse(personaSystemTemplate))
)

// CaptionData fills the caption prompt.
type CaptionData struct {
	Language     string
	Tone         string
	Platform     string
	Length       string
	Emoji        string
	CallToAction string
	ExtractText  bool
	// Instruction is free-form context from the user; omitted when empty.
	Instruction string
}

// RenderCaptionPrompt renders the caption request.
func RenderCaptionPrompt(d CaptionData) string {
	return renderTemplate(captionTmpl, d)
}

// RenderCaptionRefinePrompt renders a follow-up turn asking the model to
// revise its previous caption.
func RenderCaptionRefinePrompt(feedback string) string {
	return renderTemplate(captionRefineTmpl, struct{ Feedback string }{feedback})
}

// RenderDirectorPrompt renders the video analysis request for goal.
func RenderDirectorPrompt(goal string) string {
	return renderTemplate(directorTmpl, struct{ Goal string }{goal})
}

// RenderToolPrompt renders a single-shot writing tool request. task is the
// tool-specific instruction sentence.
func RenderToolPrompt(language, task, input string) string {
	return renderTemplate(toolTmpl, struct{ Language, Task, Input string }{language, task, input})
}

// RenderEnhancePrompt renders the prompt-improvement request.
func RenderEnhancePrompt(prompt string) string {
	return renderTemplate(enhanceTmpl, struct{ Prompt string }{prompt})
}

// RenderPersonaSystemPrompt renders the system instruction for persona chat.
func RenderPersonaSystemPrompt(persona, language string) string {
	return strings.TrimSpace(renderTemplate(personaSystemTmpl, struct{ Persona, Language string }{persona, language}))
}

// renderTemplate executes a pre-parsed template with data.
func renderTemplate(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	// Template execution errors are not expected with our simple templates,
	// but we handle them gracefully by returning whatever was rendered.
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}
