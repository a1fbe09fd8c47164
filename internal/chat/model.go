package chat

// Gemini model IDs
//
// | Model                        | API Model ID                   | Used for                  |
// |------------------------------|--------------------------------|---------------------------|
// | Gemini 3 Flash (Preview)     | gemini-3-flash-preview         | captions, tools, STT      |
// | Gemini 3 Pro (Preview)       | gemini-3-pro-preview           | director, persona chat    |
// | Gemini 3 Pro Image (Preview) | gemini-3-pro-image-preview     | image generation          |
// | Gemini 2.5 Flash Image       | gemini-2.5-flash-image         | image editing             |
// | Veo 3.1 Fast (Preview)       | veo-3.1-fast-generate-preview  | video generation          |
// | Gemini 2.5 Flash TTS         | gemini-2.5-flash-preview-tts   | speech                    |
const (
	ModelGemini3FlashPreview = "gemini-3-flash-preview"
	ModelGemini3ProPreview   = "gemini-3-pro-preview"
	ModelGemini3ProImage     = "gemini-3-pro-image-preview"
	ModelGemini25FlashImage  = "gemini-2.5-flash-image"
	ModelVeo31FastPreview    = "veo-3.1-fast-generate-preview"
	ModelGemini25FlashTTS    = "gemini-2.5-flash-preview-tts"
)

// Models names the model used for each operation.
type Models struct {
	Caption    string
	Director   string
	ImageGen   string
	ImageEdit  string
	Video      string
	Speech     string
	Transcribe string
	Tools      string
	Chat       string
}

// DefaultModels returns the stock model for every operation.
func DefaultModels() Models {
	return Models{
		Caption:    ModelGemini3FlashPreview,
		Director:   ModelGemini3ProPreview,
		ImageGen:   ModelGemini3ProImage,
		ImageEdit:  ModelGemini25FlashImage,
		Video:      ModelVeo31FastPreview,
		Speech:     ModelGemini25FlashTTS,
		Transcribe: ModelGemini3FlashPreview,
		Tools:      ModelGemini3FlashPreview,
		Chat:       ModelGemini3ProPreview,
	}
}

// withDefaults fills every empty entry from DefaultModels.
func (m Models) withDefaults() Models {
	d := DefaultModels()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&m.Caption, d.Caption)
	fill(&m.Director, d.Director)
	fill(&m.ImageGen, d.ImageGen)
	fill(&m.ImageEdit, d.ImageEdit)
	fill(&m.Video, d.Video)
	fill(&m.Speech, d.Speech)
	fill(&m.Transcribe, d.Transcribe)
	fill(&m.Tools, d.Tools)
	fill(&m.Chat, d.Chat)
	return m
}
