package chat

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/fpang/content-studio/internal/media"
)

func TestBuildImagePrompt(t *testing.T) {
	tests := []struct {
		name string
		req  ImageRequest
		want string
	}{
		{"plain", ImageRequest{Prompt: "a fox"}, "a fox"},
		{"style none", ImageRequest{Prompt: "a fox", Style: StyleNone}, "a fox"},
		{"style", ImageRequest{Prompt: "a fox", Style: StyleWatercolor}, "a fox, style: Watercolor"},
		{"negative", ImageRequest{Prompt: "a fox", NegativePrompt: "text"}, "a fox . Avoid: text"},
		{"both", ImageRequest{Prompt: " a fox ", Style: StyleSketch, NegativePrompt: "blur"}, "a fox, style: Sketch . Avoid: blur"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildImagePrompt(tt.req); got != tt.want {
				t.Errorf("buildImagePrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateImage(t *testing.T) {
	gen := &fakeGenerator{resp: blobResponse("image/png", []byte("png-bytes"))}
	c := newTestClient(t, gen)

	img, err := c.GenerateImage(context.Background(), ImageRequest{Prompt: "a fox", AspectRatio: AspectWide})
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}
	if img.MIMEType != "image/png" || string(img.Data) != "png-bytes" {
		t.Errorf("image = %+v", img)
	}
	if !strings.HasPrefix(img.DataURL(), "data:image/png;base64,") {
		t.Errorf("DataURL() = %q", img.DataURL())
	}

	call := gen.lastCall(t)
	if call.model != ModelGemini3ProImage {
		t.Errorf("model = %q", call.model)
	}
	if ic := call.config.ImageConfig; ic == nil || ic.AspectRatio != "16:9" || ic.ImageSize != "1K" {
		t.Errorf("ImageConfig = %+v", call.config.ImageConfig)
	}
}

func TestGenerateImageNoImage(t *testing.T) {
	c := newTestClient(t, &fakeGenerator{resp: textResponse("I drew nothing")})
	_, err := c.GenerateImage(context.Background(), ImageRequest{Prompt: "a fox"})
	var decErr *DecodeError
	if !errors.As(err, &decErr) || !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("error = %v, want *DecodeError wrapping ErrEmptyResponse", err)
	}
	if decErr.Preview != "I drew nothing" {
		t.Errorf("Preview = %q", decErr.Preview)
	}
}

func TestEditImage(t *testing.T) {
	gen := &fakeGenerator{resp: blobResponse("image/jpeg", []byte("edited"))}
	c := newTestClient(t, gen)
	base := media.Fragment{ContentType: "image/webp", Data: []byte("orig")}

	img, err := c.EditImage(context.Background(), base, "make it night")
	if err != nil {
		t.Fatalf("EditImage() error = %v", err)
	}
	if string(img.Data) != "edited" {
		t.Errorf("Data = %q", img.Data)
	}
	call := gen.lastCall(t)
	if call.model != ModelGemini25FlashImage {
		t.Errorf("model = %q", call.model)
	}
	parts := call.contents[0].Parts
	if parts[0].InlineData.MIMEType != "image/webp" || parts[1].Text != "make it night" {
		t.Errorf("parts = %+v, %+v", parts[0], parts[1])
	}

	if _, err := c.EditImage(context.Background(), media.Fragment{ContentType: "audio/mpeg", Data: []byte{1}}, "x"); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("non-image base error = %v", err)
	}
}

func videoResult(video *genai.Video) *genai.GenerateVideosOperation {
	return &genai.GenerateVideosOperation{
		Name: "operations/1",
		Done: true,
		Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: video}},
		},
	}
}

func TestGenerateVideo(t *testing.T) {
	videos := &fakeVideos{op: &genai.GenerateVideosOperation{Name: "operations/1"}}
	poller := &fakePoller{doneAfter: 3, result: videoResult(&genai.Video{URI: "https://files/abc?alt=media"})}
	files := &fakeFiles{data: []byte("mp4")}
	c, err := newClient(&fakeGenerator{}, videos, poller, files, Options{PollInterval: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	seed := &Image{Data: []byte("jpg")}
	v, err := c.GenerateVideo(context.Background(), VideoRequest{Seed: seed, AspectRatio: "9:16"})
	if err != nil {
		t.Fatalf("GenerateVideo() error = %v", err)
	}
	if poller.polls != 3 {
		t.Errorf("polls = %d, want 3", poller.polls)
	}
	if files.calls != 1 || string(v.Data) != "mp4" || v.MIMEType != "video/mp4" {
		t.Errorf("video = %+v, downloads = %d", v, files.calls)
	}
	if videos.prompt != DefaultAnimatePrompt {
		t.Errorf("prompt = %q, want %q", videos.prompt, DefaultAnimatePrompt)
	}
	if videos.image == nil || videos.image.MIMEType != "image/jpeg" {
		t.Errorf("seed image = %+v", videos.image)
	}
	if videos.config.AspectRatio != "9:16" || videos.config.Resolution != "720p" || videos.config.NumberOfVideos != 1 {
		t.Errorf("config = %+v", videos.config)
	}
}

func TestGenerateVideoInlineBytes(t *testing.T) {
	videos := &fakeVideos{op: videoResult(&genai.Video{VideoBytes: []byte("inline"), MIMEType: "video/webm"})}
	files := &fakeFiles{}
	c, _ := newClient(&fakeGenerator{}, videos, &fakePoller{}, files, Options{PollInterval: time.Millisecond})

	v, err := c.GenerateVideo(context.Background(), VideoRequest{Prompt: "waves"})
	if err != nil {
		t.Fatalf("GenerateVideo() error = %v", err)
	}
	if string(v.Data) != "inline" || v.MIMEType != "video/webm" || files.calls != 0 {
		t.Errorf("video = %+v, downloads = %d", v, files.calls)
	}
}

func TestGenerateVideoFailures(t *testing.T) {
	t.Run("operation error", func(t *testing.T) {
		op := &genai.GenerateVideosOperation{
			Done:  true,
			Error: map[string]any{"code": float64(400), "message": "prompt rejected"},
		}
		c, _ := newClient(&fakeGenerator{}, &fakeVideos{op: op}, &fakePoller{}, &fakeFiles{}, Options{})
		_, err := c.GenerateVideo(context.Background(), VideoRequest{Prompt: "x"})
		var reqErr *RequestError
		if !errors.As(err, &reqErr) || reqErr.StatusCode != 400 {
			t.Fatalf("error = %v, want *RequestError with status 400", err)
		}
	})

	t.Run("filtered", func(t *testing.T) {
		op := &genai.GenerateVideosOperation{
			Done:     true,
			Response: &genai.GenerateVideosResponse{RAIMediaFilteredCount: 1, RAIMediaFilteredReasons: []string{"celebrity"}},
		}
		c, _ := newClient(&fakeGenerator{}, &fakeVideos{op: op}, &fakePoller{}, &fakeFiles{}, Options{})
		_, err := c.GenerateVideo(context.Background(), VideoRequest{Prompt: "x"})
		var decErr *DecodeError
		if !errors.As(err, &decErr) || !strings.Contains(err.Error(), "celebrity") {
			t.Fatalf("error = %v, want *DecodeError naming the filter reason", err)
		}
	})

	t.Run("cancelled while polling", func(t *testing.T) {
		videos := &fakeVideos{op: &genai.GenerateVideosOperation{Name: "operations/2"}}
		c, _ := newClient(&fakeGenerator{}, videos, &fakePoller{doneAfter: -1}, &fakeFiles{}, Options{PollInterval: time.Millisecond})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := c.GenerateVideo(ctx, VideoRequest{Prompt: "x"})
		var reqErr *RequestError
		if !errors.As(err, &reqErr) || !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("error = %v, want *RequestError wrapping DeadlineExceeded", err)
		}
	})

	t.Run("bad aspect ratio", func(t *testing.T) {
		c, _ := newClient(&fakeGenerator{}, &fakeVideos{}, &fakePoller{}, &fakeFiles{}, Options{})
		_, err := c.GenerateVideo(context.Background(), VideoRequest{Prompt: "x", AspectRatio: "1:1"})
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("error = %v, want ErrInvalidRequest", err)
		}
	})
}

func TestSynthesize(t *testing.T) {
	gen := &fakeGenerator{resp: blobResponse("audio/L16;codec=pcm;rate=24000", []byte{1, 2, 3, 4})}
	c := newTestClient(t, gen)

	pcm, err := c.Synthesize(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !bytes.Equal(pcm, []byte{1, 2, 3, 4}) {
		t.Errorf("pcm = %v", pcm)
	}
	cfg := gen.lastCall(t).config
	if cfg.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != DefaultVoice {
		t.Error("default voice not applied")
	}
	if len(cfg.ResponseModalities) != 1 || cfg.ResponseModalities[0] != "AUDIO" {
		t.Errorf("ResponseModalities = %v", cfg.ResponseModalities)
	}

	gen.resp = blobResponse("audio/L16;codec=pcm;rate=16000", []byte{1, 2})
	if _, err := c.Synthesize(context.Background(), "hello", "Puck"); err == nil {
		t.Error("unexpected sample rate accepted")
	}
}

func TestParsePCMRate(t *testing.T) {
	tests := []struct {
		mime string
		want int
		ok   bool
	}{
		{"audio/L16;codec=pcm;rate=24000", 24000, true},
		{"audio/L16; rate=16000", 16000, true},
		{"audio/wav", 0, false},
		{"audio/L16;rate=abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParsePCMRate(tt.mime)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePCMRate(%q) = %d, %v; want %d, %v", tt.mime, got, ok, tt.want, tt.ok)
		}
	}
}

func TestWAV(t *testing.T) {
	pcm := []byte{0, 1, 2, 3, 4, 5}
	wav := WAV(pcm)
	if len(wav) != 44+len(pcm) {
		t.Fatalf("len = %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Error("bad RIFF markers")
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != SpeechSampleRate {
		t.Errorf("rate = %d", rate)
	}
	if n := binary.LittleEndian.Uint32(wav[40:44]); n != uint32(len(pcm)) {
		t.Errorf("data size = %d", n)
	}
	if !bytes.Equal(wav[44:], pcm) {
		t.Error("payload changed")
	}
}

func TestTranscribe(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("  hello there \n")}
	c := newTestClient(t, gen)

	got, err := c.Transcribe(context.Background(), media.Fragment{ContentType: "audio/mpeg", Data: []byte{1}})
	if err != nil || got != "hello there" {
		t.Fatalf("Transcribe() = %q, %v", got, err)
	}

	gen.resp = textResponse("   ")
	var decErr *DecodeError
	if _, err := c.Transcribe(context.Background(), media.Fragment{ContentType: "audio/mpeg", Data: []byte{1}}); !errors.As(err, &decErr) {
		t.Errorf("blank transcript error = %v, want *DecodeError", err)
	}
}

func TestRunTool(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("Bonjour")}
	c := newTestClient(t, gen)

	got, err := c.RunTool(context.Background(), ToolTranslate, "hello", LanguageFrench)
	if err != nil || got != "Bonjour" {
		t.Fatalf("RunTool() = %q, %v", got, err)
	}
	prompt := gen.lastCall(t).contents[0].Parts[0].Text
	want := "Role: Expert AI Tool. Language: French. Translate accurately to French.\n\nUser Input: hello"
	if !strings.HasPrefix(prompt, want) {
		t.Errorf("prompt = %q, want prefix %q", prompt, want)
	}

	for _, tool := range ToolTypes {
		if _, ok := toolTask(tool, LanguageEnglish); !ok {
			t.Errorf("tool %q has no task", tool)
		}
	}
	if _, err := c.RunTool(context.Background(), ToolType("poem"), "x", LanguageEnglish); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("unknown tool error = %v", err)
	}
}

func TestEnhancePrompt(t *testing.T) {
	c := newTestClient(t, &fakeGenerator{resp: textResponse(`"a red fox at dawn, volumetric light"`)})
	got, err := c.EnhancePrompt(context.Background(), "fox")
	if err != nil || got != "a red fox at dawn, volumetric light" {
		t.Fatalf("EnhancePrompt() = %q, %v", got, err)
	}
}

func TestConverse(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("Cut to the close-up.")}
	c := newTestClient(t, gen)

	reply, err := c.Converse(context.Background(), ConversationRequest{
		Persona:  PersonaFilmDirector,
		Language: LanguageEnglish,
		History: []Message{
			{Role: "user", Text: "hi"},
			{Role: "model", Text: "hello"},
		},
		Message:     "what next?",
		Attachments: []media.Fragment{{ContentType: "image/png", Data: []byte{1}}},
		Creativity:  0.4,
	})
	if err != nil || reply != "Cut to the close-up." {
		t.Fatalf("Converse() = %q, %v", reply, err)
	}

	call := gen.lastCall(t)
	if call.model != ModelGemini3ProPreview {
		t.Errorf("model = %q", call.model)
	}
	if len(call.contents) != 3 || len(call.contents[2].Parts) != 2 {
		t.Fatalf("contents = %d turns", len(call.contents))
	}
	if got := call.config.SystemInstruction.Parts[0].Text; got != "You are a Film Director. Language: English." {
		t.Errorf("system instruction = %q", got)
	}
	if b := call.config.ThinkingConfig.ThinkingBudget; b == nil || *b != 2048 {
		t.Errorf("thinking budget = %v", b)
	}

	_, err = c.Converse(context.Background(), ConversationRequest{
		History: []Message{{Role: "system", Text: "x"}},
		Message: "hi",
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("bad role error = %v", err)
	}
}

func TestSafetySettings(t *testing.T) {
	got, err := safetySettings("block_some")
	if err != nil || len(got) != 4 {
		t.Fatalf("safetySettings() = %v, %v", got, err)
	}
	for _, s := range got {
		if s.Threshold != genai.HarmBlockThresholdBlockMediumAndAbove {
			t.Errorf("threshold = %q", s.Threshold)
		}
	}
	if none, err := safetySettings(""); err != nil || none != nil {
		t.Errorf("empty level = %v, %v", none, err)
	}
	if _, err := safetySettings("paranoid"); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("unknown level error = %v", err)
	}

	gen := &fakeGenerator{resp: textResponse("ok")}
	c, err := newClient(gen, nil, nil, nil, Options{Safety: "block_none"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.EnhancePrompt(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	if len(gen.lastCall(t).config.SafetySettings) != 4 {
		t.Error("safety settings not attached to the call")
	}
}

func TestPool(t *testing.T) {
	created := 0
	p := NewPool(Options{})
	p.resolve = func(override string) (string, error) {
		if override != "" {
			return override, nil
		}
		return "default-key", nil
	}
	p.create = func(ctx context.Context, apiKey string, opts Options) (*Client, error) {
		created++
		return newClient(&fakeGenerator{}, nil, nil, nil, opts)
	}

	a, _ := p.Client(context.Background(), "")
	b, _ := p.Client(context.Background(), "")
	u, _ := p.Client(context.Background(), "user-key")
	if a != b {
		t.Error("default key returned different clients")
	}
	if a == u {
		t.Error("override key shared the default client")
	}
	if created != 2 {
		t.Errorf("created = %d, want 2", created)
	}

	p.resolve = func(string) (string, error) { return "", errors.New("no key") }
	if _, err := p.Client(context.Background(), ""); err == nil {
		t.Error("resolve error swallowed")
	}
}
