package director

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/media"
)

type fakeModel struct {
	mu sync.Mutex

	analysis   *chat.VideoAnalysis
	analyzeErr error
	imageErr   error
	pcm        []byte

	// gate, when set, blocks calls until it is closed or the context ends.
	gate    chan struct{}
	started chan string

	analyzeCalls int
	prompts      []chat.ImageRequest
}

func (f *fakeModel) wait(ctx context.Context, name string) error {
	if f.started != nil {
		f.started <- name
	}
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeModel) AnalyzeVideo(ctx context.Context, frames []media.Fragment, goal string) (*chat.VideoAnalysis, error) {
	f.mu.Lock()
	f.analyzeCalls++
	f.mu.Unlock()
	if err := f.wait(ctx, "analyze"); err != nil {
		return nil, err
	}
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.analysis, nil
}

func (f *fakeModel) GenerateImage(ctx context.Context, req chat.ImageRequest) (*chat.Image, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, req)
	f.mu.Unlock()
	if err := f.wait(ctx, req.Prompt); err != nil {
		return nil, err
	}
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return &chat.Image{Data: []byte(req.Prompt), MIMEType: "image/png"}, nil
}

func (f *fakeModel) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if err := f.wait(ctx, "speech"); err != nil {
		return nil, err
	}
	return f.pcm, nil
}

type fakeSampler struct {
	frames []media.Fragment
	err    error
}

func (f *fakeSampler) Sample(_ context.Context, _ []byte, frameCount int) ([]media.Fragment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.frames[:frameCount], nil
}

type fakeSink struct {
	mu sync.Mutex
	n  int
}

func (s *fakeSink) Put(_ context.Context, kind, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("ref://%s/%d/%s", kind, s.n, data), nil
}

func testFrames(n int) []media.Fragment {
	frames := make([]media.Fragment, n)
	for i := range frames {
		frames[i] = media.Fragment{ContentType: "image/jpeg", Data: []byte{byte(i)}, Offset: float64(i + 1)}
	}
	return frames
}

func testAnalysis() *chat.VideoAnalysis {
	return &chat.VideoAnalysis{
		Summary:         "A beach day",
		ViralityScore:   80,
		Cuts:            []chat.Cut{{Start: "00:00", End: "00:05", Reason: "intro", Duration: 5}},
		MusicMood:       "Upbeat",
		NarrationScript: "The sun rises.",
		ThumbnailPrompt: "Golden sunset",
		FFmpegCommand:   "ffmpeg -i in.mp4 out.mp4",
		Storyboard: []*chat.StoryboardFrame{
			{ID: "1", Description: "Wide", RenderPrompt: "wide beach"},
			{ID: "2", Description: "Close", RenderPrompt: "surfboard"},
			{ID: "3", Description: "Sunset", RenderPrompt: "sunset"},
		},
	}
}

func analyzedPipeline(t *testing.T, model *fakeModel) *Pipeline {
	t.Helper()
	if model.analysis == nil {
		model.analysis = testAnalysis()
	}
	p := New(model, &fakeSampler{frames: testFrames(6)}, &fakeSink{})
	t.Cleanup(p.Close)
	if err := p.LoadFrames(testFrames(6)); err != nil {
		t.Fatalf("LoadFrames() error = %v", err)
	}
	if _, err := p.Analyze(context.Background(), "goal"); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return p
}

func TestLoadVideo(t *testing.T) {
	p := New(&fakeModel{}, &fakeSampler{frames: testFrames(10)}, &fakeSink{})
	defer p.Close()

	if p.State() != StateEmpty {
		t.Fatalf("initial state = %v", p.State())
	}
	if err := p.LoadVideo(context.Background(), []byte("video")); err != nil {
		t.Fatalf("LoadVideo() error = %v", err)
	}
	if p.State() != StateFramesLoaded {
		t.Errorf("state = %v, want frames_loaded", p.State())
	}
	snap := p.Snapshot()
	if len(snap.Frames) != media.DefaultFrameCount {
		t.Errorf("frames = %d, want %d", len(snap.Frames), media.DefaultFrameCount)
	}
	if base, ok := snap.BaseFrame(); !ok || base.Offset != 1 {
		t.Errorf("BaseFrame() = %+v, %v", base, ok)
	}
}

func TestLoadVideoFailureKeepsState(t *testing.T) {
	model := &fakeModel{}
	p := analyzedPipeline(t, model)
	p.sampler = &fakeSampler{err: errors.New("ffprobe exploded")}

	if err := p.LoadVideo(context.Background(), []byte("video")); err == nil {
		t.Fatal("LoadVideo() succeeded with a failing sampler")
	}
	if p.State() != StateAnalyzed || p.Analysis() == nil {
		t.Errorf("state = %v after failed load, want analyzed with analysis kept", p.State())
	}
}

func TestAnalyzeNeedsFrames(t *testing.T) {
	p := New(&fakeModel{analysis: testAnalysis()}, nil, &fakeSink{})
	defer p.Close()
	if _, err := p.Analyze(context.Background(), ""); !errors.Is(err, ErrNoFrames) {
		t.Fatalf("error = %v, want ErrNoFrames", err)
	}
	if p.State() != StateEmpty || p.Analysis() != nil {
		t.Error("pipeline reached a later state without frames")
	}
}

func TestAnalyzeFailureRestoresState(t *testing.T) {
	tests := []struct {
		name     string
		analyzed bool
		want     State
	}{
		{"first analysis", false, StateFramesLoaded},
		{"re-analysis", true, StateAnalyzed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{analysis: testAnalysis()}
			p := New(model, nil, &fakeSink{})
			defer p.Close()
			if err := p.LoadFrames(testFrames(6)); err != nil {
				t.Fatal(err)
			}
			if tt.analyzed {
				if _, err := p.Analyze(context.Background(), ""); err != nil {
					t.Fatal(err)
				}
			}
			before := p.Analysis()

			model.analyzeErr = &chat.DecodeError{Op: "analyze_video", Err: errors.New("no JSON")}
			_, err := p.Analyze(context.Background(), "")
			var decErr *chat.DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("error = %v, want *chat.DecodeError", err)
			}
			if p.State() != tt.want {
				t.Errorf("state = %v, want %v", p.State(), tt.want)
			}
			if p.Analysis() != before {
				t.Error("analysis changed after a failed analysis")
			}
		})
	}
}

func TestAnalyzeEmptyResult(t *testing.T) {
	model := &fakeModel{}
	p := New(model, nil, &fakeSink{})
	defer p.Close()
	if err := p.LoadFrames(testFrames(6)); err != nil {
		t.Fatal(err)
	}

	got, err := p.Analyze(context.Background(), "")
	if got != nil {
		t.Errorf("Analyze() = %+v, want nil", got)
	}
	if !errors.Is(err, chat.ErrEmptyResponse) {
		t.Fatalf("error = %v, want chat.ErrEmptyResponse", err)
	}
	var decErr *chat.DecodeError
	if !errors.As(err, &decErr) {
		t.Errorf("error = %T, want *chat.DecodeError", err)
	}
	if p.State() != StateFramesLoaded {
		t.Errorf("state = %v, want %v", p.State(), StateFramesLoaded)
	}
	if p.Analysis() != nil {
		t.Error("analysis stored from an empty result")
	}
}

func TestAnalyzeBusy(t *testing.T) {
	model := &fakeModel{analysis: testAnalysis(), gate: make(chan struct{}), started: make(chan string, 1)}
	p := New(model, &fakeSampler{frames: testFrames(6)}, &fakeSink{})
	defer p.Close()
	if err := p.LoadFrames(testFrames(6)); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := p.Analyze(context.Background(), "")
		done <- err
	}()
	<-model.started

	if p.State() != StateAnalyzing {
		t.Errorf("state = %v, want analyzing", p.State())
	}
	if _, err := p.Analyze(context.Background(), ""); !errors.Is(err, ErrBusy) {
		t.Errorf("second Analyze() error = %v, want ErrBusy", err)
	}
	if err := p.LoadFrames(testFrames(6)); !errors.Is(err, ErrBusy) {
		t.Errorf("LoadFrames() during analysis error = %v, want ErrBusy", err)
	}

	close(model.gate)
	if err := <-done; err != nil {
		t.Fatalf("first Analyze() error = %v", err)
	}
	if p.State() != StateAnalyzed || p.Analysis() == nil {
		t.Errorf("state = %v, want analyzed", p.State())
	}
	if model.analyzeCalls != 1 {
		t.Errorf("model called %d times, want 1", model.analyzeCalls)
	}
}

func TestRenderFrameSplice(t *testing.T) {
	model := &fakeModel{}
	p := analyzedPipeline(t, model)
	before := p.Analysis()

	frame, err := p.RenderFrame(context.Background(), "2")
	if err != nil {
		t.Fatalf("RenderFrame() error = %v", err)
	}
	if frame.ImageURL != "ref://storyboard/1/surfboard" {
		t.Errorf("ImageURL = %q", frame.ImageURL)
	}

	after := p.Analysis()
	if after == before {
		t.Fatal("analysis was modified in place")
	}
	if before.Storyboard[1].ImageURL != "" {
		t.Error("previous analysis saw the render")
	}
	if after.Storyboard[0] != before.Storyboard[0] || after.Storyboard[2] != before.Storyboard[2] {
		t.Error("sibling frames were not kept pointer-equal")
	}
	if after.Storyboard[1] == before.Storyboard[1] {
		t.Error("rendered frame was not replaced")
	}

	req := model.prompts[0]
	if req.Style != chat.StyleSketch || req.AspectRatio != chat.AspectWide || req.Size != chat.Size1K {
		t.Errorf("render request = %+v", req)
	}
}

func TestRenderFrameErrors(t *testing.T) {
	t.Run("not analyzed", func(t *testing.T) {
		p := New(&fakeModel{}, nil, &fakeSink{})
		defer p.Close()
		if _, err := p.RenderFrame(context.Background(), "1"); !errors.Is(err, ErrNotAnalyzed) {
			t.Errorf("error = %v, want ErrNotAnalyzed", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		p := analyzedPipeline(t, &fakeModel{})
		if _, err := p.RenderFrame(context.Background(), "9"); !errors.Is(err, ErrFrameNotFound) {
			t.Errorf("error = %v, want ErrFrameNotFound", err)
		}
	})

	t.Run("model failure leaves frame untouched", func(t *testing.T) {
		model := &fakeModel{}
		p := analyzedPipeline(t, model)
		before := p.Analysis()
		model.imageErr = &chat.RequestError{Op: "generate_image", StatusCode: 500, Err: errors.New("boom")}
		if _, err := p.RenderFrame(context.Background(), "1"); err == nil {
			t.Fatal("RenderFrame() succeeded")
		}
		if p.Analysis() != before || before.Storyboard[0].ImageURL != "" {
			t.Error("failed render changed the analysis")
		}
	})
}

func TestRenderFrameConcurrency(t *testing.T) {
	model := &fakeModel{}
	p := analyzedPipeline(t, model)
	model.gate, model.started = make(chan struct{}), make(chan string, 4)

	var wg sync.WaitGroup
	errs := make(map[string]error)
	var mu sync.Mutex
	for _, id := range []string{"1", "3"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.RenderFrame(context.Background(), id)
			mu.Lock()
			errs[id] = err
			mu.Unlock()
		}()
	}
	<-model.started
	<-model.started

	if _, err := p.RenderFrame(context.Background(), "1"); !errors.Is(err, ErrRenderInFlight) {
		t.Errorf("duplicate render error = %v, want ErrRenderInFlight", err)
	}

	close(model.gate)
	wg.Wait()
	for id, err := range errs {
		if err != nil {
			t.Errorf("RenderFrame(%s) error = %v", id, err)
		}
	}
	a := p.Analysis()
	if a.Storyboard[0].ImageURL == "" || a.Storyboard[2].ImageURL == "" {
		t.Error("concurrent renders were not both applied")
	}
	if a.Storyboard[1].ImageURL != "" {
		t.Error("untouched frame gained an image")
	}
}

func TestRenderFrameStale(t *testing.T) {
	model := &fakeModel{}
	p := analyzedPipeline(t, model)
	model.gate, model.started = make(chan struct{}), make(chan string, 1)

	done := make(chan error, 1)
	go func() {
		_, err := p.RenderFrame(context.Background(), "1")
		done <- err
	}()
	<-model.started

	// Replace the analysis while the render is in flight.
	if err := p.Restore(Project{Frames: testFrames(6), Analysis: testAnalysis()}); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	close(model.gate)

	if err := <-done; !errors.Is(err, ErrStale) {
		t.Fatalf("error = %v, want ErrStale", err)
	}
	if p.Analysis().Storyboard[0].ImageURL != "" {
		t.Error("stale render was applied to the new analysis")
	}
}

func TestCloseDuringFlight(t *testing.T) {
	model := &fakeModel{}
	p := analyzedPipeline(t, model)
	model.gate, model.started = make(chan struct{}), make(chan string, 1)
	before := p.Analysis()

	done := make(chan error, 1)
	go func() {
		_, err := p.RenderFrame(context.Background(), "2")
		done <- err
	}()
	<-model.started
	p.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("error = %v, want ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight render was not cancelled by Close")
	}
	if p.Analysis() != before {
		t.Error("render landed after Close")
	}
	if _, err := p.Analyze(context.Background(), ""); !errors.Is(err, ErrClosed) {
		t.Errorf("Analyze() after Close error = %v, want ErrClosed", err)
	}
	p.Close()
}

func TestNarrateAndThumbnail(t *testing.T) {
	model := &fakeModel{pcm: make([]byte, 480)}
	p := analyzedPipeline(t, model)

	wav, err := p.Narrate(context.Background(), "")
	if err != nil {
		t.Fatalf("Narrate() error = %v", err)
	}
	if len(wav) != 44+480 || string(wav[:4]) != "RIFF" {
		t.Errorf("narration is not a WAV of the PCM (len %d)", len(wav))
	}

	ref, err := p.RenderThumbnail(context.Background())
	if err != nil {
		t.Fatalf("RenderThumbnail() error = %v", err)
	}
	if ref != "ref://thumbnail/1/Golden sunset" {
		t.Errorf("thumbnail = %q", ref)
	}
	if got := model.prompts[0]; got.Style != chat.StyleCinematic {
		t.Errorf("thumbnail style = %q", got.Style)
	}

	snap := p.Snapshot()
	if len(snap.NarrationAudio) != len(wav) || snap.ThumbnailURL != ref {
		t.Error("snapshot does not carry narration and thumbnail")
	}

	// A new analysis clears derived media.
	if _, err := p.Analyze(context.Background(), "again"); err != nil {
		t.Fatal(err)
	}
	if snap := p.Snapshot(); snap.NarrationAudio != nil || snap.ThumbnailURL != "" {
		t.Error("derived media survived a new analysis")
	}
}

func TestNarrateWithoutScript(t *testing.T) {
	a := testAnalysis()
	a.NarrationScript = " "
	p := analyzedPipeline(t, &fakeModel{analysis: a})
	if _, err := p.Narrate(context.Background(), ""); !errors.Is(err, ErrNoNarration) {
		t.Errorf("error = %v, want ErrNoNarration", err)
	}
}

func TestRestore(t *testing.T) {
	p := New(&fakeModel{}, nil, &fakeSink{})
	defer p.Close()

	tests := []struct {
		name    string
		project Project
		want    State
	}{
		{"empty", Project{}, StateEmpty},
		{"frames only", Project{Frames: testFrames(2)}, StateFramesLoaded},
		{"analyzed", Project{Frames: testFrames(2), Analysis: testAnalysis()}, StateAnalyzed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.Restore(tt.project); err != nil {
				t.Fatalf("Restore() error = %v", err)
			}
			if p.State() != tt.want {
				t.Errorf("state = %v, want %v", p.State(), tt.want)
			}
		})
	}
	if p.Snapshot().ScriptText == "" {
		t.Error("restored analysis has no script")
	}
}
