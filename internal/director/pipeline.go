// Package director turns an uploaded video into an edit plan: it samples
// frames, asks the director model for an analysis with a cut list and a
// storyboard, renders storyboard sketches, and derives an EDL, a shooting
// script and an export bundle from the result.
//
// A Pipeline owns one Project. State moves
//
//	Empty -> FramesLoaded -> Analyzing -> Analyzed
//
// and a failed analysis goes back to where it started. Storyboard renders
// run concurrently, one per frame id, and are spliced into the analysis by
// copy-on-write so readers holding the previous analysis never see it
// change.
package director

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/media"
	"github.com/fpang/content-studio/internal/metrics"
)

// State is where a Pipeline is in its lifecycle.
type State int

const (
	StateEmpty State = iota
	StateFramesLoaded
	StateAnalyzing
	StateAnalyzed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFramesLoaded:
		return "frames_loaded"
	case StateAnalyzing:
		return "analyzing"
	case StateAnalyzed:
		return "analyzed"
	default:
		return "unknown"
	}
}

// Model is the part of the model gateway the pipeline drives.
type Model interface {
	AnalyzeVideo(ctx context.Context, frames []media.Fragment, goal string) (*chat.VideoAnalysis, error)
	GenerateImage(ctx context.Context, req chat.ImageRequest) (*chat.Image, error)
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Sink stores a rendered artifact and returns a reference a client can
// load, such as a data URL or a signed link.
type Sink interface {
	Put(ctx context.Context, kind, contentType string, data []byte) (string, error)
}

// Storyboard renders are pencil sketches in widescreen.
var storyboardRender = chat.ImageRequest{
	Style:       chat.StyleSketch,
	AspectRatio: chat.AspectWide,
	Size:        chat.Size1K,
}

var thumbnailRender = chat.ImageRequest{
	Style:       chat.StyleCinematic,
	AspectRatio: chat.AspectWide,
	Size:        chat.Size1K,
}

type renderKey struct {
	generation uint64
	id         string
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	model      Model
	sampler    media.Sampler
	sink       Sink
	frameCount int

	// life is cancelled by Close; every external call is bound to it.
	life   context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	closed     bool
	project    Project
	generation uint64
	rendering  map[renderKey]bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFrameCount sets how many frames LoadVideo samples.
func WithFrameCount(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.frameCount = n
		}
	}
}

// New returns an empty pipeline. sampler may be nil when only LoadFrames
// is used.
func New(model Model, sampler media.Sampler, sink Sink, opts ...Option) *Pipeline {
	life, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		model:      model,
		sampler:    sampler,
		sink:       sink,
		frameCount: media.DefaultFrameCount,
		life:       life,
		cancel:     cancel,
		rendering:  make(map[renderKey]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State reports the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Analysis returns the current analysis, or nil. The value must not be
// modified.
func (p *Pipeline) Analysis() *chat.VideoAnalysis {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.project.Analysis
}

// callContext derives a context that ends when either ctx or the pipeline
// ends.
func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// LoadVideo samples video and makes the frames the new base of the
// project, discarding any previous analysis. On failure the project is
// left as it was.
func (p *Pipeline) LoadVideo(ctx context.Context, video []byte) error {
	if p.sampler == nil {
		return ErrNoFrames
	}
	if err := p.checkLoadable(); err != nil {
		return err
	}

	callCtx, stop := p.callContext(ctx)
	defer stop()
	frames, err := p.sampler.Sample(callCtx, video, p.frameCount)
	if err != nil {
		if p.isClosed() {
			return ErrClosed
		}
		log.Warn().Err(err).Msg("Director could not sample video")
		return err
	}
	return p.LoadFrames(frames)
}

// LoadFrames installs already-sampled frames, resetting the analysis.
func (p *Pipeline) LoadFrames(frames []media.Fragment) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.loadableLocked(); err != nil {
		return err
	}
	p.project = Project{Frames: append([]media.Fragment(nil), frames...)}
	p.state = StateFramesLoaded
	p.generation++
	log.Info().Int("frames", len(frames)).Msg("Director frames loaded")
	return nil
}

func (p *Pipeline) checkLoadable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadableLocked()
}

func (p *Pipeline) loadableLocked() error {
	if p.closed {
		return ErrClosed
	}
	if p.state == StateAnalyzing {
		return ErrBusy
	}
	return nil
}

func (p *Pipeline) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Analyze asks the director model to analyze the loaded frames toward
// goal. Only one analysis runs at a time; a second call gets ErrBusy. On
// failure the pipeline returns to the state it had before the call.
func (p *Pipeline) Analyze(ctx context.Context, goal string) (*chat.VideoAnalysis, error) {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return nil, ErrClosed
	case p.state == StateAnalyzing:
		p.mu.Unlock()
		return nil, ErrBusy
	case len(p.project.Frames) == 0:
		p.mu.Unlock()
		return nil, ErrNoFrames
	}
	prev := p.state
	p.state = StateAnalyzing
	frames := p.project.Frames
	p.mu.Unlock()

	callCtx, stop := p.callContext(ctx)
	defer stop()
	analysis, err := p.model.AnalyzeVideo(callCtx, frames, goal)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if err == nil && analysis == nil {
		err = &chat.DecodeError{Op: "analyze_video", Err: chat.ErrEmptyResponse}
	}
	if err != nil {
		p.state = prev
		log.Warn().Err(err).Str("state", prev.String()).Msg("Director analysis failed")
		return nil, err
	}
	p.project.Analysis = analysis
	p.project.Goal = strings.TrimSpace(goal)
	p.project.NarrationAudio = nil
	p.project.ThumbnailURL = ""
	p.project.ScriptText = Script(analysis)
	p.state = StateAnalyzed
	p.generation++
	return analysis, nil
}

// RenderFrame renders the storyboard frame id and splices the image
// reference into a copy of the analysis. Frames with different ids render
// concurrently; a second render of the same id gets ErrRenderInFlight.
// If the analysis is replaced while rendering, the result is dropped with
// ErrStale.
func (p *Pipeline) RenderFrame(ctx context.Context, id string) (*chat.StoryboardFrame, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	analysis := p.project.Analysis
	if analysis == nil {
		p.mu.Unlock()
		return nil, ErrNotAnalyzed
	}
	frame := analysis.Frame(id)
	if frame == nil {
		p.mu.Unlock()
		return nil, ErrFrameNotFound
	}
	key := renderKey{generation: p.generation, id: id}
	if p.rendering[key] {
		p.mu.Unlock()
		return nil, ErrRenderInFlight
	}
	p.rendering[key] = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.rendering, key)
		p.mu.Unlock()
	}()

	callCtx, stop := p.callContext(ctx)
	defer stop()

	req := storyboardRender
	req.Prompt = frame.RenderPrompt
	ref, err := p.renderImage(callCtx, "storyboard", req)
	if err != nil {
		metrics.DirectorRenders.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Str("frame", id).Msg("Storyboard render failed")
		if p.isClosed() {
			return nil, ErrClosed
		}
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.generation != key.generation {
		metrics.DirectorRenders.WithLabelValues("stale").Inc()
		return nil, ErrStale
	}
	updated, rendered := spliceImage(p.project.Analysis, id, ref)
	if rendered == nil {
		// The analysis generation is unchanged, so the frame is still there.
		return nil, ErrFrameNotFound
	}
	p.project.Analysis = updated
	metrics.DirectorRenders.WithLabelValues("applied").Inc()
	log.Info().Str("frame", id).Msg("Storyboard frame rendered")
	return rendered, nil
}

// spliceImage returns a copy of a whose storyboard entry id carries ref.
// Every other entry keeps its pointer.
func spliceImage(a *chat.VideoAnalysis, id, ref string) (*chat.VideoAnalysis, *chat.StoryboardFrame) {
	for i, f := range a.Storyboard {
		if f.ID != id {
			continue
		}
		nf := *f
		nf.ImageURL = ref
		board := make([]*chat.StoryboardFrame, len(a.Storyboard))
		copy(board, a.Storyboard)
		board[i] = &nf
		na := *a
		na.Storyboard = board
		return &na, &nf
	}
	return a, nil
}

func (p *Pipeline) renderImage(ctx context.Context, kind string, req chat.ImageRequest) (string, error) {
	img, err := p.model.GenerateImage(ctx, req)
	if err != nil {
		return "", err
	}
	return p.sink.Put(ctx, kind, img.MIMEType, img.Data)
}

// Narrate voices the narration script and keeps the WAV in the project.
func (p *Pipeline) Narrate(ctx context.Context, voice string) ([]byte, error) {
	analysis, gen, err := p.currentAnalysis()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(analysis.NarrationScript) == "" {
		return nil, ErrNoNarration
	}

	callCtx, stop := p.callContext(ctx)
	defer stop()
	pcm, err := p.model.Synthesize(callCtx, analysis.NarrationScript, voice)
	if err != nil {
		if p.isClosed() {
			return nil, ErrClosed
		}
		return nil, err
	}
	wav := chat.WAV(pcm)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.landedLocked(gen); err != nil {
		return nil, err
	}
	p.project.NarrationAudio = wav
	return wav, nil
}

// RenderThumbnail renders the thumbnail prompt and keeps its reference.
func (p *Pipeline) RenderThumbnail(ctx context.Context) (string, error) {
	analysis, gen, err := p.currentAnalysis()
	if err != nil {
		return "", err
	}

	callCtx, stop := p.callContext(ctx)
	defer stop()
	req := thumbnailRender
	req.Prompt = analysis.ThumbnailPrompt
	ref, err := p.renderImage(callCtx, "thumbnail", req)
	if err != nil {
		if p.isClosed() {
			return "", ErrClosed
		}
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.landedLocked(gen); err != nil {
		return "", err
	}
	p.project.ThumbnailURL = ref
	return ref, nil
}

func (p *Pipeline) currentAnalysis() (*chat.VideoAnalysis, uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, 0, ErrClosed
	}
	if p.project.Analysis == nil {
		return nil, 0, ErrNotAnalyzed
	}
	return p.project.Analysis, p.generation, nil
}

// landedLocked reports whether a result computed at generation gen may
// still be applied.
func (p *Pipeline) landedLocked(gen uint64) error {
	if p.closed {
		return ErrClosed
	}
	if p.generation != gen {
		return ErrStale
	}
	return nil
}

// Close cancels every in-flight call. Results that arrive afterwards are
// discarded and their callers get ErrClosed. Close is idempotent.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
}
