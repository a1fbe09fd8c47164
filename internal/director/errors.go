package director

import "errors"

var (
	// ErrBusy is returned when an analysis is already running.
	ErrBusy = errors.New("director: analysis already in progress")

	// ErrRenderInFlight is returned when the same storyboard frame is
	// already being rendered.
	ErrRenderInFlight = errors.New("director: frame render already in progress")

	// ErrStale means the analysis was replaced while a call was running;
	// its result was dropped.
	ErrStale = errors.New("director: analysis changed while the call was running")

	// ErrClosed is returned by every operation after Close, including
	// calls that were in flight when Close ran.
	ErrClosed = errors.New("director: pipeline closed")

	ErrNoFrames      = errors.New("director: no frames loaded")
	ErrNotAnalyzed   = errors.New("director: video has not been analyzed")
	ErrFrameNotFound = errors.New("director: storyboard frame not found")
	ErrNoNarration   = errors.New("director: analysis has no narration script")
)
