package director

import (
	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/media"
)

// Project is everything a Pipeline knows about one edit. It is the unit
// that Snapshot hands out and Restore takes back.
type Project struct {
	Frames         []media.Fragment    `json:"frames"`
	Goal           string              `json:"goal,omitempty"`
	Analysis       *chat.VideoAnalysis `json:"analysis,omitempty"`
	NarrationAudio []byte              `json:"narrationAudio,omitempty"`
	ThumbnailURL   string              `json:"thumbnailUrl,omitempty"`
	ScriptText     string              `json:"scriptText,omitempty"`
}

// BaseFrame returns the first sampled frame, which stands in for the video
// as its reference image.
func (p Project) BaseFrame() (media.Fragment, bool) {
	if len(p.Frames) == 0 {
		return media.Fragment{}, false
	}
	return p.Frames[0], true
}

// Snapshot returns the current project. The analysis is shared, not copied;
// it is never modified in place.
func (p *Pipeline) Snapshot() Project {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := p.project
	snap.Frames = append([]media.Fragment(nil), p.project.Frames...)
	snap.NarrationAudio = append([]byte(nil), p.project.NarrationAudio...)
	return snap
}

// Restore replaces the project, for example with one loaded from the
// library. Renders still in flight for the old project become stale.
func (p *Pipeline) Restore(project Project) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.loadableLocked(); err != nil {
		return err
	}
	project.Frames = append([]media.Fragment(nil), project.Frames...)
	p.project = project
	switch {
	case project.Analysis != nil && len(project.Frames) > 0:
		p.state = StateAnalyzed
	case len(project.Frames) > 0:
		p.state = StateFramesLoaded
	case project.Analysis != nil:
		// An analysis without frames can still be rendered and exported.
		p.state = StateAnalyzed
	default:
		p.state = StateEmpty
	}
	if project.Analysis != nil && project.ScriptText == "" {
		p.project.ScriptText = Script(project.Analysis)
	}
	p.generation++
	return nil
}
