package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/content-studio/internal/assets"
	"github.com/fpang/content-studio/internal/jsonutil"
	"github.com/fpang/content-studio/internal/media"
)

// DefaultDirectorGoal is the goal used when the user gives none.
const DefaultDirectorGoal = "Create a viral, cinematic video"

const directorTemperature = 0.7

// Cut is one segment of the proposed edit. Start and End are timestamps as
// written by the model ("00:05", "01:02:03.5").
type Cut struct {
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Reason   string  `json:"reason"`
	Duration float64 `json:"duration"`
}

// StoryboardFrame is one proposed shot. ImageURL is empty until the shot
// has been rendered.
type StoryboardFrame struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	CameraAngle  string `json:"camera_angle"`
	RenderPrompt string `json:"prompt"`
	ImageURL     string `json:"imageUrl,omitempty"`
}

// VideoAnalysis is the director's reading of a video. Values are treated as
// immutable once decoded; changes are made on copies.
type VideoAnalysis struct {
	Summary         string             `json:"summary"`
	ViralityScore   int                `json:"virality_score"`
	Cuts            []Cut              `json:"cuts"`
	MusicMood       string             `json:"music_mood"`
	NarrationScript string             `json:"narration_script"`
	ThumbnailPrompt string             `json:"thumbnail_prompt"`
	FFmpegCommand   string             `json:"ffmpeg_command"`
	Characters      []string           `json:"characters,omitempty"`
	Storyboard      []*StoryboardFrame `json:"storyboard,omitempty"`
}

// Frame returns the storyboard entry with id, or nil.
func (a *VideoAnalysis) Frame(id string) *StoryboardFrame {
	for _, f := range a.Storyboard {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// flexID accepts a JSON string or number; models emit both.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

type cutWire struct {
	Start    *string  `json:"start"`
	End      *string  `json:"end"`
	Reason   string   `json:"reason"`
	Duration *float64 `json:"duration"`
}

type frameWire struct {
	ID          *flexID `json:"id"`
	Description string  `json:"description"`
	CameraAngle string  `json:"camera_angle"`
	Prompt      *string `json:"prompt"`
}

type analysisWire struct {
	Summary         *string     `json:"summary"`
	ViralityScore   *float64    `json:"virality_score"`
	Cuts            *[]cutWire  `json:"cuts"`
	MusicMood       *string     `json:"music_mood"`
	NarrationScript *string     `json:"narration_script"`
	ThumbnailPrompt *string     `json:"thumbnail_prompt"`
	FFmpegCommand   *string     `json:"ffmpeg_command"`
	Characters      []string    `json:"characters"`
	Storyboard      []frameWire `json:"storyboard"`
}

// DecodeAnalysis parses and validates a director reply. Every top-level
// field except characters and storyboard is required; storyboard entries
// need a unique id and a render prompt.
func DecodeAnalysis(text string) (*VideoAnalysis, error) {
	w, err := jsonutil.ParseObject[analysisWire](text)
	if err != nil {
		return nil, err
	}

	required := []struct {
		name string
		v    *string
	}{
		{"summary", w.Summary},
		{"music_mood", w.MusicMood},
		{"narration_script", w.NarrationScript},
		{"thumbnail_prompt", w.ThumbnailPrompt},
		{"ffmpeg_command", w.FFmpegCommand},
	}
	for _, r := range required {
		if r.v == nil {
			return nil, fmt.Errorf("%s is missing", r.name)
		}
	}
	if w.ViralityScore == nil {
		return nil, errors.New("virality_score is missing")
	}
	score := math.Round(*w.ViralityScore)
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("virality_score %g is outside 0-100", *w.ViralityScore)
	}
	if w.Cuts == nil {
		return nil, errors.New("cuts is missing")
	}

	a := &VideoAnalysis{
		Summary:         *w.Summary,
		ViralityScore:   int(score),
		MusicMood:       *w.MusicMood,
		NarrationScript: *w.NarrationScript,
		ThumbnailPrompt: *w.ThumbnailPrompt,
		FFmpegCommand:   *w.FFmpegCommand,
		Characters:      w.Characters,
		Cuts:            make([]Cut, 0, len(*w.Cuts)),
	}

	for i, cw := range *w.Cuts {
		if cw.Start == nil || cw.End == nil {
			return nil, fmt.Errorf("cut %d: start and end are required", i)
		}
		cut := Cut{Start: strings.TrimSpace(*cw.Start), End: strings.TrimSpace(*cw.End), Reason: cw.Reason}
		if cw.Duration != nil {
			cut.Duration = *cw.Duration
		}
		if _, _, err := cut.Span(); err != nil {
			return nil, fmt.Errorf("cut %d: %w", i, err)
		}
		a.Cuts = append(a.Cuts, cut)
	}

	seen := make(map[string]bool, len(w.Storyboard))
	for i, sw := range w.Storyboard {
		if sw.ID == nil || strings.TrimSpace(string(*sw.ID)) == "" {
			return nil, fmt.Errorf("storyboard %d: id is missing", i)
		}
		id := strings.TrimSpace(string(*sw.ID))
		if seen[id] {
			return nil, fmt.Errorf("storyboard %d: duplicate id %q", i, id)
		}
		seen[id] = true
		if sw.Prompt == nil || strings.TrimSpace(*sw.Prompt) == "" {
			return nil, fmt.Errorf("storyboard %s: prompt is missing", id)
		}
		a.Storyboard = append(a.Storyboard, &StoryboardFrame{
			ID:           id,
			Description:  sw.Description,
			CameraAngle:  sw.CameraAngle,
			RenderPrompt: strings.TrimSpace(*sw.Prompt),
		})
	}
	return a, nil
}

// AnalyzeVideo sends sampled frames and a goal to the director model. An
// empty goal means DefaultDirectorGoal.
func (c *Client) AnalyzeVideo(ctx context.Context, frames []media.Fragment, goal string) (*VideoAnalysis, error) {
	if len(frames) == 0 {
		return nil, invalidRequest("no frames to analyze")
	}
	goal = strings.TrimSpace(goal)
	if goal == "" {
		goal = DefaultDirectorGoal
	}

	parts := make([]*genai.Part, 0, len(frames)+1)
	for i, f := range frames {
		if len(f.Data) == 0 {
			return nil, invalidRequest("frame %d is empty", i)
		}
		parts = append(parts, genai.NewPartFromBytes(f.Data, "image/jpeg"))
	}
	parts = append(parts, genai.NewPartFromText(assets.RenderDirectorPrompt(goal)))

	log.Info().
		Int("frames", len(frames)).
		Str("goal", jsonutil.Preview(goal, 100)).
		Msg("Sending frames to director model")

	cfg := &genai.GenerateContentConfig{Temperature: temperature(directorTemperature)}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	var result *VideoAnalysis
	err := c.generate(ctx, "analyze_video", c.models.Director, contents, cfg, func(resp *genai.GenerateContentResponse) error {
		var derr error
		result, derr = DecodeAnalysis(responseText(resp))
		return derr
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("virality_score", result.ViralityScore).
		Int("cuts", len(result.Cuts)).
		Int("storyboard", len(result.Storyboard)).
		Msg("Video analysis complete")
	return result, nil
}

// Span returns the cut's source range in seconds. An end that cannot be
// read, or that is not after start, falls back to start plus Duration.
func (c Cut) Span() (float64, float64, error) {
	start, err := ParseTimestamp(c.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseTimestamp(c.End)
	if err != nil || end <= start {
		if c.Duration <= 0 {
			return 0, 0, fmt.Errorf("cut %q-%q has no usable end", c.Start, c.End)
		}
		end = start + c.Duration
	}
	return start, end, nil
}

// ParseTimestamp converts a cut timestamp ("SS", "MM:SS" or "HH:MM:SS",
// optional fractional seconds) into seconds.
func ParseTimestamp(ts string) (float64, error) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return 0, errors.New("empty timestamp")
	}
	fields := strings.Split(ts, ":")
	if len(fields) > 3 {
		return 0, fmt.Errorf("timestamp %q has too many fields", ts)
	}
	var total float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("timestamp %q: bad field %q", ts, f)
		}
		// Only the last field may carry a fraction.
		if i < len(fields)-1 && v != math.Trunc(v) {
			return 0, fmt.Errorf("timestamp %q: bad field %q", ts, f)
		}
		total = total*60 + v
	}
	return total, nil
}
