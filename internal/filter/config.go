// Package filter renders a still image through a photometric filter chain
// followed by a geometric transform, the way a browser canvas does with a
// CSS filter string and a translate/rotate/scale context.
package filter

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by Validate errors.
var ErrInvalidConfig = errors.New("invalid filter config")

// Config describes one render. Percentages follow CSS filter functions:
// 100 is identity for brightness, contrast and saturate; 0 for grayscale
// and sepia.
type Config struct {
	Brightness float64 `json:"brightness"` // percent, 0-200
	Contrast   float64 `json:"contrast"`   // percent, 0-200
	Saturate   float64 `json:"saturate"`   // percent, 0-200
	Grayscale  float64 `json:"grayscale"`  // percent, 0-100
	Sepia      float64 `json:"sepia"`      // percent, 0-100
	Hue        float64 `json:"hue"`        // degrees, 0-360
	Blur       float64 `json:"blur"`       // pixels, 0-10
	Rotation   float64 `json:"rotation"`   // degrees clockwise, 0-360
	ScaleX     float64 `json:"scaleX"`     // 1 or -1
	ScaleY     float64 `json:"scaleY"`     // 1 or -1
}

// Identity returns the config that leaves an image unchanged.
func Identity() Config {
	return Config{Brightness: 100, Contrast: 100, Saturate: 100, ScaleX: 1, ScaleY: 1}
}

// Presets are named starting points offered by the editor.
var Presets = map[string]Config{
	"none":  Identity(),
	"noir":  {Brightness: 110, Contrast: 130, Saturate: 100, Grayscale: 100, ScaleX: 1, ScaleY: 1},
	"retro": {Brightness: 105, Contrast: 90, Saturate: 120, Sepia: 60, ScaleX: 1, ScaleY: 1},
	"vivid": {Brightness: 105, Contrast: 120, Saturate: 160, ScaleX: 1, ScaleY: 1},
	"cool":  {Brightness: 100, Contrast: 105, Saturate: 110, Hue: 190, ScaleX: 1, ScaleY: 1},
	"dream": {Brightness: 115, Contrast: 85, Saturate: 130, Blur: 1.5, ScaleX: 1, ScaleY: 1},
}

// Validate checks every field against its domain.
func (c Config) Validate() error {
	checks := []struct {
		name   string
		v      float64
		lo, hi float64
	}{
		{"brightness", c.Brightness, 0, 200},
		{"contrast", c.Contrast, 0, 200},
		{"saturate", c.Saturate, 0, 200},
		{"grayscale", c.Grayscale, 0, 100},
		{"sepia", c.Sepia, 0, 100},
		{"hue", c.Hue, 0, 360},
		{"blur", c.Blur, 0, 10},
		{"rotation", c.Rotation, 0, 360},
	}
	for _, ch := range checks {
		if math.IsNaN(ch.v) || ch.v < ch.lo || ch.v > ch.hi {
			return fmt.Errorf("%w: %s %v outside [%v, %v]", ErrInvalidConfig, ch.name, ch.v, ch.lo, ch.hi)
		}
	}
	if c.ScaleX != 1 && c.ScaleX != -1 {
		return fmt.Errorf("%w: scaleX must be 1 or -1, got %v", ErrInvalidConfig, c.ScaleX)
	}
	if c.ScaleY != 1 && c.ScaleY != -1 {
		return fmt.Errorf("%w: scaleY must be 1 or -1, got %v", ErrInvalidConfig, c.ScaleY)
	}
	return nil
}

// CSS renders the photometric part as a CSS filter string, in chain order.
func (c Config) CSS() string {
	return fmt.Sprintf("brightness(%g%%) contrast(%g%%) grayscale(%g%%) sepia(%g%%) blur(%gpx) hue-rotate(%gdeg) saturate(%g%%)",
		c.Brightness, c.Contrast, c.Grayscale, c.Sepia, c.Blur, c.Hue, c.Saturate)
}
