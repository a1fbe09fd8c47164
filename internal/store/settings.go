package store

import (
	"fmt"
	"slices"

	"github.com/fpang/content-studio/internal/chat"
)

// Themes are the accent colors the UI offers.
var Themes = []string{"indigo", "rose", "emerald", "amber", "violet", "slate", "sky", "lime", "fuchsia"}

// FontSizes are the text sizes the UI offers.
var FontSizes = []string{"sm", "base", "lg"}

// UserSettings are the user's preferences. APIKey, when set, overrides the
// process credential for this user's model calls.
type UserSettings struct {
	Theme          string        `json:"theme"`
	SoundEnabled   bool          `json:"soundEnabled"`
	HapticEnabled  bool          `json:"hapticEnabled"`
	FontSize       string        `json:"fontSize"`
	APIKey         string        `json:"apiKey,omitempty"`
	TTSSpeed       float64       `json:"ttsSpeed"`
	Creativity     float64       `json:"creativity"`
	ZenMode        bool          `json:"zenMode"`
	TargetLanguage chat.Language `json:"targetLanguage"`
	SafetyFilter   string        `json:"safetyFilter"`
	BatterySaver   bool          `json:"batterySaver"`
}

// DefaultSettings returns the settings a new user starts with.
func DefaultSettings() UserSettings {
	return UserSettings{
		Theme:          "indigo",
		SoundEnabled:   true,
		HapticEnabled:  true,
		FontSize:       "base",
		TTSSpeed:       1,
		Creativity:     1,
		TargetLanguage: chat.LanguagePersian,
		SafetyFilter:   "block_some",
	}
}

// Validate reports the first setting outside its domain.
func (s UserSettings) Validate() error {
	switch {
	case !slices.Contains(Themes, s.Theme):
		return fmt.Errorf("unknown theme %q", s.Theme)
	case !slices.Contains(FontSizes, s.FontSize):
		return fmt.Errorf("unknown font size %q", s.FontSize)
	case s.TTSSpeed < 0.5 || s.TTSSpeed > 2:
		return fmt.Errorf("tts speed %.2f outside 0.5-2", s.TTSSpeed)
	case s.Creativity < 0 || s.Creativity > 2:
		return fmt.Errorf("creativity %.2f outside 0-2", s.Creativity)
	case s.SafetyFilter == "" || !chat.ValidSafetyLevel(s.SafetyFilter):
		return fmt.Errorf("unknown safety filter %q", s.SafetyFilter)
	}
	if _, err := chat.ParseLanguage(string(s.TargetLanguage)); err != nil {
		return err
	}
	return nil
}
