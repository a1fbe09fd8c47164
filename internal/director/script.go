package director

import (
	"fmt"
	"strings"

	"github.com/fpang/content-studio/internal/chat"
)

// Script renders the analysis as a plain-text shooting script: summary,
// shot list, storyboard and narration.
func Script(a *chat.VideoAnalysis) string {
	if a == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SUMMARY\n%s\n\n", a.Summary)
	fmt.Fprintf(&b, "Virality score: %d/100\n", a.ViralityScore)
	fmt.Fprintf(&b, "Music mood: %s\n", a.MusicMood)
	if len(a.Characters) > 0 {
		fmt.Fprintf(&b, "Characters: %s\n", strings.Join(a.Characters, ", "))
	}

	if len(a.Cuts) > 0 {
		b.WriteString("\nSHOT LIST\n")
		for i, c := range a.Cuts {
			fmt.Fprintf(&b, "%d. %s - %s", i+1, c.Start, c.End)
			if c.Reason != "" {
				fmt.Fprintf(&b, "  %s", oneLine(c.Reason))
			}
			b.WriteString("\n")
		}
	}

	if len(a.Storyboard) > 0 {
		b.WriteString("\nSTORYBOARD\n")
		for _, f := range a.Storyboard {
			fmt.Fprintf(&b, "[%s] %s", f.ID, oneLine(f.Description))
			if f.CameraAngle != "" {
				fmt.Fprintf(&b, " (%s)", f.CameraAngle)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nNARRATION\n%s\n", strings.TrimSpace(a.NarrationScript))
	if a.FFmpegCommand != "" {
		fmt.Fprintf(&b, "\nFFMPEG\n%s\n", a.FFmpegCommand)
	}
	return b.String()
}
