package director

import (
	"fmt"
	"math"
	"strings"

	"github.com/fpang/content-studio/internal/chat"
)

// EDLFrameRate is the timebase of exported edit decision lists.
const EDLFrameRate = 30

const edlReel = "AX"

// EDL renders the cut list as a CMX3600-style edit decision list. Source
// in/out are the cut's own timestamps; record in/out lay the cuts end to
// end from zero. A cut whose end cannot be read falls back to start plus
// its duration.
func EDL(a *chat.VideoAnalysis) (string, error) {
	if a == nil {
		return "", ErrNotAnalyzed
	}

	var b strings.Builder
	b.WriteString("TITLE: AI_DIRECTOR_EDIT\n")
	b.WriteString("FCM: NON-DROP FRAME\n\n")

	var record int
	for i, cut := range a.Cuts {
		in, out, err := cutFrames(cut)
		if err != nil {
			return "", fmt.Errorf("cut %d: %w", i+1, err)
		}
		recOut := record + (out - in)
		fmt.Fprintf(&b, "%03d  %-8s V     C        %s %s %s %s\n",
			i+1, edlReel, timecode(in), timecode(out), timecode(record), timecode(recOut))
		b.WriteString("* FROM CLIP NAME: RAW_VIDEO\n")
		if reason := strings.TrimSpace(cut.Reason); reason != "" {
			fmt.Fprintf(&b, "* COMMENT: %s\n", oneLine(reason))
		}
		b.WriteString("\n")
		record = recOut
	}
	return b.String(), nil
}

// cutFrames converts a cut to source in/out frame numbers.
func cutFrames(cut chat.Cut) (int, int, error) {
	start, end, err := cut.Span()
	if err != nil {
		return 0, 0, err
	}
	return toFrames(start), toFrames(end), nil
}

func toFrames(seconds float64) int {
	return int(math.Round(seconds * EDLFrameRate))
}

// timecode formats a frame count as HH:MM:SS:FF.
func timecode(frames int) string {
	ff := frames % EDLFrameRate
	total := frames / EDLFrameRate
	return fmt.Sprintf("%02d:%02d:%02d:%02d", total/3600, total/60%60, total%60, ff)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
