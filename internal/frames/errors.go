package frames

import "fmt"

// Extraction stages reported by ExtractionError.
const (
	StageRequest  = "request"
	StageOpen     = "open"
	StageMetadata = "metadata"
	StageSeek     = "seek"
	StageEncode   = "encode"
)

// ExtractionError reports why a video could not be reduced to frames.
// Offset is the seek target in seconds for seek and encode failures.
type ExtractionError struct {
	Stage  string
	Offset float64
	Err    error
}

func (e *ExtractionError) Error() string {
	switch e.Stage {
	case StageSeek, StageEncode:
		return fmt.Sprintf("frame extraction failed (%s at %.2fs): %v", e.Stage, e.Offset, e.Err)
	default:
		return fmt.Sprintf("frame extraction failed (%s): %v", e.Stage, e.Err)
	}
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
