package media

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMedia is returned for zero-byte uploads.
	ErrEmptyMedia = errors.New("media is empty")
	// ErrTooLarge is wrapped in a *ReadError when an upload exceeds the limit.
	ErrTooLarge = errors.New("media exceeds the upload size limit")
	// ErrNoSampler is returned for video when the ingestor has no frame sampler.
	ErrNoSampler = errors.New("video ingest requires a frame sampler")
)

// UnsupportedKindError reports a content type that is not image, video or audio.
type UnsupportedKindError struct {
	ContentType string
}

func (e *UnsupportedKindError) Error() string {
	if e.ContentType == "" {
		return "unsupported media kind: no content type"
	}
	return fmt.Sprintf("unsupported media kind %q", e.ContentType)
}

// ReadError reports that the upload bytes could not be obtained.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read media %s: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
