package chat

import (
	"errors"
	"fmt"

	"google.golang.org/genai"
)

var (
	// ErrEmptyResponse means the model answered without the part the
	// operation needs (no text, no inline image, no audio, no video).
	ErrEmptyResponse = errors.New("empty model response")

	// ErrInvalidRequest is wrapped when a request fails local validation
	// before any model call is made.
	ErrInvalidRequest = errors.New("invalid request")
)

// RequestError is a failed call to the model service: transport failure,
// API rejection, quota, or a video operation that finished with an error.
type RequestError struct {
	Op string
	// StatusCode is the HTTP status reported by the API, 0 when unknown.
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: model request failed (HTTP %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: model request failed: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

func newRequestError(op string, err error) *RequestError {
	re := &RequestError{Op: op, Err: err}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		re.StatusCode = apiErr.Code
	}
	return re
}

// DecodeError is a model reply that could not be turned into the expected
// record. Preview holds the start of the raw reply for diagnostics.
type DecodeError struct {
	Op      string
	Preview string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: cannot decode model response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
