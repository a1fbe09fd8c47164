package frames

import (
	"context"
	"image"
)

// Decoder opens a decode session over an in-memory video.
type Decoder interface {
	Open(ctx context.Context, video []byte) (Session, error)
}

// Session owns the resources for one clip. Calls on a session must not
// overlap, and Close must be called exactly once.
type Session interface {
	Probe(ctx context.Context) (*VideoInfo, error)
	// Frame returns the displayed picture at offset seconds.
	Frame(ctx context.Context, offset float64) (image.Image, error)
	Close() error
}
