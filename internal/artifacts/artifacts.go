// Package artifacts stores generated images, audio and video and hands
// back a reference a client can load.
package artifacts

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"

	"github.com/fpang/content-studio/internal/media"
)

// Sink stores one artifact. kind groups artifacts ("storyboard",
// "thumbnail", "image", "video", "speech") and becomes part of the name.
type Sink interface {
	Put(ctx context.Context, kind, contentType string, data []byte) (string, error)
}

// objectName returns kind/<uuid><ext>.
func objectName(kind, contentType string) (string, error) {
	if kind == "" || path.Base(kind) != kind {
		return "", fmt.Errorf("artifacts: invalid kind %q", kind)
	}
	return kind + "/" + uuid.NewString() + media.ExtensionFor(contentType), nil
}

// Inline returns artifacts as data: URLs and stores nothing.
type Inline struct{}

func (Inline) Put(_ context.Context, _, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("artifacts: empty %s payload", contentType)
	}
	return media.Fragment{ContentType: contentType, Data: data}.DataURL(), nil
}
