package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Fragment is one model-ready piece of an upload: the whole image or audio
// payload, or one still frame sampled from a video.
type Fragment struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
	// Offset is the playback position in seconds for video frames, 0 otherwise.
	Offset float64 `json:"offset,omitempty"`
}

// Encoded returns the payload as standard base64 without a data-URL prefix.
func (f Fragment) Encoded() string {
	return base64.StdEncoding.EncodeToString(f.Data)
}

// DataURL returns the payload as a data: URL.
func (f Fragment) DataURL() string {
	return "data:" + f.ContentType + ";base64," + f.Encoded()
}

// Sampler reduces a video to frameCount still JPEG fragments, in playback
// order. It must fail as a whole: either every frame or an error.
type Sampler interface {
	Sample(ctx context.Context, video []byte, frameCount int) ([]Fragment, error)
}

// ImageInfo is best-effort metadata read from an image upload.
type ImageInfo struct {
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	Format      string    `json:"format,omitempty"`
	Taken       time.Time `json:"taken,omitzero"`
	CameraMake  string    `json:"cameraMake,omitempty"`
	CameraModel string    `json:"cameraModel,omitempty"`
	Latitude    float64   `json:"latitude,omitempty"`
	Longitude   float64   `json:"longitude,omitempty"`
}

// Asset is an ingested upload. Raw keeps the original bytes so the upload
// can be previewed or re-sampled; Fragments is what the model sees.
type Asset struct {
	Name        string
	Kind        Kind
	ContentType string
	Raw         []byte
	Fragments   []Fragment
	Image       *ImageInfo
}

// Preview is a temporary on-disk copy of an asset for players and viewers
// that need a path. Release removes it; calling Release again is a no-op.
type Preview struct {
	Path string

	dir  string
	once sync.Once
	err  error
}

// OpenPreview writes the raw bytes to a fresh temporary file.
func (a *Asset) OpenPreview() (*Preview, error) {
	dir, err := os.MkdirTemp("", "studio-preview-*")
	if err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}
	path := filepath.Join(dir, "preview"+ExtensionFor(a.ContentType))
	if err := os.WriteFile(path, a.Raw, 0o600); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("write preview: %w", err)
	}
	return &Preview{Path: path, dir: dir}, nil
}

// Release deletes the preview file.
func (p *Preview) Release() error {
	p.once.Do(func() {
		p.err = os.RemoveAll(p.dir)
	})
	return p.err
}
