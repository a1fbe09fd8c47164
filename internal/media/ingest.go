package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultFrameCount is how many stills a video is reduced to.
	DefaultFrameCount = 6
	// DefaultMaxBytes bounds a single upload.
	DefaultMaxBytes int64 = 200 << 20
)

// Ingestor converts uploads into Assets.
type Ingestor struct {
	sampler    Sampler
	frameCount int
	maxBytes   int64
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithFrameCount sets the number of frames sampled from each video.
func WithFrameCount(n int) Option {
	return func(in *Ingestor) {
		if n > 0 {
			in.frameCount = n
		}
	}
}

// WithMaxBytes sets the upload size limit.
func WithMaxBytes(n int64) Option {
	return func(in *Ingestor) {
		if n > 0 {
			in.maxBytes = n
		}
	}
}

// NewIngestor returns an Ingestor that samples video with sampler. A nil
// sampler is allowed for image and audio-only use.
func NewIngestor(sampler Sampler, opts ...Option) *Ingestor {
	in := &Ingestor{
		sampler:    sampler,
		frameCount: DefaultFrameCount,
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// FrameCount reports how many frames a video is sampled into.
func (in *Ingestor) FrameCount() int {
	return in.frameCount
}

// Ingest reads one upload with a declared content type. Images and audio
// become a single fragment carrying the original bytes; video becomes the
// sampler's still frames. On any failure the returned asset is nil.
func (in *Ingestor) Ingest(ctx context.Context, name, contentType string, r io.Reader) (*Asset, error) {
	kind, err := KindOf(contentType)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, in.maxBytes+1))
	if err != nil {
		return nil, &ReadError{Name: name, Err: err}
	}
	if int64(len(data)) > in.maxBytes {
		return nil, &ReadError{Name: name, Err: fmt.Errorf("%w (%d bytes)", ErrTooLarge, in.maxBytes)}
	}

	return in.ingestBytes(ctx, name, kind, contentType, data)
}

// IngestFile reads a file from disk. The content type comes from the file
// extension, falling back to content sniffing.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (*Asset, error) {
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, &ReadError{Name: name, Err: err}
	}
	if info.IsDir() {
		return nil, &ReadError{Name: name, Err: errors.New("path is a directory")}
	}
	if info.Size() > in.maxBytes {
		return nil, &ReadError{Name: name, Err: fmt.Errorf("%w (%d > %d bytes)", ErrTooLarge, info.Size(), in.maxBytes)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Name: name, Err: err}
	}
	if len(data) == 0 {
		return nil, ErrEmptyMedia
	}

	contentType, ok := ContentTypeForPath(path)
	if !ok {
		contentType = http.DetectContentType(data)
	}
	kind, err := KindOf(contentType)
	if err != nil {
		return nil, err
	}
	return in.ingestBytes(ctx, name, kind, contentType, data)
}

func (in *Ingestor) ingestBytes(ctx context.Context, name string, kind Kind, contentType string, data []byte) (*Asset, error) {
	if len(data) == 0 {
		return nil, ErrEmptyMedia
	}

	start := time.Now()
	asset := &Asset{
		Name:        name,
		Kind:        kind,
		ContentType: contentType,
		Raw:         data,
	}

	switch kind {
	case KindVideo:
		if in.sampler == nil {
			return nil, ErrNoSampler
		}
		frames, err := in.sampler.Sample(ctx, data, in.frameCount)
		if err != nil {
			return nil, err
		}
		asset.Fragments = frames
	case KindImage:
		asset.Image = readImageInfo(name, data)
		asset.Fragments = []Fragment{{ContentType: contentType, Data: data}}
	default:
		asset.Fragments = []Fragment{{ContentType: contentType, Data: data}}
	}

	log.Info().
		Str("name", name).
		Str("kind", string(kind)).
		Str("content_type", contentType).
		Int("size_bytes", len(data)).
		Int("fragments", len(asset.Fragments)).
		Dur("duration", time.Since(start)).
		Msg("Media ingested")
	return asset, nil
}

// SniffContentType reports the content type of data, used when an upload
// arrives without one.
func SniffContentType(data []byte) string {
	return http.DetectContentType(data[:min(len(data), 512)])
}
