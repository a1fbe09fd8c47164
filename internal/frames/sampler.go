// Package frames reduces a video to a small set of evenly spaced still JPEG
// frames for multimodal model input.
package frames

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"github.com/fpang/content-studio/internal/media"
	"github.com/fpang/content-studio/internal/metrics"
)

const (
	DefaultWidth       = 480
	DefaultJPEGQuality = 60
)

// Sampler implements media.Sampler on top of a Decoder.
type Sampler struct {
	decoder Decoder
	width   int
	quality int
}

var _ media.Sampler = (*Sampler)(nil)

// Option configures a Sampler.
type Option func(*Sampler)

// WithWidth sets the output frame width; height follows the source aspect ratio.
func WithWidth(w int) Option {
	return func(s *Sampler) {
		if w > 0 {
			s.width = w
		}
	}
}

// WithJPEGQuality sets the output JPEG quality (1-100).
func WithJPEGQuality(q int) Option {
	return func(s *Sampler) {
		if q >= 1 && q <= 100 {
			s.quality = q
		}
	}
}

// NewSampler returns a Sampler reading through decoder.
func NewSampler(decoder Decoder, opts ...Option) *Sampler {
	s := &Sampler{decoder: decoder, width: DefaultWidth, quality: DefaultJPEGQuality}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SampleTimes returns n offsets splitting duration into n+1 equal intervals,
// so neither the very first nor the very last frame is taken.
func SampleTimes(duration float64, n int) []float64 {
	if n < 1 || duration <= 0 {
		return nil
	}
	interval := duration / float64(n+1)
	times := make([]float64, n)
	for i := range times {
		times[i] = interval * float64(i+1)
	}
	return times
}

// outputHeight keeps the source aspect ratio at the given width.
func outputHeight(info *VideoInfo, width int) int {
	h := int(math.Round(float64(info.Height) * float64(width) / float64(info.Width)))
	return max(h, 1)
}

// Sample decodes frameCount frames in playback order. Seeks run one at a
// time against a single session and a single scaling canvas. Any failure
// discards every frame produced so far; the session is always closed.
func (s *Sampler) Sample(ctx context.Context, video []byte, frameCount int) ([]media.Fragment, error) {
	if frameCount < 1 {
		return nil, &ExtractionError{Stage: StageRequest, Err: fmt.Errorf("frame count must be at least 1, got %d", frameCount)}
	}

	start := time.Now()
	session, err := s.decoder.Open(ctx, video)
	if err != nil {
		return nil, &ExtractionError{Stage: StageOpen, Err: err}
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close decode session")
		}
	}()

	info, err := session.Probe(ctx)
	if err != nil {
		return nil, &ExtractionError{Stage: StageMetadata, Err: err}
	}
	if info.Duration <= 0 || info.Width <= 0 || info.Height <= 0 {
		return nil, &ExtractionError{Stage: StageMetadata, Err: fmt.Errorf("unusable video metadata: %.2fs %dx%d", info.Duration, info.Width, info.Height)}
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, s.width, outputHeight(info, s.width)))
	times := SampleTimes(info.Duration, frameCount)
	out := make([]media.Fragment, 0, len(times))

	for _, t := range times {
		if err := ctx.Err(); err != nil {
			return nil, &ExtractionError{Stage: StageSeek, Offset: t, Err: err}
		}

		frame, err := session.Frame(ctx, t)
		if err != nil {
			return nil, &ExtractionError{Stage: StageSeek, Offset: t, Err: err}
		}
		draw.CatmullRom.Scale(canvas, canvas.Bounds(), frame, frame.Bounds(), draw.Src, nil)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(s.quality)); err != nil {
			return nil, &ExtractionError{Stage: StageEncode, Offset: t, Err: err}
		}
		out = append(out, media.Fragment{ContentType: "image/jpeg", Data: buf.Bytes(), Offset: t})
	}

	metrics.FramesSampled.Add(float64(len(out)))
	log.Debug().
		Int("frames", len(out)).
		Float64("duration_s", info.Duration).
		Int("width", canvas.Rect.Dx()).
		Int("height", canvas.Rect.Dy()).
		Dur("elapsed", time.Since(start)).
		Msg("Video sampled")
	return out, nil
}
