package filter

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/fpang/content-studio/internal/metrics"
)

// RenderError reports that the source could not be rasterized or encoded.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("filter render failed (%s): %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Render applies cfg to src and returns a new canvas with src's dimensions.
// The photometric chain runs first, in the order brightness, contrast,
// grayscale, sepia, blur, hue-rotate, saturate. The geometric transform
// (mirror, then clockwise rotation about the centre) runs on the filtered
// pixels. Corners uncovered by rotation are transparent. src is not modified.
func Render(src image.Image, cfg Config) (*image.NRGBA, error) {
	if src == nil {
		metrics.FilterRenders.WithLabelValues("error").Inc()
		return nil, &RenderError{Op: "source", Err: errors.New("no source image")}
	}
	b := src.Bounds()
	if b.Empty() {
		metrics.FilterRenders.WithLabelValues("error").Inc()
		return nil, &RenderError{Op: "source", Err: fmt.Errorf("source image has no area (%dx%d)", b.Dx(), b.Dy())}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	out := applyPhotometric(src, cfg)
	out = applyGeometry(out, cfg, b.Dx(), b.Dy())

	metrics.FilterRenders.WithLabelValues("success").Inc()
	return out, nil
}

// applyPhotometric runs the filter chain. Pixel-local functions on each side
// of the blur are fused into one pass; identity functions are skipped.
func applyPhotometric(src image.Image, cfg Config) *image.NRGBA {
	var before, after []rgbOp
	if cfg.Brightness != 100 {
		before = append(before, brightnessOp(cfg.Brightness/100))
	}
	if cfg.Contrast != 100 {
		before = append(before, contrastOp(cfg.Contrast/100))
	}
	if cfg.Grayscale != 0 {
		before = append(before, grayscaleMatrix(cfg.Grayscale/100).op())
	}
	if cfg.Sepia != 0 {
		before = append(before, sepiaMatrix(cfg.Sepia/100).op())
	}
	if hue := math.Mod(cfg.Hue, 360); hue != 0 {
		after = append(after, hueRotateMatrix(hue).op())
	}
	if cfg.Saturate != 100 {
		after = append(after, saturateMatrix(cfg.Saturate/100).op())
	}

	out := imaging.Clone(src)
	if len(before) > 0 {
		out = imaging.AdjustFunc(out, chain(before))
	}
	if cfg.Blur > 0 {
		out = imaging.Blur(out, cfg.Blur)
	}
	if len(after) > 0 {
		out = imaging.AdjustFunc(out, chain(after))
	}
	return out
}

func chain(ops []rgbOp) func(color.NRGBA) color.NRGBA {
	return func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
		for _, op := range ops {
			r, g, b = op(r, g, b)
		}
		return color.NRGBA{R: to8(r), G: to8(g), B: to8(b), A: c.A}
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}

// applyGeometry mirrors, then rotates clockwise about the centre, on a
// canvas of the original size.
func applyGeometry(img *image.NRGBA, cfg Config, w, h int) *image.NRGBA {
	rot := math.Mod(cfg.Rotation, 360)
	if cfg.ScaleX == 1 && cfg.ScaleY == 1 && rot == 0 {
		return img
	}

	if cfg.ScaleX < 0 {
		img = imaging.FlipH(img)
	}
	if cfg.ScaleY < 0 {
		img = imaging.FlipV(img)
	}
	if rot != 0 {
		// imaging turns counter-clockwise.
		img = imaging.Rotate(img, 360-rot, color.Transparent)
	}

	if img.Rect.Dx() == w && img.Rect.Dy() == h {
		return img
	}
	return imaging.PasteCenter(imaging.New(w, h, color.Transparent), img)
}

// Format names an output encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat accepts png, jpg and jpeg; anything else is png.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "jpg", "jpeg", "image/jpeg":
		return FormatJPEG
	default:
		return FormatPNG
	}
}

// ContentType is the MIME type of the encoding.
func (f Format) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// RenderBytes decodes an encoded image, renders it and re-encodes it.
func RenderBytes(data []byte, cfg Config, format Format) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		metrics.FilterRenders.WithLabelValues("error").Inc()
		return nil, &RenderError{Op: "decode", Err: err}
	}

	out, err := Render(src, cfg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	encFormat, opts := imaging.PNG, []imaging.EncodeOption{}
	if format == FormatJPEG {
		encFormat, opts = imaging.JPEG, append(opts, imaging.JPEGQuality(92))
	}
	if err := imaging.Encode(&buf, out, encFormat, opts...); err != nil {
		return nil, &RenderError{Op: "encode", Err: err}
	}
	return buf.Bytes(), nil
}
