package filter

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

// gradient builds a w x h image where every pixel is distinct.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 50), B: uint8(200 - x*10 - y*5), A: 255})
		}
	}
	return img
}

func TestIdentityRenderIsPixelExact(t *testing.T) {
	src := gradient(7, 5)
	out, err := Render(src, Identity())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Equal(out.Pix, src.Pix) {
		t.Error("identity config changed pixels")
	}
	if out == src {
		t.Error("Render must return a new canvas")
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	src := gradient(9, 6)
	cfg := Config{Brightness: 120, Contrast: 80, Saturate: 150, Grayscale: 20, Sepia: 30, Hue: 45, Blur: 1.2, Rotation: 30, ScaleX: -1, ScaleY: 1}

	a, err := Render(src, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, err := Render(src, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("two renders with the same config differ")
	}
}

func TestRenderDoesNotModifySource(t *testing.T) {
	src := gradient(6, 4)
	before := append([]byte(nil), src.Pix...)
	cfg := Identity()
	cfg.Sepia, cfg.Rotation = 100, 90
	if _, err := Render(src, cfg); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Equal(src.Pix, before) {
		t.Error("source pixels changed")
	}
}

func TestGrayscale(t *testing.T) {
	cfg := Identity()
	cfg.Grayscale = 100
	out, err := Render(gradient(8, 8), cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] != out.Pix[i+1] || out.Pix[i+1] != out.Pix[i+2] {
			t.Fatalf("pixel %d not gray: %v", i/4, out.Pix[i:i+4])
		}
	}
}

func TestBrightnessZeroKeepsAlpha(t *testing.T) {
	src := gradient(3, 3)
	src.Pix[3] = 128
	cfg := Identity()
	cfg.Brightness = 0
	out, err := Render(src, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 0 || out.Pix[i+1] != 0 || out.Pix[i+2] != 0 {
			t.Fatalf("pixel %d not black: %v", i/4, out.Pix[i:i+4])
		}
	}
	if out.Pix[3] != 128 {
		t.Errorf("alpha = %d, want 128", out.Pix[3])
	}
}

func TestContrastAndSaturateOrder(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	cfg := Identity()
	cfg.Contrast = 0
	out, err := Render(src, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := out.NRGBAAt(0, 0); got.R != 128 || got.G != 128 || got.B != 128 {
		t.Errorf("contrast(0) = %v, want mid gray", got)
	}

	cfg = Identity()
	cfg.Saturate = 0
	out, err = Render(src, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := out.NRGBAAt(0, 0); got.R != got.G || got.G != got.B {
		t.Errorf("saturate(0) = %v, want gray", got)
	}
}

func TestMirror(t *testing.T) {
	src := gradient(5, 3)
	cfg := Identity()
	cfg.ScaleX = -1
	out, err := Render(src, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			if out.NRGBAAt(x, y) != src.NRGBAAt(4-x, y) {
				t.Fatalf("(%d,%d) = %v, want %v", x, y, out.NRGBAAt(x, y), src.NRGBAAt(4-x, y))
			}
		}
	}

	cfg = Identity()
	cfg.ScaleY = -1
	out, err = Render(src, cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.NRGBAAt(1, 0) != src.NRGBAAt(1, 2) {
		t.Error("vertical flip mismatch")
	}
}

func TestRotation(t *testing.T) {
	t.Run("180 keeps size", func(t *testing.T) {
		src := gradient(4, 2)
		cfg := Identity()
		cfg.Rotation = 180
		out, err := Render(src, cfg)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if out.Rect.Dx() != 4 || out.Rect.Dy() != 2 {
			t.Fatalf("size = %v", out.Rect)
		}
		if out.NRGBAAt(0, 0) != src.NRGBAAt(3, 1) {
			t.Error("180 rotation mismatch")
		}
	})

	t.Run("90 is clockwise", func(t *testing.T) {
		src := gradient(3, 3)
		cfg := Identity()
		cfg.Rotation = 90
		out, err := Render(src, cfg)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if out.NRGBAAt(2, 0) != src.NRGBAAt(0, 0) {
			t.Errorf("top-right = %v, want source top-left %v", out.NRGBAAt(2, 0), src.NRGBAAt(0, 0))
		}
	})

	t.Run("90 on landscape keeps canvas size", func(t *testing.T) {
		cfg := Identity()
		cfg.Rotation = 90
		out, err := Render(gradient(8, 4), cfg)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if out.Rect.Dx() != 8 || out.Rect.Dy() != 4 {
			t.Errorf("size = %v, want 8x4", out.Rect)
		}
		if out.NRGBAAt(0, 0).A != 0 {
			t.Error("uncovered corner should be transparent")
		}
	})

	t.Run("360 is identity", func(t *testing.T) {
		src := gradient(4, 3)
		cfg := Identity()
		cfg.Rotation = 360
		out, err := Render(src, cfg)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if !bytes.Equal(out.Pix, src.Pix) {
			t.Error("360 rotation changed pixels")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"identity", func(*Config) {}, true},
		{"max values", func(c *Config) { c.Brightness, c.Blur, c.Hue = 200, 10, 360 }, true},
		{"brightness", func(c *Config) { c.Brightness = 250 }, false},
		{"negative blur", func(c *Config) { c.Blur = -1 }, false},
		{"scale", func(c *Config) { c.ScaleX = 2 }, false},
		{"zero scale", func(c *Config) { c.ScaleY = 0 }, false},
		{"rotation", func(c *Config) { c.Rotation = 400 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Identity()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}

	if _, err := Render(gradient(2, 2), Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero config should be rejected, got %v", err)
	}
}

func TestRenderErrors(t *testing.T) {
	var renderErr *RenderError
	if _, err := Render(nil, Identity()); !errors.As(err, &renderErr) {
		t.Errorf("nil source: err = %v", err)
	}
	if _, err := Render(image.NewNRGBA(image.Rect(0, 0, 0, 5)), Identity()); !errors.As(err, &renderErr) {
		t.Errorf("empty source: err = %v", err)
	}
	if _, err := RenderBytes([]byte("not an image"), Identity(), FormatPNG); !errors.As(err, &renderErr) || renderErr.Op != "decode" {
		t.Errorf("garbage: err = %v", err)
	}
}

func TestRenderBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(6, 4)); err != nil {
		t.Fatal(err)
	}
	cfg := Identity()
	cfg.Sepia = 80

	for _, format := range []Format{FormatPNG, FormatJPEG} {
		t.Run(string(format), func(t *testing.T) {
			out, err := RenderBytes(buf.Bytes(), cfg, format)
			if err != nil {
				t.Fatalf("RenderBytes: %v", err)
			}
			img, got, err := image.Decode(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("decode output: %v", err)
			}
			if got != string(format) {
				t.Errorf("format = %q, want %q", got, format)
			}
			if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 4 {
				t.Errorf("size = %v", img.Bounds())
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"jpg": FormatJPEG, ".JPEG": FormatJPEG, "png": FormatPNG, "": FormatPNG, "webp": FormatPNG} {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPalette(t *testing.T) {
	img := imaging.New(64, 64, color.NRGBA{R: 255, A: 255})
	for y := 48; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{B: 255, A: 255})
		}
	}

	got := Palette(img, 5)
	if len(got) != 2 || got[0] != "#ff0000" || got[1] != "#0000ff" {
		t.Errorf("Palette = %v, want [#ff0000 #0000ff]", got)
	}
	if got := Palette(img, 1); len(got) != 1 {
		t.Errorf("Palette(n=1) = %v", got)
	}
	if Palette(nil, 3) != nil {
		t.Error("nil image should have no palette")
	}
}

func TestCSS(t *testing.T) {
	want := "brightness(100%) contrast(100%) grayscale(0%) sepia(0%) blur(0px) hue-rotate(0deg) saturate(100%)"
	if got := Identity().CSS(); got != want {
		t.Errorf("CSS() = %q", got)
	}
}
