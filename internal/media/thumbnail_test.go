package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"landscape", 400, 200, 100, 100, 50},
		{"portrait", 90, 300, 150, 45, 150},
		{"already small", 40, 30, 256, 40, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Thumbnail(encodePNG(t, tt.w, tt.h), tt.max)
			if err != nil {
				t.Fatalf("Thumbnail() error = %v", err)
			}
			cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("thumbnail is not a JPEG: %v", err)
			}
			if cfg.Width != tt.wantW || cfg.Height != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", cfg.Width, cfg.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	if _, err := Thumbnail([]byte("not an image"), 64); err == nil {
		t.Error("Thumbnail() accepted undecodable data")
	}
}

func TestThumbnailDataURL(t *testing.T) {
	pic := Fragment{ContentType: "image/png", Data: encodePNG(t, 300, 100)}
	clip := Fragment{ContentType: "audio/mpeg", Data: []byte("ID3")}

	got := ThumbnailDataURL([]Fragment{clip, pic})
	if !strings.HasPrefix(got, "data:image/jpeg;base64,") {
		t.Errorf("ThumbnailDataURL() = %.40q, want a JPEG data URL", got)
	}
	if got := ThumbnailDataURL([]Fragment{clip}); got != "" {
		t.Errorf("ThumbnailDataURL(audio only) = %q, want empty", got)
	}
	if got := ThumbnailDataURL([]Fragment{{ContentType: "image/png", Data: []byte("junk")}}); got != "" {
		t.Errorf("ThumbnailDataURL(garbage) = %q, want empty", got)
	}
}
