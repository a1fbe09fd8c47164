package media

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// DefaultThumbnailMaxDimension bounds the longer side of history thumbnails.
const DefaultThumbnailMaxDimension = 256

// Thumbnail decodes an image and returns a JPEG no larger than
// maxDimension on either side. Images already inside the bound keep their
// size but are still re-encoded so every thumbnail has the same format.
func Thumbnail(data []byte, maxDimension int) ([]byte, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultThumbnailMaxDimension
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := thumbnailDimensions(bounds.Dx(), bounds.Dy(), maxDimension)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("image has no area (%dx%d)", bounds.Dx(), bounds.Dy())
	}
	if w != bounds.Dx() || h != bounds.Dy() {
		resized := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		img = resized
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(75)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	log.Debug().
		Int("orig_width", bounds.Dx()).
		Int("orig_height", bounds.Dy()).
		Int("width", w).
		Int("height", h).
		Int("size", buf.Len()).
		Msg("Thumbnail generated")
	return buf.Bytes(), nil
}

// thumbnailDimensions scales (width, height) so the longer side is at most
// maxDimension, keeping the aspect ratio.
func thumbnailDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}
	if width > height {
		return maxDimension, max(1, height*maxDimension/width)
	}
	return max(1, width*maxDimension/height), maxDimension
}

// ThumbnailDataURL returns a JPEG thumbnail of the first image fragment as
// a data URL, or "" when there is no decodable image.
func ThumbnailDataURL(fragments []Fragment) string {
	for _, f := range fragments {
		if kind, err := KindOf(f.ContentType); err != nil || kind != KindImage {
			continue
		}
		thumb, err := Thumbnail(f.Data, DefaultThumbnailMaxDimension)
		if err != nil {
			log.Debug().Err(err).Msg("Thumbnail skipped")
			return ""
		}
		return Fragment{ContentType: "image/jpeg", Data: thumb}.DataURL()
	}
	return ""
}
