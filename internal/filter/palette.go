package filter

import (
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"
)

// Palette returns up to n dominant colours of img as #rrggbb strings, most
// frequent first. Colours are bucketed at 4 bits per channel on a 64x64
// thumbnail and each bucket reports its mean colour. Mostly transparent
// pixels are ignored.
func Palette(img image.Image, n int) []string {
	if img == nil || n < 1 || img.Bounds().Empty() {
		return nil
	}
	thumb := imaging.Resize(img, 64, 64, imaging.Box)

	type bucket struct {
		key     uint16
		count   int
		r, g, b int
	}
	buckets := make(map[uint16]*bucket)
	for i := 0; i+3 < len(thumb.Pix); i += 4 {
		r, g, b, a := thumb.Pix[i], thumb.Pix[i+1], thumb.Pix[i+2], thumb.Pix[i+3]
		if a < 128 {
			continue
		}
		key := uint16(r>>4)<<8 | uint16(g>>4)<<4 | uint16(b>>4)
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{key: key}
			buckets[key] = bk
		}
		bk.count++
		bk.r += int(r)
		bk.g += int(g)
		bk.b += int(b)
	}

	ranked := make([]*bucket, 0, len(buckets))
	for _, bk := range buckets {
		ranked = append(ranked, bk)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})

	out := make([]string, 0, min(n, len(ranked)))
	for _, bk := range ranked[:min(n, len(ranked))] {
		out = append(out, fmt.Sprintf("#%02x%02x%02x", bk.r/bk.count, bk.g/bk.count, bk.b/bk.count))
	}
	return out
}
