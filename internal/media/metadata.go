package media

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

// readImageInfo collects dimensions and EXIF fields. Missing or unreadable
// metadata is not an error; the upload is still usable.
func readImageInfo(name string, data []byte) *ImageInfo {
	info := &ImageInfo{}

	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		info.Width, info.Height, info.Format = cfg.Width, cfg.Height, format
	} else {
		log.Debug().Err(err).Str("name", name).Msg("Image header not decodable, dimensions unknown")
	}

	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Str("name", name).Msg("No EXIF metadata")
		return info
	}

	switch {
	case !exifData.DateTimeOriginal().IsZero():
		info.Taken = exifData.DateTimeOriginal()
	case !exifData.CreateDate().IsZero():
		info.Taken = exifData.CreateDate()
	case !exifData.ModifyDate().IsZero():
		info.Taken = exifData.ModifyDate()
	}

	info.CameraMake = strings.TrimSpace(exifData.Make)
	info.CameraModel = strings.TrimSpace(exifData.Model)

	if lat, lon := exifData.GPS.Latitude(), exifData.GPS.Longitude(); lat != 0 || lon != 0 {
		info.Latitude, info.Longitude = lat, lon
	}
	return info
}
