// Package media turns uploaded images, video and audio into model-ready
// fragments. Images and audio pass through unchanged; video is reduced to a
// handful of still frames by a Sampler.
package media

import (
	"mime"
	"path/filepath"
	"strings"
)

// Kind is the coarse media class of an upload.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// SupportedImageExtensions maps image file extensions to content types.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
}

// SupportedVideoExtensions maps video file extensions to content types.
var SupportedVideoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

// SupportedAudioExtensions maps audio file extensions to content types.
var SupportedAudioExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

// preferredExtensions disambiguates content types listed under several extensions.
var preferredExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"video/mp4":  ".mp4",
	"audio/ogg":  ".ogg",
}

// KindOf classifies a declared content type. Parameters such as
// "; codecs=opus" are ignored. Anything outside image/*, video/* and
// audio/* yields *UnsupportedKindError.
func KindOf(contentType string) (Kind, error) {
	mediaType := baseType(contentType)
	major, _, _ := strings.Cut(mediaType, "/")
	switch major {
	case "image":
		return KindImage, nil
	case "video":
		return KindVideo, nil
	case "audio":
		return KindAudio, nil
	}
	return "", &UnsupportedKindError{ContentType: contentType}
}

// ContentTypeForPath resolves a content type from a file extension. Video
// wins over audio for containers both can hold (.webm).
func ContentTypeForPath(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, table := range []map[string]string{SupportedImageExtensions, SupportedVideoExtensions, SupportedAudioExtensions} {
		if ct, ok := table[ext]; ok {
			return ct, true
		}
	}
	return "", false
}

// ExtensionFor returns a file extension (with dot) for a content type, or
// ".bin" when none is known.
func ExtensionFor(contentType string) string {
	mediaType := baseType(contentType)
	if ext, ok := preferredExtensions[mediaType]; ok {
		return ext
	}
	for _, table := range []map[string]string{SupportedImageExtensions, SupportedVideoExtensions, SupportedAudioExtensions} {
		best := ""
		for ext, ct := range table {
			if ct == mediaType && (best == "" || ext < best) {
				best = ext
			}
		}
		if best != "" {
			return best
		}
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func baseType(contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}
