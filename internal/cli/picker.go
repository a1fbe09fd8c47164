package cli

import (
	"errors"
	"sort"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/media"
)

// ErrPickCanceled is returned when the user closes the picker without
// choosing anything.
var ErrPickCanceled = errors.New("file selection canceled")

// PickerPatterns returns the glob patterns for the given media kinds, or
// for every kind when none is given.
func PickerPatterns(kinds ...media.Kind) []string {
	if len(kinds) == 0 {
		kinds = []media.Kind{media.KindImage, media.KindVideo, media.KindAudio}
	}
	tables := map[media.Kind]map[string]string{
		media.KindImage: media.SupportedImageExtensions,
		media.KindVideo: media.SupportedVideoExtensions,
		media.KindAudio: media.SupportedAudioExtensions,
	}
	seen := map[string]bool{}
	var patterns []string
	for _, k := range kinds {
		for ext := range tables[k] {
			p := "*" + ext
			if !seen[p] {
				seen[p] = true
				patterns = append(patterns, p)
			}
		}
	}
	sort.Strings(patterns)
	return patterns
}

// PickMedia opens the native file dialog. multiple allows selecting
// several files.
func PickMedia(title string, multiple bool, kinds ...media.Kind) ([]string, error) {
	opts := []zenity.Option{
		zenity.Title(title),
		zenity.FileFilters{
			{Name: "Media files", Patterns: PickerPatterns(kinds...)},
		},
	}

	var paths []string
	var err error
	if multiple {
		paths, err = zenity.SelectFileMultiple(opts...)
	} else {
		var path string
		path, err = zenity.SelectFile(opts...)
		if path != "" {
			paths = []string{path}
		}
	}
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return nil, ErrPickCanceled
		}
		log.Error().Err(err).Msg("File picker failed")
		return nil, err
	}

	log.Info().Int("count", len(paths)).Msg("Files picked via native dialog")
	return paths, nil
}

// PickSaveFile asks where to write an output file.
func PickSaveFile(title, filename string) (string, error) {
	path, err := zenity.SelectFileSave(
		zenity.Title(title),
		zenity.Filename(filename),
		zenity.ConfirmOverwrite(),
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return "", ErrPickCanceled
	}
	return path, err
}
