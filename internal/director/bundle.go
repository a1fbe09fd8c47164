package director

import (
	"archive/zip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/media"
)

// ZipMethodZstd is the ZIP compression method ID for Zstandard
// (APPNOTE 6.3.7). Readers need a matching decompressor, see
// OpenBundle.
const ZipMethodZstd uint16 = zstd.ZipMethodWinZip

// Bundle entry names.
const (
	BundleEDL       = "edit.edl"
	BundleScript    = "script.txt"
	BundleAnalysis  = "analysis.json"
	BundleNarration = "narration.wav"
)

// WriteBundle writes the project as a zstd-compressed ZIP: the EDL, the
// shooting script, the analysis as JSON, storyboard and thumbnail images
// that are held inline, and the narration audio when present. Images held
// behind remote URLs stay referenced from analysis.json only.
func WriteBundle(w io.Writer, project Project) error {
	a := project.Analysis
	if a == nil {
		return ErrNotAnalyzed
	}

	edl, err := EDL(a)
	if err != nil {
		return fmt.Errorf("build EDL: %w", err)
	}
	analysisJSON, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	script := project.ScriptText
	if script == "" {
		script = Script(a)
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(ZipMethodZstd, zstd.ZipCompressor(zstd.WithEncoderLevel(zstd.SpeedBetterCompression)))

	now := time.Now()
	add := func(name string, data []byte) error {
		header := &zip.FileHeader{
			Name:     name,
			Method:   ZipMethodZstd,
			Modified: now,
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return nil
	}

	if err := add(BundleEDL, []byte(edl)); err != nil {
		return err
	}
	if err := add(BundleScript, []byte(script)); err != nil {
		return err
	}
	if err := add(BundleAnalysis, analysisJSON); err != nil {
		return err
	}

	names := make(map[string]bool, len(a.Storyboard))
	for i, f := range a.Storyboard {
		contentType, data, ok := decodeDataURL(f.ImageURL)
		if !ok {
			continue
		}
		stem := "storyboard/frame-" + safeName(f.ID)
		// Ids that differ only in unsafe characters share a stem.
		for n := i + 1; names[stem+media.ExtensionFor(contentType)]; n++ {
			stem = fmt.Sprintf("storyboard/frame-%s-%d", safeName(f.ID), n)
		}
		name := stem + media.ExtensionFor(contentType)
		names[name] = true
		if err := add(name, data); err != nil {
			return err
		}
	}
	if contentType, data, ok := decodeDataURL(project.ThumbnailURL); ok {
		if err := add("thumbnail"+media.ExtensionFor(contentType), data); err != nil {
			return err
		}
	}
	if len(project.NarrationAudio) > 0 {
		if err := add(BundleNarration, project.NarrationAudio); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish bundle: %w", err)
	}
	log.Debug().Int("frames", len(a.Storyboard)).Msg("Director bundle written")
	return nil
}

// OpenBundle opens a bundle written by WriteBundle.
func OpenBundle(r io.ReaderAt, size int64) (*zip.Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	zr.RegisterDecompressor(ZipMethodZstd, zstd.ZipDecompressor())
	return zr, nil
}

// decodeDataURL splits a base64 data: URL. Anything else reports false.
func decodeDataURL(ref string) (string, []byte, bool) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return "", nil, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, false
	}
	contentType, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, false
	}
	return contentType, data, true
}

func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
