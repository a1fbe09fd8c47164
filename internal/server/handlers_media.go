package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/filter"
	"github.com/fpang/content-studio/internal/media"
	"github.com/fpang/content-studio/internal/store"
)

const (
	defaultPaletteColors = 5
	maxPaletteColors     = 16
)

// captionStyle starts from the defaults, applies the user's language and
// creativity settings, then the request's "style" field, and normalizes
// every choice to its canonical value.
func (s *Server) captionStyle(r *http.Request) (chat.CaptionStyle, error) {
	settings := s.library.Settings()
	style := chat.DefaultCaptionStyle()
	style.Language = settings.TargetLanguage
	style.Creativity = settings.Creativity
	if err := formJSON(r, "style", &style); err != nil {
		return style, err
	}

	var err error
	if style.Tone, err = chat.ParseTone(string(style.Tone)); err != nil {
		return style, err
	}
	if style.Platform, err = chat.ParsePlatform(string(style.Platform)); err != nil {
		return style, err
	}
	if style.Length, err = chat.ParseTextLength(string(style.Length)); err != nil {
		return style, err
	}
	if style.Emoji, err = chat.ParseEmojiDensity(string(style.Emoji)); err != nil {
		return style, err
	}
	if style.CallToAction, err = chat.ParseCallToAction(string(style.CallToAction)); err != nil {
		return style, err
	}
	if style.Language, err = chat.ParseLanguage(string(style.Language)); err != nil {
		return style, err
	}
	return style, style.Validate()
}

// POST /api/caption (multipart: media[], style)
func (s *Server) handleCaption(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	style, err := s.captionStyle(r)
	if err != nil {
		respondError(w, err)
		return
	}
	model, ok := s.studio(w, r)
	if !ok {
		return
	}
	assets, err := s.ingestField(r.Context(), r, "media")
	if err != nil {
		respondError(w, err)
		return
	}

	fragments := fragmentsOf(assets)
	caption, err := model.Caption(r.Context(), chat.CaptionRequest{Fragments: fragments, Style: style})
	if err != nil {
		respondError(w, err)
		return
	}
	s.record(r.Context(), store.HistoryItem{
		Type:      store.ItemCaption,
		Thumbnail: media.ThumbnailDataURL(fragments),
		Content:   caption.Primary,
		Metadata:  map[string]any{"platform": style.Platform, "hashtags": caption.Hashtags},
	})
	respondJSON(w, http.StatusOK, caption)
}

// POST /api/caption/refine (multipart: media[], style, previous, feedback)
func (s *Server) handleRefineCaption(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	style, err := s.captionStyle(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var previous *chat.Caption
	if err := formJSON(r, "previous", &previous); err != nil {
		respondError(w, err)
		return
	}
	model, ok := s.studio(w, r)
	if !ok {
		return
	}
	assets, err := s.ingestField(r.Context(), r, "media")
	if err != nil {
		respondError(w, err)
		return
	}

	req := chat.CaptionRequest{Fragments: fragmentsOf(assets), Style: style}
	caption, err := model.RefineCaption(r.Context(), req, previous, r.FormValue("feedback"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, caption)
}

// POST /api/frames (multipart: video)
func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	asset, err := s.ingestOne(r.Context(), r, "video", media.KindVideo)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"frames": asset.Fragments})
}

// POST /api/filter (multipart: image, preset or config, format)
// Responds with the rendered image.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	cfg := filter.Identity()
	if name := r.FormValue("preset"); name != "" {
		preset, ok := filter.Presets[name]
		if !ok {
			httpError(w, http.StatusBadRequest, fmt.Sprintf("unknown preset %q", name))
			return
		}
		cfg = preset
	}
	if err := formJSON(r, "config", &cfg); err != nil {
		respondError(w, err)
		return
	}
	if err := cfg.Validate(); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	asset, err := s.ingestOne(r.Context(), r, "image", media.KindImage)
	if err != nil {
		respondError(w, err)
		return
	}
	format := filter.ParseFormat(r.FormValue("format"))
	out, err := filter.RenderBytes(asset.Raw, cfg, format)
	if err != nil {
		respondError(w, err)
		return
	}
	respondBytes(w, format.ContentType(), out)
}

// POST /api/palette?n=5 (multipart: image)
func (s *Server) handlePalette(w http.ResponseWriter, r *http.Request) {
	n := defaultPaletteColors
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxPaletteColors {
			httpError(w, http.StatusBadRequest, fmt.Sprintf("n must be between 1 and %d", maxPaletteColors))
			return
		}
		n = v
	}
	if !s.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	asset, err := s.ingestOne(r.Context(), r, "image", media.KindImage)
	if err != nil {
		respondError(w, err)
		return
	}
	img, err := imaging.Decode(bytes.NewReader(asset.Raw), imaging.AutoOrientation(true))
	if err != nil {
		respondError(w, &filter.RenderError{Op: "decode", Err: err})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"colors": filter.Palette(img, n)})
}

// POST /api/transcribe (multipart: audio)
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	model, ok := s.studio(w, r)
	if !ok {
		return
	}
	asset, err := s.ingestOne(r.Context(), r, "audio", media.KindAudio)
	if err != nil {
		respondError(w, err)
		return
	}
	text, err := model.Transcribe(r.Context(), asset.Fragments[0])
	if err != nil {
		respondError(w, err)
		return
	}
	s.record(r.Context(), store.HistoryItem{
		Type:     store.ItemAudio,
		Content:  text,
		Metadata: map[string]any{"mode": "transcribe", "name": asset.Name},
	})
	respondJSON(w, http.StatusOK, map[string]string{"text": text})
}
