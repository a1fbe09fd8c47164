package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/auth"
	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/director"
	"github.com/fpang/content-studio/internal/filter"
	"github.com/fpang/content-studio/internal/frames"
	"github.com/fpang/content-studio/internal/media"
	"github.com/fpang/content-studio/internal/store"
)

// maxJSONBody bounds JSON request bodies. Chat attachments ride inline, so
// it is generous.
const maxJSONBody = 32 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func respondBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Debug().Err(err).Msg("Failed to write response body")
	}
}

// httpError sends a sanitized error response to the client. Internal
// details go to the log only.
func httpError(w http.ResponseWriter, status int, clientMsg string, internalDetails ...string) {
	if len(internalDetails) > 0 {
		log.Warn().
			Int("status", status).
			Str("clientMsg", clientMsg).
			Str("detail", internalDetails[0]).
			Msg("HTTP error")
	}
	respondJSON(w, status, map[string]string{"error": clientMsg})
}

// respondError maps a component error onto a status and a message the
// client can act on.
func respondError(w http.ResponseWriter, err error) {
	status, msg := classify(err)
	if status >= 500 {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	httpError(w, status, msg, err.Error())
}

func classify(err error) (int, string) {
	var (
		unsupported *media.UnsupportedKindError
		readErr     *media.ReadError
		extractErr  *frames.ExtractionError
		renderErr   *filter.RenderError
		requestErr  *chat.RequestError
		decodeErr   *chat.DecodeError
		authErr     *auth.ValidationError
	)
	switch {
	case errors.As(err, &unsupported):
		return http.StatusUnsupportedMediaType, unsupported.Error()
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "upload too large"
	case errors.Is(err, media.ErrEmptyMedia):
		return http.StatusBadRequest, "upload is empty"
	case errors.As(err, &readErr):
		return http.StatusBadRequest, "could not read upload"
	case errors.Is(err, media.ErrNoSampler):
		return http.StatusServiceUnavailable, "video sampling is not available"
	case errors.As(err, &extractErr):
		return http.StatusUnprocessableEntity, "could not extract frames from video"
	case errors.As(err, &renderErr):
		return http.StatusUnprocessableEntity, "could not render image"
	case errors.Is(err, chat.ErrInvalidRequest), errors.Is(err, store.ErrInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrNoAPIKey), errors.As(err, &authErr):
		return http.StatusUnauthorized, "model API key missing or rejected"
	case errors.As(err, &decodeErr):
		return http.StatusBadGateway, "model returned an unusable response"
	case errors.As(err, &requestErr):
		if requestErr.StatusCode == http.StatusTooManyRequests {
			return http.StatusTooManyRequests, "model quota exceeded"
		}
		return http.StatusBadGateway, "model request failed"
	case errors.Is(err, director.ErrBusy), errors.Is(err, director.ErrRenderInFlight):
		return http.StatusConflict, err.Error()
	case errors.Is(err, director.ErrStale):
		return http.StatusConflict, err.Error()
	case errors.Is(err, director.ErrNoFrames), errors.Is(err, director.ErrNotAnalyzed), errors.Is(err, director.ErrNoNarration):
		return http.StatusConflict, err.Error()
	case errors.Is(err, director.ErrFrameNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, director.ErrClosed):
		return http.StatusGone, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		httpError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return false
	}
	return true
}

// formJSON decodes an optional JSON-valued multipart field.
func formJSON(r *http.Request, field string, v any) error {
	raw := r.FormValue(field)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: field %s: %v", chat.ErrInvalidRequest, field, err)
	}
	return nil
}
