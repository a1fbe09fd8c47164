package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fpang/content-studio/internal/store"
)

// GET /api/history?type=image&favorites=true
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	favorites, _ := strconv.ParseBool(q.Get("favorites"))
	respondJSON(w, http.StatusOK, map[string]any{
		"items": s.library.History(q.Get("type"), favorites),
	})
}

// DELETE /api/history
// Favorites survive a clear.
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	removed, err := s.library.ClearHistory(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// POST /api/history/{itemID}/favorite
func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	favorite, err := s.library.ToggleFavorite(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"isFavorite": favorite})
}

// DELETE /api/history/{itemID}
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.library.DeleteHistory(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/prompts?category=image
func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"prompts": s.library.Prompts(r.URL.Query().Get("category")),
	})
}

// POST /api/prompts
func (s *Server) handleSavePrompt(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text     string `json:"text"`
		Category string `json:"category"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	p, err := s.library.SavePrompt(r.Context(), body.Text, body.Category)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// DELETE /api/prompts/{promptID}
func (s *Server) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	if err := s.library.DeletePrompt(r.Context(), chi.URLParam(r, "promptID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settingsResponse struct {
	store.UserSettings
	HasAPIKey bool `json:"hasApiKey"`
}

// redacted never echoes the stored API key back to the browser.
func redacted(s store.UserSettings) settingsResponse {
	out := settingsResponse{UserSettings: s, HasAPIKey: s.APIKey != ""}
	out.APIKey = ""
	return out
}

// GET /api/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, redacted(s.library.Settings()))
}

// PUT /api/settings
// A blank apiKey keeps the stored one; clearApiKey removes it.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		store.UserSettings
		ClearAPIKey bool `json:"clearApiKey"`
		HasAPIKey   bool `json:"hasApiKey"`
	}
	current := s.library.Settings()
	body.UserSettings = current
	if !decodeJSON(w, r, &body) {
		return
	}

	next := body.UserSettings
	switch {
	case body.ClearAPIKey:
		next.APIKey = ""
	case next.APIKey == "":
		next.APIKey = current.APIKey
	}
	if err := s.library.UpdateSettings(r.Context(), next); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, redacted(next))
}
