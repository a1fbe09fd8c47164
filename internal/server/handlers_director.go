package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/director"
	"github.com/fpang/content-studio/internal/media"
	"github.com/fpang/content-studio/internal/store"
)

type sessionResponse struct {
	ID      string            `json:"id"`
	State   string            `json:"state"`
	Project *director.Project `json:"project,omitempty"`
}

// pipeline looks up the session named in the path.
func (s *Server) pipeline(w http.ResponseWriter, r *http.Request) (*director.Pipeline, bool) {
	id := chi.URLParam(r, "sessionID")
	p, ok := s.sessions.get(id)
	if !ok {
		httpError(w, http.StatusNotFound, "director session not found")
		return nil, false
	}
	return p, true
}

// POST /api/director/sessions
// The session keeps the model client of the request that created it.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	model, ok := s.studio(w, r)
	if !ok {
		return
	}
	p := s.newPipeline(model)
	id := s.sessions.add(p)
	log.Info().Str("session", id).Msg("Director session created")
	respondJSON(w, http.StatusCreated, sessionResponse{ID: id, State: p.State().String()})
}

// GET /api/director/sessions/{sessionID}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}
	project := p.Snapshot()
	respondJSON(w, http.StatusOK, sessionResponse{
		ID:      chi.URLParam(r, "sessionID"),
		State:   p.State().String(),
		Project: &project,
	})
}

// DELETE /api/director/sessions/{sessionID}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.remove(chi.URLParam(r, "sessionID")) {
		httpError(w, http.StatusNotFound, "director session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/director/sessions/{sessionID}/video (multipart: video)
func (s *Server) handleLoadVideo(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}
	if !s.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	asset, err := s.ingestOne(r.Context(), r, "video", media.KindVideo)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := p.LoadFrames(asset.Fragments); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"state":  p.State().String(),
		"frames": len(asset.Fragments),
	})
}

// POST /api/director/sessions/{sessionID}/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}
	var body struct {
		Goal string `json:"goal"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	analysis, err := p.Analyze(r.Context(), body.Goal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, analysis)
}

// POST /api/director/sessions/{sessionID}/frames/{frameID}/render
func (s *Server) handleRenderFrame(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}
	frame, err := p.RenderFrame(r.Context(), chi.URLParam(r, "frameID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, frame)
}

// POST /api/director/sessions/{sessionID}/narrate
// Responds with the narration as WAV.
func (s *Server) handleNarrate(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}
	var body struct {
		Voice string `json:"voice"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	audio, err := p.Narrate(r.Context(), body.Voice)
	if err != nil {
		respondError(w, err)
		return
	}
	respondBytes(w, "audio/wav", audio)
}

// POST /api/director/sessions/{sessionID}/thumbnail
func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}
	url, err := p.RenderThumbnail(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// GET /api/director/sessions/{sessionID}/edl
func (s *Server) handleEDL(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}
	edl, err := director.EDL(p.Analysis())
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+director.BundleEDL+`"`)
	respondBytes(w, "text/plain; charset=utf-8", []byte(edl))
}

// GET /api/director/sessions/{sessionID}/script
func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}
	project := p.Snapshot()
	if project.Analysis == nil {
		respondError(w, director.ErrNotAnalyzed)
		return
	}
	respondBytes(w, "text/plain; charset=utf-8", []byte(project.ScriptText))
}

// GET /api/director/sessions/{sessionID}/bundle
func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := director.WriteBundle(&buf, p.Snapshot()); err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="director-%s.zip"`, chi.URLParam(r, "sessionID")))
	respondBytes(w, "application/zip", buf.Bytes())
}

// POST /api/director/sessions/{sessionID}/save
func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}
	if err := s.library.SaveProject(r.Context(), p.Snapshot()); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/director/sessions/{sessionID}/restore
func (s *Server) handleRestoreProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}
	project, found, err := s.library.LoadProject(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if !found {
		respondError(w, fmt.Errorf("saved project: %w", store.ErrNotFound))
		return
	}
	if err := p.Restore(project); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		ID:    chi.URLParam(r, "sessionID"),
		State: p.State().String(),
	})
}
