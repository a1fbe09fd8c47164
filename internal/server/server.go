// Package server is the studio's HTTP API. The same router serves the
// standalone web binary and the Lambda function.
//
// Callers may send their own model credential in the X-Api-Key header; it
// wins over the key stored in the user's settings and the process key.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fpang/content-studio/internal/app"
	"github.com/fpang/content-studio/internal/artifacts"
	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/director"
	"github.com/fpang/content-studio/internal/media"
	"github.com/fpang/content-studio/internal/store"
)

// APIKeyHeader carries a caller-supplied model API key.
const APIKeyHeader = "X-Api-Key"

// Studio is the set of model operations the API exposes. *chat.Client
// implements it.
type Studio interface {
	director.Model
	Caption(ctx context.Context, req chat.CaptionRequest) (*chat.Caption, error)
	RefineCaption(ctx context.Context, req chat.CaptionRequest, previous *chat.Caption, feedback string) (*chat.Caption, error)
	EditImage(ctx context.Context, base media.Fragment, prompt string) (*chat.Image, error)
	GenerateVideo(ctx context.Context, req chat.VideoRequest) (*chat.Video, error)
	Transcribe(ctx context.Context, audio media.Fragment) (string, error)
	RunTool(ctx context.Context, tool chat.ToolType, input string, lang chat.Language) (string, error)
	EnhancePrompt(ctx context.Context, prompt string) (string, error)
	Converse(ctx context.Context, req chat.ConversationRequest) (string, error)
}

// ModelSource returns the model client for a request's API key, which is
// blank when the caller sent none.
type ModelSource func(ctx context.Context, apiKey string) (Studio, error)

// Server holds the components every handler shares.
type Server struct {
	ingestor    *media.Ingestor
	library     *store.Library
	sink        artifacts.Sink
	models      ModelSource
	newPipeline func(director.Model) *director.Pipeline
	sessions    *sessions
	origins     []string
	originKey   string
	maxUpload   int64
}

// Option configures a Server.
type Option func(*Server)

// WithModels replaces the model source, which defaults to the App's pool.
func WithModels(src ModelSource) Option {
	return func(s *Server) { s.models = src }
}

// WithMaxSessions bounds the number of live director sessions.
func WithMaxSessions(n int) Option {
	return func(s *Server) { s.sessions = newSessions(n) }
}

// WithOriginVerify requires every API call except health to carry secret
// in the X-Origin-Verify header, which a CDN in front of the API injects.
// An empty secret disables the check.
func WithOriginVerify(secret string) Option {
	return func(s *Server) { s.originKey = secret }
}

// New builds a Server over a's components.
func New(a *app.App, opts ...Option) *Server {
	s := &Server{
		ingestor:    a.Ingestor,
		library:     a.Library,
		sink:        a.Sink,
		newPipeline: a.NewPipeline,
		sessions:    newSessions(defaultMaxSessions),
		origins:     a.Config.Server.AllowedOrigins,
		maxUpload:   a.Config.Limits.MaxUploadBytes,
		models: func(ctx context.Context, apiKey string) (Studio, error) {
			c, err := a.Client(ctx, apiKey)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxUpload <= 0 {
		s.maxUpload = media.DefaultMaxBytes
	}
	return s
}

// Close ends every director session.
func (s *Server) Close() {
	s.sessions.closeAll()
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, withObservability, middleware.Recoverer, withCORS(s.origins))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(withOriginVerify(s.originKey))

			r.Post("/caption", s.handleCaption)
			r.Post("/caption/refine", s.handleRefineCaption)
			r.Post("/frames", s.handleFrames)
			r.Post("/filter", s.handleFilter)
			r.Post("/palette", s.handlePalette)
			r.Post("/transcribe", s.handleTranscribe)

			r.Post("/image", s.handleImage)
			r.Post("/image/edit", s.handleEditImage)
			r.Post("/video", s.handleVideo)
			r.Post("/speech", s.handleSpeech)
			r.Post("/tools/{tool}", s.handleTool)
			r.Post("/enhance", s.handleEnhance)
			r.Post("/chat", s.handleChat)

			r.Route("/director/sessions", func(r chi.Router) {
				r.Post("/", s.handleCreateSession)
				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/", s.handleGetSession)
					r.Delete("/", s.handleDeleteSession)
					r.Post("/video", s.handleLoadVideo)
					r.Post("/analyze", s.handleAnalyze)
					r.Post("/frames/{frameID}/render", s.handleRenderFrame)
					r.Post("/narrate", s.handleNarrate)
					r.Post("/thumbnail", s.handleThumbnail)
					r.Get("/edl", s.handleEDL)
					r.Get("/script", s.handleScript)
					r.Get("/bundle", s.handleBundle)
					r.Post("/save", s.handleSaveProject)
					r.Post("/restore", s.handleRestoreProject)
				})
			})

			r.Get("/history", s.handleListHistory)
			r.Delete("/history", s.handleClearHistory)
			r.Post("/history/{itemID}/favorite", s.handleToggleFavorite)
			r.Delete("/history/{itemID}", s.handleDeleteHistory)

			r.Get("/prompts", s.handleListPrompts)
			r.Post("/prompts", s.handleSavePrompt)
			r.Delete("/prompts/{promptID}", s.handleDeletePrompt)

			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handleUpdateSettings)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "content-studio",
	})
}

// studio resolves the model client for r, writing the error response on
// failure.
func (s *Server) studio(w http.ResponseWriter, r *http.Request) (Studio, bool) {
	m, err := s.models(r.Context(), r.Header.Get(APIKeyHeader))
	if err != nil {
		respondError(w, err)
		return nil, false
	}
	return m, true
}
