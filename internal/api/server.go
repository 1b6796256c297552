// Package api exposes the ingestion and question-answering HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"guiderag/internal/config"
	"guiderag/internal/ingest"
	"guiderag/internal/retrieval"
	"guiderag/internal/vectorstore"
)

// Authenticator exchanges credentials for a content-source token.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
}

// VectorIndex is the read-only index surface the listing and stats
// endpoints use.
type VectorIndex interface {
	Count(ctx context.Context) (int, error)
	Scroll(ctx context.Context, offset json.RawMessage, limit int) ([]vectorstore.Point, json.RawMessage, error)
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	query    *retrieval.Service
	ingester ingest.GuideIngester
	manager  *ingest.Manager
	throttle *ingest.Throttle
	auth     Authenticator
	index    VectorIndex
	log      *slog.Logger
	cfg      config.Config
}

func NewServer(
	query *retrieval.Service,
	ingester ingest.GuideIngester,
	manager *ingest.Manager,
	throttle *ingest.Throttle,
	auth Authenticator,
	index VectorIndex,
	log *slog.Logger,
	cfg config.Config,
) *Server {
	s := &Server{
		query:    query,
		ingester: ingester,
		manager:  manager,
		throttle: throttle,
		auth:     auth,
		index:    index,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(CORS(s.cfg.AllowedOrigins))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/auth", s.handleAuth)
		r.Post("/api/chat", s.handleChat)

		r.Post("/api/ingest/guide", s.handleIngestGuide)
		r.Post("/api/ingest/site", s.handleIngestSite)
		r.Post("/api/ingest/site/pause", s.handlePauseSite)
		r.Get("/api/ingest/site/status", s.handleSiteStatus)

		r.Get("/api/guides", s.handleListGuides)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func jsonResponse(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonResponse(w, code, map[string]string{"error": msg})
}
