// Package api exposes the ingest pipeline, document store and
// relevance scorer over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ppb-analytics/ppbtree/internal/config"
	"github.com/ppb-analytics/ppbtree/internal/docstore"
	"github.com/ppb-analytics/ppbtree/internal/pipeline"
	"github.com/ppb-analytics/ppbtree/internal/relevance"
)

// Server is the HTTP API server for ppbtree.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        *docstore.Store
	scorer       *relevance.Runner
	stats        *relevance.Stats
	model        string
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. scorer and stats
// are nil when relevance scoring is not configured.
func NewServer(orch *pipeline.Orchestrator, store *docstore.Store, scorer *relevance.Runner, stats *relevance.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		store:        store,
		scorer:       scorer,
		stats:        stats,
		model:        cfg.AnthropicModel,
		log:          log,
		cfg:          cfg,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		r.Get("/api/documents/{docID}/tree", s.handleDocumentTree)
		r.Get("/api/documents/{docID}/entities", s.handleDocumentEntities)
		r.Get("/api/documents/{docID}/report", s.handleDocumentReport)

		r.Post("/api/relevance", s.handleRelevance)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
