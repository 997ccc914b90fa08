package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/specgest/internal/config"
	"github.com/dgallion1/specgest/internal/extract"
	"github.com/dgallion1/specgest/internal/metrics"
	"github.com/dgallion1/specgest/internal/pipeline"
)

// Server is the HTTP API server for specgest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	metrics      *metrics.Metrics
	stats        *extract.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. m and stats may be nil.
func NewServer(orch *pipeline.Orchestrator, m *metrics.Metrics, stats *extract.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		metrics:      m,
		stats:        stats,
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
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.Server.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.Server.APIKey, s.log))
		}

		r.Post("/api/extract", s.handleExtract)
		r.Post("/api/extract/jobs", s.handleSubmitJob)
		r.Post("/api/extract/jobs/batch", s.handleSubmitBatch)
		r.Get("/api/extract/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/stats/extract", s.handleExtractStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
