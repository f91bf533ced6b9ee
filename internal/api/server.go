package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/config"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/llm"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/pipeline"
)

// Server is the HTTP API server for the summarizer.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	gemini       *llm.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, gemini *llm.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		gemini:       gemini,
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
		r.Use(AuthMiddleware(s.cfg.ServiceAPIKey, s.log))

		r.Post("/api/summarize", s.handleSummarize)
		r.Get("/api/summarize/{runID}/status", s.handleRunStatus)

		r.Get("/api/history", s.handleListHistory)
		r.Get("/api/history/export", s.handleExportHistory)
		r.Post("/api/history/import", s.handleImportHistory)
		r.Get("/api/history/{recordID}", s.handleGetRecord)
		r.Delete("/api/history/{recordID}", s.handleDeleteRecord)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
