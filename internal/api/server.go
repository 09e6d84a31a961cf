package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/tocgen/internal/config"
	"github.com/dgallion1/tocgen/internal/stats"
	"github.com/dgallion1/tocgen/internal/toc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for tocgen.
type Server struct {
	router chi.Router
	opts   toc.Options
	stats  *stats.Window
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server. cfg must be valid.
func NewServer(cfg config.Config, log *slog.Logger) *Server {
	s := &Server{
		opts:  cfg.TOC(),
		stats: stats.NewWindow(cfg.Server.StatsWindow),
		log:   log,
		cfg:   cfg,
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

	r.Group(func(r chi.Router) {
		if s.cfg.Server.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.Server.APIKey, s.log))
		}

		r.Post("/api/toc", s.handleTOC)
		r.Post("/api/outline", s.handleOutline)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
