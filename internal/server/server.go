package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/herd/internal/command"
	"github.com/me/herd/internal/config"
)

// Server is the herd REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	registry  *command.Registry
	runtime   *command.Runtime
}

// New creates a new Server with all routes registered. The registry is
// expected to be fully populated; nothing registers commands after
// startup.
func New(cfg config.ServerConfig, reg *command.Registry, rt *command.Runtime, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		registry:  reg,
		runtime:   rt,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		// Health
		r.Get("/health", s.handleHealth)

		// Command dispatch and registry introspection
		r.Route("/commands", func(r chi.Router) {
			r.Get("/", s.handleListGroups)
			r.Route("/{group}", func(r chi.Router) {
				r.Get("/", s.handleListCommands)
				r.Post("/{name}", s.handleDispatch)
			})
		})

		// Procedure polling for asynchronous dispatches
		r.Get("/procedures/{uuid}", s.handleGetProcedure)
	})
}
