// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/actionplanner/launchkit/internal/export"
	"github.com/actionplanner/launchkit/internal/pipeline"
	"github.com/actionplanner/launchkit/internal/storage"
	"github.com/actionplanner/launchkit/internal/workflow"
)

// Workflow runs can take minutes of model time; the request timeout has to
// cover a full synchronous run.
const requestTimeout = 5 * time.Minute

// Deps are the collaborators the HTTP handlers need.
type Deps struct {
	Workflows  *workflow.Registry
	Controller *pipeline.Controller
	Store      storage.RunStore
	Exporter   *export.Exporter
}

type Server struct {
	Router *chi.Mux
	Port   int

	logger *slog.Logger
	deps   Deps
	http   *http.Server
}

// New builds the router with the standard middleware stack and mounts the
// v1 API.
func New(port int, logger *slog.Logger, deps Deps) *Server {
	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(requestTimeout))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "launchkit")
	})

	s := &Server{
		Router: r,
		Port:   port,
		logger: logger,
		deps:   deps,
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/workflows", s.handleListWorkflows)
		r.Post("/workflows/{workflow}/runs", s.handleCreateRun)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/handoffs/{stage}", s.handleGetHandoff)
		r.Get("/runs/{id}/assets", s.handleGetAssets)
		r.Post("/runs/{id}/export", s.handleExportRun)
	})

	return s
}

// Start begins serving and blocks until the listener closes. It returns
// nil after a graceful Shutdown.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Port),
		Handler: s.Router,
	}
	s.logger.Info("starting server", slog.Int("port", s.Port))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
