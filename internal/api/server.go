// Package api exposes the copy queue over a small JSON HTTP interface so a
// headless run can be watched and steered remotely.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joe/media-sync/internal/syncengine"
)

// Server timeouts.
const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 2 * time.Minute
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Controller is the part of the Orchestrator the API drives.
type Controller interface {
	Plan(ctx context.Context) (*syncengine.Plan, error)
	Copy() error
	Pause()
	Skip()
	Snapshot() syncengine.Status
	Summary() syncengine.Summary
}

// Config holds API server configuration.
type Config struct {
	Listen string
}

// Server is the HTTP control surface.
type Server struct {
	config    Config
	ctrl      Controller
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a server for ctrl.
func New(config Config, ctrl Controller, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		ctrl:      ctrl,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Listen, err)
	}

	return s.Serve(ctx, listener)
}

// Serve is Start over an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.server = &http.Server{
		Handler:      s.setupRoutes(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	s.logger.Info("API server starting", "listen", listener.Addr().String())

	errCh := make(chan error, 1)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)
	r.Get("/summary", s.handleSummary)

	r.Post("/plan", s.handlePlan)
	r.Post("/copy", s.handleCopy)
	r.Post("/pause", s.handlePause)
	r.Post("/skip", s.handleSkip)

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
