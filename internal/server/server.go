// Package server exposes the audit over HTTP for upload-driven use.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/net/netutil"

	"github.com/ppiankov/billaudit/internal/model"
	"github.com/ppiankov/billaudit/internal/pipeline"
	"github.com/ppiankov/billaudit/internal/worker"
)

// Server serves the audit API
type Server struct {
	cfg      model.ServerConfig
	pipeline *pipeline.Pipeline
	workers  int
	limiter  *worker.Limiter
	log      *slog.Logger
}

// New creates a server auditing uploads with p, using workers goroutines per request
func New(cfg model.ServerConfig, p *pipeline.Pipeline, workers int, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		pipeline: p,
		workers:  workers,
		limiter:  worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		log:      log,
	}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()

	mux.Use(requestID)
	mux.Use(s.logRequests)
	if len(s.cfg.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader, "Content-Disposition"},
			MaxAge:         300,
		}))
	}

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/catalog", s.wrap(s.handleCatalog))
		rt.With(s.rateLimit).Post("/audits", s.wrap(s.handleAudit))
	})

	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln, capped at the configured connection limit
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConns)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", ln.Addr().String(), "max_conns", s.cfg.MaxConns)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
