// Package server exposes a node's catalog over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Aman-CERP/shardex/internal/catalog"
)

// Config holds HTTP server configuration.
type Config struct {
	// Addr is the address to listen on (e.g. "127.0.0.1:8080").
	Addr string

	// Catalog is the set of locally hosted indices served by this node.
	Catalog *catalog.Catalog

	// NodeID is reported by /health.
	NodeID string

	// ShutdownTimeout bounds graceful shutdown once the run context ends.
	ShutdownTimeout time.Duration

	// Logger for request logging. Nil uses slog.Default().
	Logger *slog.Logger
}

// Server routes HTTP requests to catalog operations.
type Server struct {
	cfg    Config
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a server for cfg.
func New(cfg Config) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger.With("component", "http"),
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{index}/_summary", s.handleSummary)
	// any method flushes
	s.mux.HandleFunc("/{index}/_flush", s.handleFlush)

	s.mux.HandleFunc("PUT /{index}", s.handleCreateIndex)
	s.mux.HandleFunc("DELETE /{index}", s.handleDeleteIndex)
	s.mux.HandleFunc("PUT /{index}/_doc/{id}", s.handleIndexDocument)
	s.mux.HandleFunc("POST /{index}/_doc/{id}", s.handleIndexDocument)
	s.mux.HandleFunc("DELETE /{index}/_doc/{id}", s.handleDeleteDocument)

	s.mux.HandleFunc("GET /_list", s.handleList)
	s.mux.HandleFunc("GET /_shards", s.handleShards)
	s.mux.HandleFunc("GET /_version", s.handleVersion)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Run listens on cfg.Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// In-flight requests get ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("http server starting", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, req)

		s.logger.Info("request",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", time.Since(start)))
	})
}
