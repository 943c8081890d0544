// Package server exposes the merge engine as a JSON service over HTTP, next
// to health, readiness and Prometheus endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
	"github.com/Sumatoshi-tech/v8cov/pkg/version"
)

// Route paths.
const (
	PathMergeProcesses = "/v1/merge/processes"
	PathMergeScripts   = "/v1/merge/scripts"
	PathMergeFunctions = "/v1/merge/functions"
	PathHealth         = "/healthz"
	PathReady          = "/readyz"
	PathMetrics        = "/metrics"
)

// Server timeouts used when Options leaves them unset.
const (
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address used by ListenAndServe.
	Addr string
	// MaxBodyBytes bounds request bodies. Zero means no limit.
	MaxBodyBytes uint64
	// Validate rejects structurally invalid coverage with 400.
	Validate bool
	// Workers bounds the goroutines of a process merge. Zero means one per CPU.
	Workers int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Logger       *slog.Logger
	Tracer       trace.Tracer
	RED          *observability.REDMetrics
	MergeMetrics *observability.MergeMetrics
	// Metrics serves PathMetrics when non-nil.
	Metrics http.Handler
	// ReadyChecks gate PathReady in addition to the built-in checks.
	ReadyChecks []observability.ReadyCheck
}

// Server is the merge HTTP service.
type Server struct {
	opts    Options
	handler http.Handler
	// draining is set once Serve begins shutting down.
	draining atomic.Bool
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Tracer == nil {
		opts.Tracer = nooptrace.NewTracerProvider().Tracer("v8cov")
	}

	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}

	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}

	srv := &Server{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathMergeProcesses, srv.handleMergeProcesses)
	mux.HandleFunc("POST "+PathMergeScripts, srv.handleMergeScripts)
	mux.HandleFunc("POST "+PathMergeFunctions, srv.handleMergeFunctions)
	mux.Handle("GET "+PathHealth, observability.HealthHandler(version.Version))
	mux.Handle("GET "+PathReady, observability.ReadyHandler(srv.readyChecks()...))

	if opts.Metrics != nil {
		mux.Handle("GET "+PathMetrics, opts.Metrics)
	}

	srv.handler = observability.HTTPMiddleware(opts.Tracer, opts.RED, mux)

	return srv
}

// Handler returns the root handler with tracing and RED metrics applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe listens on Options.Addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}

	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is canceled, then shuts down
// gracefully, letting in-flight merges finish.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.opts.Logger.Handler(), slog.LevelWarn),
	}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	s.opts.Logger.InfoContext(ctx, "server listening", "addr", listener.Addr().String())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownTimeout)
	defer cancel()

	s.draining.Store(true)
	s.opts.Logger.InfoContext(ctx, "server shutting down")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	<-serveErr

	return nil
}
