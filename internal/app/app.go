// Package app wires the HTTP routes and middleware and controls the server lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codex-k8s/toolgate-mcp-server/internal/config"
	"github.com/codex-k8s/toolgate-mcp-server/internal/http/health"
	"github.com/codex-k8s/toolgate-mcp-server/internal/http/middleware"
	"github.com/codex-k8s/toolgate-mcp-server/internal/observability"
)

// HTTP server timeouts. WriteTimeout stays zero because MCP responses may stream.
const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// App controls the HTTP server lifecycle.
type App struct {
	baseCtx         context.Context
	server          *http.Server
	health          *health.Handler
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New builds the HTTP server around the MCP handler.
func New(baseCtx context.Context, cfg config.Config, mcpHandler http.Handler, stats health.StatsSource, logger *slog.Logger) (*App, error) {
	if mcpHandler == nil {
		return nil, fmt.Errorf("handler is nil")
	}
	if baseCtx == nil {
		return nil, fmt.Errorf("base context is nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	healthHandler := health.New(stats)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow(), cfg.TrustProxy)

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, middleware.Chain(limiter.Middleware, middleware.JSONRPC)(mcpHandler))
	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)
	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	var cors, logging middleware.Middleware
	if cfg.CORSEnabled {
		cors = middleware.CORS(cfg.CORSOrigins)
	}
	if cfg.LogRequests {
		logging = middleware.Logging(logger)
	}
	var metrics middleware.Middleware
	if cfg.MetricsEnabled {
		metrics = observability.MetricsMiddleware
	}
	handler := middleware.Chain(
		middleware.Recovery(logger),
		cors,
		middleware.Correlation,
		logging,
		metrics,
	)(mux)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	return &App{
		baseCtx:         baseCtx,
		server:          srv,
		health:          healthHandler,
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until ctx ends or the server fails.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx ends or the server fails.
func (a *App) Serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.health.SetReady()
		a.logger.Info("http server started", "addr", listener.Addr().String())
		errCh <- a.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
		return a.shutdown()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		a.logger.Error("http server error", "error", err)
		return err
	}
}

func (a *App) shutdown() error {
	a.health.SetNotReady()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.baseCtx), a.shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.logger.Info("http server stopped")
	return nil
}
