package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codex-k8s/toolgate-mcp-server/configs"
	"github.com/codex-k8s/toolgate-mcp-server/internal/app"
	"github.com/codex-k8s/toolgate-mcp-server/internal/audit"
	"github.com/codex-k8s/toolgate-mcp-server/internal/config"
	"github.com/codex-k8s/toolgate-mcp-server/internal/log"
	"github.com/codex-k8s/toolgate-mcp-server/internal/manifest"
	"github.com/codex-k8s/toolgate-mcp-server/internal/observability"
	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime"
	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/executor"
	"github.com/codex-k8s/toolgate-mcp-server/internal/startup"
)

// version is set at build time.
var version = "dev"

func main() {
	embeddedManifest := flag.String("embedded-manifest", "", "Use embedded tool manifest from configs/ (filename)")
	manifestPath := flag.String("manifest", "", "Path to a tool manifest (overrides TOOLS_MANIFEST)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *manifestPath != "" {
		cfg.ManifestPath = *manifestPath
	}

	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.Transport == config.TransportStdio {
		logger = log.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	}

	m, err := loadManifest(*embeddedManifest, cfg.ManifestPath)
	if err != nil {
		logger.Error("load manifest failed", "error", err)
		os.Exit(1)
	}

	toolExec := executor.New(executor.Options{
		MaxConcurrent: cfg.MaxConcurrentTools,
		Timeout:       cfg.ToolTimeout(),
	})
	builder := runtime.Builder{
		Name:     runtime.DefaultName,
		Version:  version,
		Executor: toolExec,
		Logger:   logger,
		Audit:    audit.New(logger),
	}
	if cfg.MetricsEnabled {
		builder.Metrics = observability.ToolRecorder{}
		prometheus.MustRegister(observability.NewGateCollector(toolExec))
	}
	server, reg, err := builder.Build(m)
	if err != nil {
		logger.Error("build server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("tools registered", "tools", reg.Names(), "max_concurrent", cfg.MaxConcurrentTools, "timeout", cfg.ToolTimeout())

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn("shutdown requested", "signal", sig.String())
		cancel()
	}()

	if m != nil {
		if err := startup.Run(baseCtx, m.StartupHooks, logger); err != nil {
			logger.Error("startup hooks failed", "error", err)
			os.Exit(1)
		}
	}

	switch cfg.Transport {
	case config.TransportStdio:
		err = runStdio(baseCtx, server)
	default:
		err = runHTTP(baseCtx, cfg, server, toolExec, logger)
	}
	if err != nil && baseCtx.Err() == nil {
		logger.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

func loadManifest(embedded, path string) (*manifest.Manifest, error) {
	switch {
	case embedded != "":
		raw, err := configs.Load(embedded)
		if err != nil {
			return nil, err
		}
		return manifest.LoadNamed(embedded, raw)
	case path != "":
		return manifest.LoadFile(path)
	default:
		return nil, nil
	}
}

func runStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func runHTTP(ctx context.Context, cfg config.Config, server *mcp.Server, toolExec *executor.Executor, logger *slog.Logger) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{
		Stateless: cfg.Stateless,
	})

	application, err := app.New(ctx, cfg, handler, toolExec, logger)
	if err != nil {
		return err
	}

	return application.Run(ctx)
}
