// Package startup runs manifest startup hooks before the server accepts calls.
package startup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codex-k8s/toolgate-mcp-server/internal/manifest"
	"github.com/codex-k8s/toolgate-mcp-server/internal/tools/command"
)

// Run executes hooks sequentially and stops at the first failure.
func Run(ctx context.Context, hooks []manifest.HookConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for idx, hook := range hooks {
		if strings.TrimSpace(hook.Command) == "" {
			continue
		}
		if err := runHook(ctx, idx, hook, logger); err != nil {
			return err
		}
	}
	return nil
}

func runHook(ctx context.Context, idx int, hook manifest.HookConfig, logger *slog.Logger) error {
	timeout, err := hook.TimeoutDuration()
	if err != nil {
		return fmt.Errorf("startup hook %d: invalid timeout: %w", idx, err)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Info("running startup hook", "index", idx)
	cmd := command.Command{Command: hook.Command, Args: hook.Args, Env: hook.Env}
	res, err := cmd.Run(ctx, command.TemplateData{ToolName: "startup"})
	if err != nil {
		if res.Stderr != "" {
			logger.Error("startup hook failed", "index", idx, "stderr", res.Stderr)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("startup hook %d failed: %w", idx, ctx.Err())
		}
		return fmt.Errorf("startup hook %d failed: %w", idx, err)
	}
	if res.Stdout != "" {
		logger.Info("startup hook output", "index", idx, "output", res.Stdout)
	}
	return nil
}
