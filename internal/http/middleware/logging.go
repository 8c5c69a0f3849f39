package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/codex-k8s/toolgate-mcp-server/internal/execctx"
	"github.com/codex-k8s/toolgate-mcp-server/internal/observability"
)

// Logging emits one structured entry per request: info below 400, warn for
// 4xx, error for 5xx.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			logger.DebugContext(ctx, "request started", "method", r.Method, "path", r.URL.Path)

			sw := &observability.StatusWriter{ResponseWriter: w, Status: http.StatusOK}
			next.ServeHTTP(sw, r)

			level := slog.LevelInfo
			switch {
			case sw.Status >= 500:
				level = slog.LevelError
			case sw.Status >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(ctx, level, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.Status),
				slog.Duration("duration", time.Since(start)),
				slog.String("correlation_id", r.Header.Get(execctx.CorrelationHeader)),
				slog.String("remote_addr", ClientAddress(r)),
			)
		})
	}
}
