package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/codex-k8s/toolgate-mcp-server/internal/execctx"
	"github.com/codex-k8s/toolgate-mcp-server/internal/protocol"
)

// Recovery converts handler panics into a JSON-RPC internal error with HTTP 500.
// The server keeps serving after a recovered panic.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				correlationID := r.Header.Get(execctx.CorrelationHeader)
				logger.ErrorContext(r.Context(), "panic recovered",
					"panic", fmt.Sprint(rec),
					"method", r.Method,
					"path", r.URL.Path,
					"correlation_id", correlationID,
				)
				var data any
				if correlationID != "" {
					data = map[string]any{"correlationId": correlationID}
				}
				protocol.WriteHTTPError(w, http.StatusInternalServerError, protocol.CodeInternalError, "Internal server error", data)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
