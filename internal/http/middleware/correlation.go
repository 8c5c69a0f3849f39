package middleware

import (
	"net/http"
	"strings"

	"github.com/codex-k8s/toolgate-mcp-server/internal/execctx"
)

// Correlation reuses a non-blank X-Correlation-Id or assigns a new one. The id
// is written back to the request so tool calls see it, and echoed on the response.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(execctx.CorrelationHeader))
		if id == "" {
			id = execctx.NewID()
		}
		r.Header.Set(execctx.CorrelationHeader, id)
		w.Header().Set(execctx.CorrelationHeader, id)
		next.ServeHTTP(w, r)
	})
}
