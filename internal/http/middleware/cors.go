package middleware

import (
	"net/http"
	"strings"

	"github.com/codex-k8s/toolgate-mcp-server/internal/execctx"
)

// MCP transport headers.
const (
	SessionIDHeader       = "Mcp-Session-Id"
	ProtocolVersionHeader = "Mcp-Protocol-Version"
)

var (
	corsAllowHeaders  = strings.Join([]string{"Content-Type", execctx.CorrelationHeader, SessionIDHeader, ProtocolVersionHeader}, ", ")
	corsAllowMethods  = "GET, POST, DELETE, OPTIONS"
	corsExposeHeaders = strings.Join([]string{execctx.CorrelationHeader, SessionIDHeader}, ", ")
)

// CORS sets cross-origin headers for requests without an Origin, for any origin
// when origins is empty, and for listed origins otherwise. Preflight requests
// are answered with 204.
func CORS(origins []string) Middleware {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[origin] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			_, listed := allowed[origin]
			if origin == "" || len(allowed) == 0 || listed {
				value := origin
				if value == "" {
					value = "*"
				}
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", value)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
				if origin != "" {
					h.Add("Vary", "Origin")
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
