package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/codex-k8s/toolgate-mcp-server/internal/observability"
	"github.com/codex-k8s/toolgate-mcp-server/internal/protocol"
)

// idleWindows is how many windows a client may stay silent before its limiter is dropped.
const idleWindows = 10

// RateLimitHeader reports the per-window request budget.
const RateLimitHeader = "X-Rate-Limit-Limit"

type clientState struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows limit requests per window for each client address.
type RateLimiter struct {
	limit      int
	window     time.Duration
	trustProxy bool
	now        func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientState
	lastSweep time.Time
}

// NewRateLimiter returns a limiter with a token bucket of size limit refilled
// evenly over window. With trustProxy the first X-Forwarded-For hop identifies
// the client; otherwise the connection's remote host does.
func NewRateLimiter(limit int, window time.Duration, trustProxy bool) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:      limit,
		window:     window,
		trustProxy: trustProxy,
		now:        time.Now,
		clients:    make(map[string]*clientState),
	}
}

// Allow reports whether a request from key may proceed.
func (l *RateLimiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	state := l.clients[key]
	if state == nil {
		state = &clientState{
			limiter: rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit),
		}
		l.clients[key] = state
	}
	state.lastSeen = now
	return state.limiter.AllowN(now, 1)
}

// Clients returns the number of tracked client addresses.
func (l *RateLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	idle := l.window * idleWindows
	for key, state := range l.clients {
		if now.Sub(state.lastSeen) > idle {
			delete(l.clients, key)
		}
	}
}

// Middleware rejects requests over budget with 429 and a JSON-RPC error.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	limit := strconv.Itoa(l.limit)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(RateLimitHeader, limit)
		if !l.Allow(l.clientKey(r)) {
			observability.RateLimitRejectedTotal.Inc()
			protocol.WriteHTTPError(w, http.StatusTooManyRequests, protocol.CodeInternalError, "Rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) clientKey(r *http.Request) string {
	if l.trustProxy {
		if forwarded := ForwardedFor(r); forwarded != "" {
			return forwarded
		}
	}
	return ClientAddress(r)
}

// ForwardedFor returns the first X-Forwarded-For hop, or "" when absent.
func ForwardedFor(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	return strings.TrimSpace(first)
}

// ClientAddress returns the remote host of the connection.
func ClientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return "unknown"
		}
		return r.RemoteAddr
	}
	return host
}
