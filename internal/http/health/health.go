// Package health serves liveness and readiness probes.
package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/gate"
)

// StatsSource reports execution gate usage.
type StatsSource interface {
	Stats() gate.Stats
}

// Status is the probe response body.
type Status struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Uptime     string      `json:"uptime"`
	Executions *gate.Stats `json:"executions,omitempty"`
}

// Handler serves /healthz and /readyz.
type Handler struct {
	ready   atomic.Bool
	started time.Time
	stats   StatsSource
}

// New returns a health handler. stats may be nil.
func New(stats StatsSource) *Handler {
	return &Handler{started: time.Now(), stats: stats}
}

// SetReady marks the handler as ready.
func (h *Handler) SetReady() {
	h.ready.Store(true)
}

// SetNotReady marks the handler as not ready.
func (h *Handler) SetNotReady() {
	h.ready.Store(false)
}

// Healthz handles liveness probes.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, "ok")
}

// Readyz handles readiness probes.
func (h *Handler) Readyz(w http.ResponseWriter, _ *http.Request) {
	if h.ready.Load() {
		h.write(w, http.StatusOK, "ready")
		return
	}
	h.write(w, http.StatusServiceUnavailable, "not ready")
}

func (h *Handler) write(w http.ResponseWriter, code int, status string) {
	body := Status{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}
	if h.stats != nil {
		stats := h.stats.Stats()
		body.Executions = &stats
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
