// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring tool execution.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/gate"
)

// ToolBuckets covers tool latencies from 5ms to 2 minutes.
var ToolBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolgate_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolgate_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// ToolExecutionsTotal counts tool calls by name and outcome.
	ToolExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolgate_tool_executions_total",
			Help: "Tool executions",
		},
		[]string{"tool", "outcome"},
	)

	// ToolDuration records tool call duration in seconds, queueing included.
	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolgate_tool_duration_seconds",
			Help:    "Tool call duration",
			Buckets: ToolBuckets,
		},
		[]string{"tool"},
	)

	// RateLimitRejectedTotal counts requests rejected by the per-client limiter.
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "toolgate_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ToolExecutionsTotal,
		ToolDuration,
		RateLimitRejectedTotal,
	)
}

// ToolRecorder records tool outcomes into the package metrics.
type ToolRecorder struct{}

// RecordTool implements the registry metrics hook.
func (ToolRecorder) RecordTool(tool, outcome string, duration time.Duration) {
	ToolExecutionsTotal.WithLabelValues(tool, outcome).Inc()
	ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// GateStater exposes gate usage.
type GateStater interface {
	Stats() gate.Stats
}

var (
	gateActiveDesc   = prometheus.NewDesc("toolgate_gate_active", "Execution slots in use", nil, nil)
	gateQueuedDesc   = prometheus.NewDesc("toolgate_gate_queued", "Callers waiting for an execution slot", nil, nil)
	gateCapacityDesc = prometheus.NewDesc("toolgate_gate_capacity", "Execution slot limit", nil, nil)
)

// GateCollector exports gate usage as gauges at scrape time.
type GateCollector struct {
	source GateStater
}

// NewGateCollector returns a collector reading from source.
func NewGateCollector(source GateStater) *GateCollector {
	return &GateCollector{source: source}
}

// Describe implements prometheus.Collector.
func (c *GateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- gateActiveDesc
	ch <- gateQueuedDesc
	ch <- gateCapacityDesc
}

// Collect implements prometheus.Collector.
func (c *GateCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(gateActiveDesc, prometheus.GaugeValue, float64(stats.Active))
	ch <- prometheus.MustNewConstMetric(gateQueuedDesc, prometheus.GaugeValue, float64(stats.Queued))
	ch <- prometheus.MustNewConstMetric(gateCapacityDesc, prometheus.GaugeValue, float64(stats.Capacity))
}
