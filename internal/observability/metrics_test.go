package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/gate"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	h, ok := o.(prometheus.Histogram)
	require.True(t, ok)
	m := &dto.Metric{}
	require.NoError(t, h.Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestToolRecorder(t *testing.T) {
	counter := ToolExecutionsTotal.WithLabelValues("recorder_test", "ok")
	before := counterValue(t, counter)
	hist := ToolDuration.WithLabelValues("recorder_test")
	beforeCount := histogramCount(t, hist)

	ToolRecorder{}.RecordTool("recorder_test", "ok", 40*time.Millisecond)
	ToolRecorder{}.RecordTool("recorder_test", "ok", 10*time.Millisecond)

	assert.Equal(t, before+2, counterValue(t, counter))
	assert.Equal(t, beforeCount+2, histogramCount(t, hist))
}

func TestMetricsMiddleware(t *testing.T) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	counter := RequestsTotal.WithLabelValues(http.MethodPut, "4xx")
	before := counterValue(t, counter)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/mcp", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, counterValue(t, counter))
}

func TestStatusWriterDefaultsToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &StatusWriter{ResponseWriter: rec, Status: http.StatusOK}
	_, err := sw.Write([]byte("body"))
	require.NoError(t, err)
	sw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusOK, sw.Status)
	assert.Equal(t, rec, sw.Unwrap())
}

type fixedStats gate.Stats

func (f fixedStats) Stats() gate.Stats { return gate.Stats(f) }

func TestGateCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewGateCollector(fixedStats{Active: 2, Queued: 3, Capacity: 4}))

	families, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, family := range families {
		require.Len(t, family.GetMetric(), 1)
		got[family.GetName()] = family.GetMetric()[0].GetGauge().GetValue()
	}
	assert.Equal(t, map[string]float64{
		"toolgate_gate_active":   2,
		"toolgate_gate_queued":   3,
		"toolgate_gate_capacity": 4,
	}, got)
}

func TestGateCollectorReadsLiveGate(t *testing.T) {
	g := gate.New(1)
	slot, err := g.Acquire(t.Context())
	require.NoError(t, err)
	defer slot.Release()

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewGateCollector(g))
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() == "toolgate_gate_active" {
			assert.Equal(t, float64(1), family.GetMetric()[0].GetGauge().GetValue())
		}
	}
}
