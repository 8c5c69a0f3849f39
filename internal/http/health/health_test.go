package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/gate"
)

func probe(t *testing.T, fn http.HandlerFunc) (int, Status) {
	t.Helper()
	rec := httptest.NewRecorder()
	fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHealthz(t *testing.T) {
	h := New(gate.New(3))

	code, body := probe(t, h.Healthz)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	require.NotNil(t, body.Executions)
	assert.Equal(t, 3, body.Executions.Capacity)
}

func TestReadyzFollowsState(t *testing.T) {
	h := New(nil)

	code, body := probe(t, h.Readyz)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body.Status)
	assert.Nil(t, body.Executions)

	h.SetReady()
	code, _ = probe(t, h.Readyz)
	assert.Equal(t, http.StatusOK, code)

	h.SetNotReady()
	code, _ = probe(t, h.Readyz)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
