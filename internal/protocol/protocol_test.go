package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/deadline"
	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/gate"
)

func TestFromErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    Kind
		code    int64
		message string
	}{
		{name: "queue full", err: gate.ErrConcurrencyLimit, kind: KindBusy, code: CodeServerBusy, message: MessageBusy},
		{name: "cancelled waiting", err: gate.ErrCancelledWhileWaiting, kind: KindAborted, code: CodeRequestTimeout, message: MessageAborted},
		{name: "cancelled after settlement", err: deadline.ErrCancelledByCaller, kind: KindAborted, code: CodeRequestTimeout, message: MessageAborted},
		{name: "timeout", err: fmt.Errorf("run: %w", deadline.ErrTimeout), kind: KindTimeout, code: CodeRequestTimeout, message: MessageTimeout},
		{name: "handler error", err: errors.New("disk full"), kind: KindInternal, code: CodeInternalError, message: "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromError(tt.err, "corr-1")

			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, tt.code, perr.Code)
			assert.Equal(t, tt.message, perr.Message)
			assert.Equal(t, "corr-1", perr.CorrelationID)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestFromErrorTimeoutIsNotAborted(t *testing.T) {
	var perr *Error
	require.ErrorAs(t, FromError(deadline.ErrTimeout, ""), &perr)
	assert.NotEqual(t, KindAborted, perr.Kind)
}

func TestFromErrorPassesProtocolErrorsThrough(t *testing.T) {
	native := New(KindInvalidParams, "bad input")
	got := FromError(native, "corr-2")

	var perr *Error
	require.ErrorAs(t, got, &perr)
	assert.Equal(t, CodeInvalidParams, perr.Code)
	assert.Equal(t, "bad input", perr.Message)
	assert.Equal(t, "corr-2", perr.CorrelationID)
	assert.Empty(t, native.CorrelationID)

	wire := &jsonrpc.Error{Code: -32050, Message: "custom"}
	assert.Same(t, wire, FromError(wire, "corr-3"))
	assert.Nil(t, FromError(nil, "corr"))
}

func TestErrorWire(t *testing.T) {
	wire := FromError(gate.ErrConcurrencyLimit, "corr-9").(*Error).Wire()

	assert.Equal(t, CodeServerBusy, wire.Code)
	assert.Equal(t, MessageBusy, wire.Message)

	var data map[string]any
	require.NoError(t, json.Unmarshal(wire.Data, &data))
	assert.Equal(t, "corr-9", data["correlationId"])
	assert.Equal(t, "busy", data["kind"])
	assert.Equal(t, true, data["retryable"])
}

func TestToWire(t *testing.T) {
	assert.Nil(t, ToWire(nil))

	plain := errors.New("plain")
	assert.Equal(t, plain, ToWire(plain))

	var wire *jsonrpc.Error
	require.ErrorAs(t, ToWire(New(KindTimeout, MessageTimeout)), &wire)
	assert.Equal(t, CodeRequestTimeout, wire.Code)
}

func TestWriteHTTPError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTPError(rec, http.StatusTooManyRequests, CodeInternalError, "Rate limit exceeded", nil)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2.0", body["jsonrpc"])
	assert.Nil(t, body["id"])
	errObj := body["error"].(map[string]any)
	assert.Equal(t, float64(CodeInternalError), errObj["code"])
	assert.Equal(t, "Rate limit exceeded", errObj["message"])
}
