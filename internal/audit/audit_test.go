package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLoggerRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.New(slog.NewJSONHandler(&buf, nil)))

	logger.Record(context.Background(), Event{
		Type:          TypeToolTimeout,
		Tool:          "slow",
		CorrelationID: "corr-1",
		RequestID:     "req-1",
		Duration:      25 * time.Millisecond,
		Reason:        "Tool execution timed out",
	})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "audit", record["msg"])
	assert.Equal(t, TypeToolTimeout, record["type"])
	assert.Equal(t, "slow", record["tool"])
	assert.Equal(t, "corr-1", record["correlation_id"])
}

func TestSlogLoggerNilSafe(t *testing.T) {
	var l *SlogLogger
	assert.NotPanics(t, func() { l.Record(context.Background(), Event{Type: TypeToolOK}) })
	assert.NotPanics(t, func() { Nop{}.Record(context.Background(), Event{}) })
}
