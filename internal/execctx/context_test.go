package execctx

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUsesHeaders(t *testing.T) {
	header := http.Header{}
	header.Set(CorrelationHeader, " corr-1 ")
	header.Set(RequestIDHeader, "req-9")

	ec := Build(header)

	assert.Equal(t, "corr-1", ec.CorrelationID)
	assert.Equal(t, "req-9", ec.RequestID)
	assert.False(t, ec.StartedAt.IsZero())
}

func TestBuildSkipsBlankHeaderValues(t *testing.T) {
	header := http.Header{}
	header.Add(CorrelationHeader, "  ")
	header.Add(CorrelationHeader, "second")

	assert.Equal(t, "second", Build(header).CorrelationID)
}

func TestBuildGeneratesIDs(t *testing.T) {
	ec := Build(nil)

	_, err := uuid.Parse(ec.CorrelationID)
	require.NoError(t, err)
	_, err = uuid.Parse(ec.RequestID)
	require.NoError(t, err)
	assert.NotEqual(t, ec.CorrelationID, ec.RequestID)
}

func TestWithAndFrom(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)
	assert.Empty(t, CorrelationID(context.Background()))

	ec := Context{CorrelationID: "c", RequestID: "r"}
	ctx := With(context.Background(), ec)

	got, ok := From(ctx)
	require.True(t, ok)
	assert.Equal(t, ec, got)
	assert.Equal(t, "c", CorrelationID(ctx))
}
