// Package execctx derives the per-call execution context of a tool invocation.
package execctx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Header names carrying call metadata.
const (
	CorrelationHeader = "X-Correlation-Id"
	RequestIDHeader   = "X-Request-Id"
)

// Context identifies one tool call. The cancellation signal is the
// context.Context the call runs under.
type Context struct {
	// CorrelationID is caller-supplied or generated and stable for the call.
	CorrelationID string
	// RequestID identifies the inbound request.
	RequestID string
	// StartedAt is when the context was built.
	StartedAt time.Time
}

// Build derives an execution context from inbound request headers.
func Build(header http.Header) Context {
	return Context{
		CorrelationID: headerOr(header, CorrelationHeader, NewID),
		RequestID:     headerOr(header, RequestIDHeader, NewID),
		StartedAt:     time.Now().UTC(),
	}
}

// NewID returns a random identifier.
func NewID() string {
	return uuid.NewString()
}

func headerOr(header http.Header, key string, fallback func() string) string {
	if header != nil {
		for _, value := range header.Values(key) {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return fallback()
}

type contextKey struct{}

// With stores ec in ctx.
func With(ctx context.Context, ec Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ec)
}

// From returns the execution context stored in ctx.
func From(ctx context.Context) (Context, bool) {
	ec, ok := ctx.Value(contextKey{}).(Context)
	return ec, ok
}

// CorrelationID returns the correlation id stored in ctx, or an empty string.
func CorrelationID(ctx context.Context) string {
	ec, _ := From(ctx)
	return ec.CorrelationID
}
