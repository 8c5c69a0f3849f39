package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event types.
const (
	TypeToolCall     = "tool_call"
	TypeToolOK       = "tool_ok"
	TypeToolError    = "tool_error"
	TypeToolTimeout  = "tool_timeout"
	TypeToolAborted  = "tool_aborted"
	TypeToolRejected = "tool_rejected"
)

// Event represents an audit entry for one stage of a tool call.
type Event struct {
	// Type describes the event kind.
	Type string
	// Tool is the tool name.
	Tool string
	// CorrelationID links related events.
	CorrelationID string
	// RequestID identifies the inbound request.
	RequestID string
	// Duration is the time spent since the call started.
	Duration time.Duration
	// Reason provides additional context.
	Reason string
}

// Logger records audit events.
type Logger interface {
	// Record stores an audit event.
	Record(ctx context.Context, event Event)
}

// SlogLogger writes audit events to slog.
type SlogLogger struct {
	logger *slog.Logger
}

// New returns a SlogLogger.
func New(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// Record logs an audit event. Failures are logged at warn level.
func (l *SlogLogger) Record(ctx context.Context, event Event) {
	if l == nil || l.logger == nil {
		return
	}
	level := slog.LevelInfo
	switch event.Type {
	case TypeToolError, TypeToolTimeout, TypeToolRejected:
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(ctx, level, "audit",
		slog.String("type", event.Type),
		slog.String("tool", event.Tool),
		slog.String("correlation_id", event.CorrelationID),
		slog.String("request_id", event.RequestID),
		slog.Duration("duration", event.Duration),
		slog.String("reason", event.Reason),
	)
}

// Nop discards audit events.
type Nop struct{}

// Record implements Logger.
func (Nop) Record(context.Context, Event) {}
