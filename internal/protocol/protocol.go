// Package protocol defines the failure taxonomy of tool calls and its
// JSON-RPC rendering.
package protocol

import (
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"

	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/deadline"
	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/gate"
)

// JSON-RPC error codes.
const (
	CodeParseError     int64 = -32700
	CodeInvalidRequest int64 = -32600
	CodeMethodNotFound int64 = -32601
	CodeInvalidParams  int64 = -32602
	CodeInternalError  int64 = -32603
	CodeServerBusy     int64 = -32000
	CodeRequestTimeout int64 = -32001
)

// Kind classifies a failed tool call.
type Kind string

// Failure kinds.
const (
	KindBusy          Kind = "busy"
	KindAborted       Kind = "aborted"
	KindTimeout       Kind = "timeout"
	KindInvalidParams Kind = "invalid_params"
	KindInternal      Kind = "internal"
)

// Messages used for well-known failures.
const (
	MessageBusy               = "Server is handling maximum concurrent tool executions. Retry shortly."
	MessageAborted            = "Tool execution aborted by client"
	MessageAbortedBeforeStart = "Tool execution aborted before start"
	MessageTimeout            = "Tool execution timed out"
	MessageUnknown            = "Unknown tool execution failure"
)

// Error is the normalized failure returned by the tool adapter.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// Code is the JSON-RPC error code.
	Code int64
	// Message is the caller-facing message.
	Message string
	// CorrelationID links the failure to its call.
	CorrelationID string
	cause         error
}

// New creates an Error of the given kind with the kind's default code.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Code: codeFor(kind), Message: message}
}

// Wrap creates an Error that unwraps to cause.
func Wrap(kind Kind, message string, cause error) *Error {
	e := New(kind, message)
	e.cause = cause
	return e
}

// Error implements error.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether the caller may retry the call as-is.
func (e *Error) Retryable() bool {
	return e.Kind == KindBusy
}

// WithCorrelation returns a copy tagged with correlationID.
func (e *Error) WithCorrelation(correlationID string) *Error {
	out := *e
	out.CorrelationID = correlationID
	return &out
}

// Data returns the structured error data sent on the wire.
func (e *Error) Data() map[string]any {
	data := map[string]any{"kind": string(e.Kind)}
	if e.CorrelationID != "" {
		data["correlationId"] = e.CorrelationID
	}
	if e.Retryable() {
		data["retryable"] = true
	}
	return data
}

// Wire renders the error as a JSON-RPC error.
func (e *Error) Wire() *jsonrpc.Error {
	raw, _ := json.Marshal(e.Data())
	return &jsonrpc.Error{Code: e.Code, Message: e.Message, Data: raw}
}

// FromError maps err onto the failure taxonomy. Errors that are already
// protocol-native pass through; *Error values without a correlation id are
// tagged with correlationID.
func FromError(err error, correlationID string) error {
	if err == nil {
		return nil
	}

	var perr *Error
	if errors.As(err, &perr) {
		if perr.CorrelationID == "" {
			return perr.WithCorrelation(correlationID)
		}
		return perr
	}
	var wire *jsonrpc.Error
	if errors.As(err, &wire) {
		return wire
	}

	var out *Error
	switch {
	case errors.Is(err, gate.ErrConcurrencyLimit):
		out = Wrap(KindBusy, MessageBusy, err)
	case errors.Is(err, deadline.ErrTimeout):
		out = Wrap(KindTimeout, MessageTimeout, err)
	case errors.Is(err, gate.ErrCancelledWhileWaiting), errors.Is(err, deadline.ErrCancelledByCaller):
		out = Wrap(KindAborted, MessageAborted, err)
	default:
		message := err.Error()
		if message == "" {
			message = MessageUnknown
		}
		out = Wrap(KindInternal, message, err)
	}
	out.CorrelationID = correlationID
	return out
}

// ToWire converts err into a JSON-RPC error for the MCP transport.
func ToWire(err error) error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Wire()
	}
	return err
}

func codeFor(kind Kind) int64 {
	switch kind {
	case KindBusy:
		return CodeServerBusy
	case KindAborted, KindTimeout:
		return CodeRequestTimeout
	case KindInvalidParams:
		return CodeInvalidParams
	default:
		return CodeInternalError
	}
}
