// Package registry binds tool definitions to the MCP server through the
// admission and deadline pipeline of the executor.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/xeipuuv/gojsonschema"

	"github.com/codex-k8s/toolgate-mcp-server/internal/audit"
	"github.com/codex-k8s/toolgate-mcp-server/internal/execctx"
	"github.com/codex-k8s/toolgate-mcp-server/internal/protocol"
	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/executor"
	"github.com/codex-k8s/toolgate-mcp-server/internal/security"
)

var (
	// ErrInvalidDefinition is returned when a definition cannot be registered.
	ErrInvalidDefinition = errors.New("invalid tool definition")
	// ErrDuplicateTool is returned when a tool name is already registered.
	ErrDuplicateTool = errors.New("tool already registered")
	// ErrAbortedBeforeStart marks calls whose context ended before admission.
	ErrAbortedBeforeStart = errors.New("tool execution aborted before start")
	// ErrMissingStructuredContent marks handlers that violate their output schema.
	ErrMissingStructuredContent = errors.New("tool result is missing structured content")
	// ErrInvalidInput marks arguments rejected by the input schema.
	ErrInvalidInput = errors.New("invalid tool input")
	// ErrInvalidOutput marks structured content rejected by the output schema.
	ErrInvalidOutput = errors.New("invalid tool output")
)

// Handler runs one tool call. args holds the raw JSON arguments, already
// validated against the input schema.
type Handler func(ctx context.Context, args json.RawMessage, ec execctx.Context) (*mcp.CallToolResult, error)

// Definition declares a tool.
type Definition struct {
	// Name is the unique tool name.
	Name string
	// Title is a human-friendly name.
	Title string
	// Description explains the tool to the model.
	Description string
	// InputSchema is a JSON Schema object for arguments. Nil accepts any object.
	InputSchema map[string]any
	// OutputSchema is a JSON Schema object for structured content. When set,
	// handlers must return structured content.
	OutputSchema map[string]any
	// Annotations are optional behaviour hints.
	Annotations *mcp.ToolAnnotations
	// Timeout overrides the executor deadline when positive.
	Timeout time.Duration
	// Handler executes the tool.
	Handler Handler
}

// Recorder receives one observation per finished call.
type Recorder interface {
	RecordTool(tool, outcome string, duration time.Duration)
}

// Call outcomes reported to the Recorder.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeAborted  = "aborted"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid"
)

// UnknownTool is the Recorder tool label for calls naming an unregistered tool.
const UnknownTool = "unknown"


// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithAudit sets the audit sink.
func WithAudit(logger audit.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.audit = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder Recorder) Option {
	return func(r *Registry) {
		if recorder != nil {
			r.metrics = recorder
		}
	}
}

type entry struct {
	def    Definition
	input  *gojsonschema.Schema
	output *gojsonschema.Schema
}

// Registry owns the registered tools of one MCP server.
type Registry struct {
	server   *mcp.Server
	toolExec *executor.Executor
	logger   *slog.Logger
	audit    audit.Logger
	metrics  Recorder

	mu    sync.RWMutex
	tools map[string]entry
}

// New creates a registry that adds tools to server and runs them through toolExec.
// A nil server is allowed; tools are then only reachable through Invoke.
func New(server *mcp.Server, toolExec *executor.Executor, opts ...Option) *Registry {
	r := &Registry{
		server:   server,
		toolExec: toolExec,
		logger:   slog.New(slog.DiscardHandler),
		audit:    audit.Nop{},
		metrics:  nopRecorder{},
		tools:    make(map[string]entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates def and exposes it on the server.
func (r *Registry) Register(def Definition) error {
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if def.Handler == nil {
		return fmt.Errorf("%w: tool %q has no handler", ErrInvalidDefinition, def.Name)
	}
	if def.InputSchema == nil {
		def.InputSchema = map[string]any{"type": "object"}
	}
	if kind, _ := def.InputSchema["type"].(string); kind != "object" {
		return fmt.Errorf("%w: tool %q input schema must have type object", ErrInvalidDefinition, def.Name)
	}
	if def.OutputSchema != nil {
		if kind, ok := def.OutputSchema["type"]; ok && kind != "object" {
			return fmt.Errorf("%w: tool %q output schema must have type object", ErrInvalidDefinition, def.Name)
		}
	}
	input, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.InputSchema))
	if err != nil {
		return fmt.Errorf("%w: tool %q input schema: %v", ErrInvalidDefinition, def.Name, err)
	}
	outputSchema := advertisedOutputSchema(def.OutputSchema)
	var output *gojsonschema.Schema
	if outputSchema != nil {
		output, err = gojsonschema.NewSchema(gojsonschema.NewGoLoader(outputSchema))
		if err != nil {
			return fmt.Errorf("%w: tool %q output schema: %v", ErrInvalidDefinition, def.Name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}
	r.tools[def.Name] = entry{def: def, input: input, output: output}

	if r.server != nil {
		r.server.AddTool(&mcp.Tool{
			Name:         def.Name,
			Title:        def.Title,
			Description:  def.Description,
			InputSchema:  def.InputSchema,
			OutputSchema: outputSchema,
			Annotations:  def.Annotations,
		}, r.toolHandler(def.Name))
	}
	r.logger.Debug("tool registered", "tool", def.Name, "timeout", def.Timeout)
	return nil
}

// MustRegister registers def and panics on error.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var header map[string][]string
		if req.Extra != nil {
			header = req.Extra.Header
		}
		var args json.RawMessage
		if req.Params != nil {
			args = req.Params.Arguments
		}
		result, err := r.Invoke(ctx, name, args, execctx.Build(header))
		return result, protocol.ToWire(err)
	}
}

// Invoke runs the named tool under ec. Failures are returned as
// *protocol.Error or as protocol-native errors raised by the handler.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage, ec execctx.Context) (*mcp.CallToolResult, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		err := &protocol.Error{
			Kind:          protocol.KindInvalidParams,
			Code:          protocol.CodeMethodNotFound,
			Message:       fmt.Sprintf("Unknown tool %q", name),
			CorrelationID: ec.CorrelationID,
		}
		r.finish(ctx, name, UnknownTool, ec, err)
		return nil, err
	}

	ctx = execctx.With(ctx, ec)
	args = normalizeArguments(args)
	r.logger.Info("tool call",
		"tool", name,
		"correlation_id", ec.CorrelationID,
		"request_id", ec.RequestID,
		"args", redactedArguments(args),
	)
	r.audit.Record(ctx, audit.Event{Type: audit.TypeToolCall, Tool: name, CorrelationID: ec.CorrelationID, RequestID: ec.RequestID})

	result, err := r.call(ctx, tool, args, ec)
	r.finish(ctx, name, name, ec, err)
	if err != nil {
		return nil, protocol.FromError(err, ec.CorrelationID)
	}
	return result, nil
}

func (r *Registry) call(ctx context.Context, tool entry, args json.RawMessage, ec execctx.Context) (*mcp.CallToolResult, error) {
	if err := validate(tool.input, gojsonschema.NewBytesLoader(args), ErrInvalidInput); err != nil {
		return nil, protocol.Wrap(protocol.KindInvalidParams,
			fmt.Sprintf("Invalid arguments for tool %q: %v", tool.def.Name, err), err)
	}
	if ctx.Err() != nil {
		return nil, protocol.Wrap(protocol.KindAborted, protocol.MessageAbortedBeforeStart, ErrAbortedBeforeStart)
	}

	result, err := executor.RunWithTimeout(ctx, r.toolExec, tool.def.Timeout, func(ctx context.Context) (*mcp.CallToolResult, error) {
		return tool.def.Handler(ctx, args, ec)
	})
	if err != nil {
		return nil, err
	}
	result, err = normalize(tool.def, result, ec.CorrelationID)
	if err != nil {
		return nil, err
	}
	if tool.output != nil {
		if err := validate(tool.output, gojsonschema.NewGoLoader(result.StructuredContent), ErrInvalidOutput); err != nil {
			return nil, protocol.Wrap(protocol.KindInternal,
				fmt.Sprintf("Tool %q returned structuredContent that violates its output schema: %v", tool.def.Name, err), err)
		}
	}
	return result, nil
}

// finish records one call; label is the Recorder tool label.
func (r *Registry) finish(ctx context.Context, name, label string, ec execctx.Context, err error) {
	duration := time.Since(ec.StartedAt)
	outcome, eventType := classify(err)
	r.metrics.RecordTool(label, outcome, duration)

	event := audit.Event{Type: eventType, Tool: name, CorrelationID: ec.CorrelationID, RequestID: ec.RequestID, Duration: duration}
	if err != nil {
		event.Reason = err.Error()
		r.logger.Warn("tool call failed", "tool", name, "correlation_id", ec.CorrelationID, "outcome", outcome, "duration", duration, "error", err)
	} else {
		r.logger.Info("tool call completed", "tool", name, "correlation_id", ec.CorrelationID, "duration", duration)
	}
	r.audit.Record(ctx, event)
}

func classify(err error) (outcome, eventType string) {
	if err == nil {
		return OutcomeOK, audit.TypeToolOK
	}
	var perr *protocol.Error
	if !errors.As(protocol.FromError(err, ""), &perr) {
		return OutcomeError, audit.TypeToolError
	}
	switch perr.Kind {
	case protocol.KindBusy:
		return OutcomeRejected, audit.TypeToolRejected
	case protocol.KindTimeout:
		return OutcomeTimeout, audit.TypeToolTimeout
	case protocol.KindAborted:
		return OutcomeAborted, audit.TypeToolAborted
	case protocol.KindInvalidParams:
		return OutcomeInvalid, audit.TypeToolRejected
	default:
		return OutcomeError, audit.TypeToolError
	}
}

func normalizeArguments(args json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(args))
	if trimmed == "" || trimmed == "null" {
		return json.RawMessage("{}")
	}
	return args
}

func validate(schema *gojsonschema.Schema, document gojsonschema.JSONLoader, sentinel error) error {
	result, err := schema.Validate(document)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	if result.Valid() {
		return nil
	}
	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}
	return fmt.Errorf("%w: %s", sentinel, strings.Join(messages, "; "))
}

func redactedArguments(args json.RawMessage) any {
	var values map[string]any
	if err := json.Unmarshal(args, &values); err != nil {
		return "<unparsable>"
	}
	return security.RedactArguments(values)
}

type nopRecorder struct{}

func (nopRecorder) RecordTool(string, string, time.Duration) {}
