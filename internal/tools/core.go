// Package tools provides the built-in tools of the server.
package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/toolgate-mcp-server/internal/execctx"
	"github.com/codex-k8s/toolgate-mcp-server/internal/registry"
	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/gate"
)

// Built-in tool names.
const (
	HealthCheckName = "health_check"
	EchoMessageName = "echo_message"
)

// StatsSource reports gate usage for health_check.
type StatsSource interface {
	Stats() gate.Stats
}

// HealthResult is the structured output of health_check.
type HealthResult struct {
	Status        string     `json:"status"`
	Timestamp     string     `json:"timestamp"`
	CorrelationID string     `json:"correlationId"`
	Executions    gate.Stats `json:"executions"`
}

// EchoInput is the input of echo_message.
type EchoInput struct {
	Message string `json:"message"`
}

// EchoResult is the structured output of echo_message.
type EchoResult struct {
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId"`
	ReceivedAt    string `json:"receivedAt"`
}

// Core returns the built-in tool definitions.
func Core(stats StatsSource) []registry.Definition {
	return []registry.Definition{
		HealthCheck(stats),
		EchoMessage(),
	}
}

// HealthCheck reports basic service health and gate usage.
func HealthCheck(stats StatsSource) registry.Definition {
	openWorld := false
	return registry.Definition{
		Name:        HealthCheckName,
		Title:       "Health Check",
		Description: "Provides basic service health metadata.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true, OpenWorldHint: &openWorld},
		Handler: func(_ context.Context, _ json.RawMessage, ec execctx.Context) (*mcp.CallToolResult, error) {
			result := HealthResult{
				Status:        "ok",
				Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
				CorrelationID: ec.CorrelationID,
			}
			if stats != nil {
				result.Executions = stats.Stats()
			}
			return registry.Structured("MCP server is healthy.", result), nil
		},
	}
}

// EchoMessage echoes the provided message.
func EchoMessage() registry.Definition {
	return registry.Definition{
		Name:        EchoMessageName,
		Title:       "Echo Message",
		Description: "Echoes the provided message payload.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
		InputSchema: map[string]any{
			"type":     "object",
			"required": []any{"message"},
			"properties": map[string]any{
				"message": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Message to echo in the response body.",
				},
			},
		},
		OutputSchema: map[string]any{
			"type":     "object",
			"required": []any{"message", "correlationId", "receivedAt"},
			"properties": map[string]any{
				"message":       map[string]any{"type": "string"},
				"correlationId": map[string]any{"type": "string"},
				"receivedAt":    map[string]any{"type": "string"},
			},
		},
		Handler: registry.Bind(func(_ context.Context, in EchoInput, ec execctx.Context) (*mcp.CallToolResult, error) {
			return registry.Structured(in.Message, EchoResult{
				Message:       in.Message,
				CorrelationID: ec.CorrelationID,
				ReceivedAt:    time.Now().UTC().Format(time.RFC3339Nano),
			}), nil
		}),
	}
}
