package registry

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/toolgate-mcp-server/internal/protocol"
)

// CorrelationField is the structured content key carrying the correlation id.
const CorrelationField = "correlationId"

// DefaultSuccessText is used when a result has neither content nor structured content.
const DefaultSuccessText = "Operation completed successfully."

// normalize turns a handler result into a well-formed envelope. The handler's
// result is never mutated.
func normalize(def Definition, result *mcp.CallToolResult, correlationID string) (*mcp.CallToolResult, error) {
	if result == nil {
		result = &mcp.CallToolResult{}
	}
	if def.OutputSchema != nil && result.StructuredContent == nil {
		return nil, protocol.Wrap(protocol.KindInternal,
			fmt.Sprintf("Tool %q must provide structuredContent to satisfy output schema", def.Name),
			ErrMissingStructuredContent)
	}

	out := *result
	var structured map[string]any
	if result.StructuredContent != nil {
		obj, err := toObject(result.StructuredContent)
		if err != nil {
			return nil, protocol.Wrap(protocol.KindInternal,
				fmt.Sprintf("Tool %q returned invalid structuredContent: %v", def.Name, err), err)
		}
		structured = obj
	}

	if len(out.Content) == 0 {
		text := DefaultSuccessText
		if structured != nil {
			pretty, err := json.MarshalIndent(structured, "", "  ")
			if err == nil {
				text = string(pretty)
			}
		}
		out.Content = []mcp.Content{&mcp.TextContent{
			Text: text,
			Meta: mcp.Meta{CorrelationField: correlationID},
		}}
	}

	if structured != nil {
		if _, ok := structured[CorrelationField]; !ok {
			structured[CorrelationField] = correlationID
		}
		out.StructuredContent = structured
	}
	return &out, nil
}

// toObject returns a fresh map holding the JSON object form of value.
func toObject(value any) (map[string]any, error) {
	if obj, ok := value.(map[string]any); ok {
		if obj == nil {
			return map[string]any{}, nil
		}
		return maps.Clone(obj), nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("structured content must be a JSON object")
	}
	return obj, nil
}

// advertisedOutputSchema adds the correlation id property to a declared output schema.
func advertisedOutputSchema(schema map[string]any) any {
	if schema == nil {
		return nil
	}
	out := maps.Clone(schema)
	if _, ok := out["type"]; !ok {
		out["type"] = "object"
	}
	props := map[string]any{}
	if existing, ok := schema["properties"].(map[string]any); ok {
		props = maps.Clone(existing)
	}
	if _, ok := props[CorrelationField]; !ok {
		props[CorrelationField] = map[string]any{
			"type":        "string",
			"description": "Correlation identifier for tracing",
		}
	}
	out["properties"] = props
	return out
}
