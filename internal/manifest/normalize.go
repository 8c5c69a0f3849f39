package manifest

import (
	"fmt"
	"strings"
)

func normalize(m *Manifest) error {
	for i := range m.Tools {
		tool := &m.Tools[i]
		tool.Name = strings.TrimSpace(tool.Name)
		tool.Executor.Type = strings.ToLower(strings.TrimSpace(tool.Executor.Type))
		if tool.Executor.Type == "" {
			tool.Executor.Type = ExecutorCommand
		}
		tool.Executor.Output = strings.ToLower(strings.TrimSpace(tool.Executor.Output))
		if tool.Executor.Output == "" {
			tool.Executor.Output = OutputText
		}

		input, err := normalizeSchema(tool.InputSchema)
		if err != nil {
			return fmt.Errorf("tools[%d].input_schema: %w", i, err)
		}
		tool.InputSchema = input
		output, err := normalizeSchema(tool.OutputSchema)
		if err != nil {
			return fmt.Errorf("tools[%d].output_schema: %w", i, err)
		}
		tool.OutputSchema = output
	}
	return nil
}

// normalizeSchema converts YAML-decoded maps into JSON-compatible values.
func normalizeSchema(schema map[string]any) (map[string]any, error) {
	if schema == nil {
		return nil, nil
	}
	normalized, err := normalizeValue(schema)
	if err != nil {
		return nil, err
	}
	result, ok := normalized.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema must be an object")
	}
	return result, nil
}

func normalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			normalized, err := normalizeValue(val)
			if err != nil {
				return nil, err
			}
			out[key] = normalized
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			keyStr, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("schema key must be string, got %T", key)
			}
			normalized, err := normalizeValue(val)
			if err != nil {
				return nil, err
			}
			out[keyStr] = normalized
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			normalized, err := normalizeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = normalized
		}
		return out, nil
	default:
		return value, nil
	}
}
