package manifest

import (
	"fmt"
	"strings"
	"time"
)

// Validate verifies required fields and value ranges.
func Validate(m *Manifest) error {
	if m == nil {
		return fmt.Errorf("manifest is nil")
	}

	toolNames := map[string]struct{}{}
	for i, tool := range m.Tools {
		if tool.Name == "" {
			return fmt.Errorf("tools[%d].name is required", i)
		}
		if _, exists := toolNames[tool.Name]; exists {
			return fmt.Errorf("duplicate tool name: %s", tool.Name)
		}
		toolNames[tool.Name] = struct{}{}

		if tool.Executor.Type != ExecutorCommand {
			return fmt.Errorf("tools[%d].executor.type must be %s, got %q", i, ExecutorCommand, tool.Executor.Type)
		}
		if strings.TrimSpace(tool.Executor.Command) == "" {
			return fmt.Errorf("tools[%d].executor.command is required", i)
		}
		switch tool.Executor.Output {
		case OutputText, OutputJSON:
		default:
			return fmt.Errorf("tools[%d].executor.output must be text or json", i)
		}
		if _, err := tool.TimeoutDuration(); err != nil {
			return fmt.Errorf("tools[%d].timeout is invalid: %w", i, err)
		}
		if err := checkObjectSchema(tool.InputSchema); err != nil {
			return fmt.Errorf("tools[%d].input_schema: %w", i, err)
		}
		if err := checkObjectSchema(tool.OutputSchema); err != nil {
			return fmt.Errorf("tools[%d].output_schema: %w", i, err)
		}
	}

	for i, hook := range m.StartupHooks {
		if strings.TrimSpace(hook.Command) == "" {
			return fmt.Errorf("startup_hooks[%d].command is required", i)
		}
		if _, err := parseTimeout(hook.Timeout); err != nil {
			return fmt.Errorf("startup_hooks[%d].timeout is invalid: %w", i, err)
		}
	}

	resourceURIs := map[string]struct{}{}
	for i, res := range m.Resources {
		if res.URI == "" {
			return fmt.Errorf("resources[%d].uri is required", i)
		}
		if _, exists := resourceURIs[res.URI]; exists {
			return fmt.Errorf("duplicate resource uri: %s", res.URI)
		}
		resourceURIs[res.URI] = struct{}{}
	}

	return nil
}

// TimeoutDuration parses Timeout. An empty value yields zero.
func (t ToolConfig) TimeoutDuration() (time.Duration, error) {
	return parseTimeout(t.Timeout)
}

// TimeoutDuration parses Timeout. An empty value yields zero.
func (h HookConfig) TimeoutDuration() (time.Duration, error) {
	return parseTimeout(h.Timeout)
}

func parseTimeout(raw string) (time.Duration, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if parsed < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return parsed, nil
}

func checkObjectSchema(schema map[string]any) error {
	if schema == nil {
		return nil
	}
	if kind, ok := schema["type"]; ok && kind != "object" {
		return fmt.Errorf("type must be object")
	}
	return nil
}
