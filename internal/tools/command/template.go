package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"
)

// TemplateData defines the fields available in command templates.
type TemplateData struct {
	// Args are tool arguments.
	Args map[string]any
	// ToolName is the tool name.
	ToolName string
	// CorrelationID links the command to its call.
	CorrelationID string
}

// RenderTemplate renders value with data. Use {{ arg "name" }} to read an argument
// and {{ json (arg "name") }} to embed it as JSON.
func RenderTemplate(value string, data TemplateData) (string, error) {
	tmpl, err := template.New("value").Option("missingkey=zero").Funcs(template.FuncMap{
		"arg": func(name string) any {
			if data.Args == nil {
				return ""
			}
			if v, ok := data.Args[name]; ok && v != nil {
				return v
			}
			return ""
		},
		"json": func(v any) (string, error) {
			raw, err := json.Marshal(v)
			return string(raw), err
		},
	}).Parse(value)
	if err != nil {
		return "", fmt.Errorf("template parse: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template render: %w", err)
	}
	return buf.String(), nil
}
