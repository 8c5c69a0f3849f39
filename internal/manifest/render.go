package manifest

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

// Manifest files are rendered with [[ ]] delimiters so that {{ }} command
// templates pass through untouched.
const (
	leftDelim  = "[["
	rightDelim = "]]"
)

type envTracker struct {
	missing map[string]struct{}
}

func (t *envTracker) markMissing(key string) {
	if t.missing == nil {
		t.missing = map[string]struct{}{}
	}
	t.missing[key] = struct{}{}
}

func (t *envTracker) Missing() []string {
	out := make([]string, 0, len(t.missing))
	for key := range t.missing {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func funcMap(tracker *envTracker, lookup func(string) (string, bool)) template.FuncMap {
	return template.FuncMap{
		"env": func(key string) string {
			value, ok := lookup(key)
			if !ok {
				tracker.markMissing(key)
			}
			return value
		},
		"envOr": func(key, def string) string {
			if value, ok := lookup(key); ok {
				return value
			}
			return def
		},
		"default": func(def, value string) string {
			if value == "" {
				return def
			}
			return value
		},
		"lower":   strings.ToLower,
		"upper":   strings.ToUpper,
		"replace": strings.ReplaceAll,
	}
}

// Render expands [[ env "NAME" ]] style references in a manifest. Referencing
// an unset variable through env is an error; envOr supplies a fallback.
// Lines whose first non-blank character is # are copied verbatim.
func Render(name string, raw []byte) ([]byte, error) {
	return render(name, raw, os.LookupEnv)
}

func render(name string, raw []byte, lookup func(string) (string, bool)) ([]byte, error) {
	tracker := &envTracker{}
	if strings.TrimSpace(name) == "" {
		name = "manifest"
	}
	tmpl, err := template.New(name).
		Delims(leftDelim, rightDelim).
		Funcs(funcMap(tracker, lookup)).
		Option("missingkey=error").
		Parse(quoteComments(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	if len(tracker.missing) > 0 {
		return nil, fmt.Errorf("missing env vars: %s", strings.Join(tracker.Missing(), ", "))
	}
	return buf.Bytes(), nil
}

// quoteComments turns delimiters on comment lines into actions printing them literally.
func quoteComments(raw string) string {
	lines := strings.SplitAfter(raw, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		line = strings.ReplaceAll(line, leftDelim, "\x00")
		line = strings.ReplaceAll(line, rightDelim, literalAction(rightDelim))
		lines[i] = strings.ReplaceAll(line, "\x00", literalAction(leftDelim))
	}
	return strings.Join(lines, "")
}

func literalAction(text string) string {
	return leftDelim + " " + strconv.Quote(text) + " " + rightDelim
}
