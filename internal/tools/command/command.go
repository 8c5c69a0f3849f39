// Package command exposes manifest-declared shell commands as tools.
package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/toolgate-mcp-server/internal/execctx"
	"github.com/codex-k8s/toolgate-mcp-server/internal/manifest"
	"github.com/codex-k8s/toolgate-mcp-server/internal/registry"
)

// waitDelay bounds how long a killed command may hold its output pipes.
const waitDelay = 2 * time.Second

// ErrCommandFailed is returned when a command exits with a non-zero code.
var ErrCommandFailed = errors.New("command failed")

// Result is the outcome of one command run.
type Result struct {
	// Stdout is the trimmed standard output.
	Stdout string
	// Stderr is the trimmed standard error.
	Stderr string
	// ExitCode is the process exit code, or -1 when it did not run.
	ExitCode int
}

// Command runs a templated executable.
type Command struct {
	// Command is the executable, or a bash script when Args is empty.
	Command string
	// Args are command arguments.
	Args []string
	// Env adds environment variables.
	Env map[string]string
	// Dir is the working directory.
	Dir string
}

// Build renders the templates and returns the prepared command.
func (c Command) Build(ctx context.Context, data TemplateData) (*exec.Cmd, error) {
	renderedCommand, err := RenderTemplate(c.Command, data)
	if err != nil {
		return nil, err
	}

	renderedArgs := make([]string, 0, len(c.Args))
	for _, arg := range c.Args {
		rendered, err := RenderTemplate(arg, data)
		if err != nil {
			return nil, err
		}
		renderedArgs = append(renderedArgs, rendered)
	}

	var cmd *exec.Cmd
	if len(renderedArgs) == 0 {
		cmd = exec.CommandContext(ctx, "bash", "-c", renderedCommand)
	} else {
		cmd = exec.CommandContext(ctx, renderedCommand, renderedArgs...)
	}
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay

	cmd.Env = os.Environ()
	for key, value := range c.Env {
		rendered, err := RenderTemplate(value, data)
		if err != nil {
			return nil, err
		}
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, rendered))
	}
	cmd.Env = append(cmd.Env,
		"TOOLGATE_TOOL="+data.ToolName,
		"TOOLGATE_CORRELATION_ID="+data.CorrelationID,
	)
	return cmd, nil
}

// Run executes the command. The process is killed when ctx ends.
func (c Command) Run(ctx context.Context, data TemplateData) (Result, error) {
	cmd, err := c.Build(ctx, data)
	if err != nil {
		return Result{ExitCode: -1}, err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err = cmd.Run()

	result := Result{
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return result, fmt.Errorf("%w: exit code %d: %s", ErrCommandFailed, result.ExitCode, firstNonEmpty(result.Stderr, result.Stdout))
	}
	return result, err
}

// Definitions converts manifest tools into registry definitions.
func Definitions(tools []manifest.ToolConfig) ([]registry.Definition, error) {
	defs := make([]registry.Definition, 0, len(tools))
	for _, tool := range tools {
		def, err := Definition(tool)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", tool.Name, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Definition converts one manifest tool into a registry definition.
func Definition(tool manifest.ToolConfig) (registry.Definition, error) {
	timeout, err := tool.TimeoutDuration()
	if err != nil {
		return registry.Definition{}, err
	}
	cmd := Command{
		Command: tool.Executor.Command,
		Args:    tool.Executor.Args,
		Env:     tool.Executor.Env,
		Dir:     tool.Executor.Dir,
	}
	output := tool.Executor.Output
	name := tool.Name

	return registry.Definition{
		Name:         tool.Name,
		Title:        tool.Title,
		Description:  tool.Description,
		InputSchema:  objectSchema(tool.InputSchema),
		OutputSchema: tool.OutputSchema,
		Annotations:  buildAnnotations(tool.Annotations),
		Timeout:      timeout,
		Handler: func(ctx context.Context, args json.RawMessage, ec execctx.Context) (*mcp.CallToolResult, error) {
			var values map[string]any
			if err := json.Unmarshal(args, &values); err != nil {
				return nil, fmt.Errorf("decode arguments: %w", err)
			}
			res, err := cmd.Run(ctx, TemplateData{Args: values, ToolName: name, CorrelationID: ec.CorrelationID})
			if err != nil {
				return nil, err
			}
			return buildResult(output, res)
		},
	}, nil
}

func buildResult(output string, res Result) (*mcp.CallToolResult, error) {
	if output == manifest.OutputJSON {
		var structured map[string]any
		if err := json.Unmarshal([]byte(res.Stdout), &structured); err != nil || structured == nil {
			return nil, fmt.Errorf("command output is not a JSON object")
		}
		return registry.Structured("", structured), nil
	}
	return registry.Structured(res.Stdout, map[string]any{
		"output":   res.Stdout,
		"exitCode": res.ExitCode,
	}), nil
}

func objectSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}
	out := maps.Clone(schema)
	if _, ok := out["type"]; !ok {
		out["type"] = "object"
	}
	return out
}

func buildAnnotations(cfg *manifest.ToolAnnotationsConfig) *mcp.ToolAnnotations {
	if cfg == nil {
		return nil
	}
	return &mcp.ToolAnnotations{
		ReadOnlyHint:    cfg.ReadOnlyHint,
		DestructiveHint: cfg.DestructiveHint,
		IdempotentHint:  cfg.IdempotentHint,
		OpenWorldHint:   cfg.OpenWorldHint,
		Title:           cfg.Title,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
