package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
tools:
  - name: disk_usage
    title: Disk usage
    description: Reports disk usage for a path.
    timeout: 5s
    annotations:
      read_only_hint: true
    input_schema:
      type: object
      required: [path]
      properties:
        path:
          type: string
    executor:
      command: du
      args: ["-sh", "{{ arg \"path\" }}"]
      env:
        LC_ALL: C
resources:
  - name: readme
    uri: toolgate://readme
    mime_type: text/plain
    text: hello
`

func TestLoad(t *testing.T) {
	m, err := Load([]byte(sample))
	require.NoError(t, err)

	require.Len(t, m.Tools, 1)
	tool := m.Tools[0]
	assert.Equal(t, "disk_usage", tool.Name)
	assert.Equal(t, ExecutorCommand, tool.Executor.Type)
	assert.Equal(t, OutputText, tool.Executor.Output)
	assert.Equal(t, []string{"-sh", `{{ arg "path" }}`}, tool.Executor.Args)
	assert.True(t, tool.Annotations.ReadOnlyHint)

	timeout, err := tool.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)

	props := tool.InputSchema["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string"}, props["path"])

	require.Len(t, m.Resources, 1)
	assert.Equal(t, "toolgate://readme", m.Resources[0].URI)
}

func TestLoadEmpty(t *testing.T) {
	m, err := Load(nil)
	require.NoError(t, err)
	assert.Empty(t, m.Tools)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "tools:\n  - name: a\n    bogus: 1\n    executor: {command: echo}\n",
			want: "parse yaml",
		},
		{
			name: "missing name",
			yaml: "tools:\n  - executor: {command: echo}\n",
			want: "tools[0].name is required",
		},
		{
			name: "duplicate name",
			yaml: "tools:\n  - name: a\n    executor: {command: echo}\n  - name: a\n    executor: {command: echo}\n",
			want: "duplicate tool name: a",
		},
		{
			name: "missing command",
			yaml: "tools:\n  - name: a\n",
			want: "tools[0].executor.command is required",
		},
		{
			name: "unsupported executor",
			yaml: "tools:\n  - name: a\n    executor: {type: http, command: x}\n",
			want: "executor.type must be command",
		},
		{
			name: "bad output",
			yaml: "tools:\n  - name: a\n    executor: {command: x, output: xml}\n",
			want: "executor.output must be text or json",
		},
		{
			name: "bad timeout",
			yaml: "tools:\n  - name: a\n    timeout: soon\n    executor: {command: x}\n",
			want: "tools[0].timeout is invalid",
		},
		{
			name: "non-object schema",
			yaml: "tools:\n  - name: a\n    input_schema: {type: string}\n    executor: {command: x}\n",
			want: "type must be object",
		},
		{
			name: "hook without command",
			yaml: "startup_hooks:\n  - timeout: 1s\n",
			want: "startup_hooks[0].command is required",
		},
		{
			name: "hook bad timeout",
			yaml: "startup_hooks:\n  - command: echo\n    timeout: -1s\n",
			want: "startup_hooks[0].timeout is invalid",
		},
		{
			name: "duplicate resource",
			yaml: "resources:\n  - uri: x://a\n  - uri: x://a\n",
			want: "duplicate resource uri",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	m, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, m.Tools, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRender(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == "BIN" {
			return "/usr/bin/du", true
		}
		return "", false
	}

	out, err := render("m", []byte(`command: [[ env "BIN" ]]
dir: [[ envOr "WORKDIR" "/tmp" ]]
args: ['{{ arg "path" }}']`), lookup)
	require.NoError(t, err)
	assert.Equal(t, "command: /usr/bin/du\ndir: /tmp\nargs: ['{{ arg \"path\" }}']", string(out))

	_, err = render("m", []byte(`[[ env "NOPE" ]] [[ env "ALSO" ]]`), lookup)
	assert.EqualError(t, err, "missing env vars: ALSO, NOPE")
}

func TestRenderKeepsCommentsVerbatim(t *testing.T) {
	lookup := func(key string) (string, bool) { return "/opt", key == "ROOT" }

	raw := "# Values in [[ ]] are expanded; [[ env \"UNSET\" ]] stays as written\n" +
		"  # nested ]] and [[[ too\n" +
		"dir: [[ env \"ROOT\" ]] # trailing [[ \"x\" ]]\n"
	out, err := render("c.yaml", []byte(raw), lookup)
	require.NoError(t, err)
	assert.Equal(t, "# Values in [[ ]] are expanded; [[ env \"UNSET\" ]] stays as written\n"+
		"  # nested ]] and [[[ too\n"+
		"dir: /opt # trailing x\n", string(out))

	m, err := LoadNamed("c.yaml", []byte("# Values in [[ ]] are expanded\ntools: []\n"))
	require.NoError(t, err)
	assert.Empty(t, m.Tools)
}

func TestLoadNamedRendersEnv(t *testing.T) {
	t.Setenv("TOOLGATE_TEST_CMD", "uptime")

	m, err := LoadNamed("inline", []byte("tools:\n  - name: up\n    executor:\n      command: [[ env \"TOOLGATE_TEST_CMD\" ]]\n"))
	require.NoError(t, err)
	assert.Equal(t, "uptime", m.Tools[0].Executor.Command)
}
