package startup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/toolgate-mcp-server/internal/log"
	"github.com/codex-k8s/toolgate-mcp-server/internal/manifest"
)

func TestRunExecutesHooksInOrder(t *testing.T) {
	out := filepath.Join(t.TempDir(), "hooks.txt")
	hooks := []manifest.HookConfig{
		{Command: `echo one >> "$OUT"`, Env: map[string]string{"OUT": out}},
		{Command: "   "},
		{Command: `echo two >> "$OUT"`, Env: map[string]string{"OUT": out}, Timeout: "5s"},
	}

	require.NoError(t, Run(t.Context(), hooks, log.Discard()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestRunStopsOnFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "hooks.txt")
	hooks := []manifest.HookConfig{
		{Command: "exit 4"},
		{Command: `echo never > "$OUT"`, Env: map[string]string{"OUT": out}},
	}

	err := Run(t.Context(), hooks, nil)

	require.ErrorContains(t, err, "startup hook 0 failed")
	assert.NoFileExists(t, out)
}

func TestRunHookTimeout(t *testing.T) {
	err := Run(t.Context(), []manifest.HookConfig{{Command: "sleep", Args: []string{"5"}, Timeout: "50ms"}}, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
