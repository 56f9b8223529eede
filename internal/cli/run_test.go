package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modellist/internal/testutil"
)

const pushPopScript = `name: cart
initial: [a]
steps:
  - op: push
    args: [b]
  - op: pop
`

const failingScript = `name: broken
initial: [a]
steps:
  - op: set
    args: [x, 5]
  - op: push
    args: [never]
`

func TestRunCommand_Text(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "cart.yaml", pushPopScript)

	out, err := execute(t, "run", path, "--run-token", "cli-1")
	require.NoError(t, err)

	assert.Contains(t, out, "run cli-1 (cart)\n")
	assert.Contains(t, out, `  [1] push ["b"] (length 2)`)
	assert.Contains(t, out, `  [2] pop -> "b" (length 1)`)
	assert.Contains(t, out, `items: ["a"]`)
	assert.Contains(t, out, "length: 1")
	assert.NotContains(t, out, "✗")
}

func TestRunCommand_JSON(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "cart.yaml", pushPopScript)

	out, err := execute(t, "--format", "json", "run", path, "--run-token", "cli-1")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "cli-1", data["run_token"])
	assert.Equal(t, "cart", data["script"])
	assert.Equal(t, []any{"a"}, data["items"])
	assert.Equal(t, float64(1), data["length"])
	assert.Len(t, data["trace"], 2)
}

func TestRunCommand_StepFails(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "broken.yaml", failingScript)

	out, err := execute(t, "run", path, "--run-token", "cli-2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, `  [1] set ["x",5] !INDEX_OUT_OF_RANGE`)
	assert.NotContains(t, out, "never", "the run stops at the failing step")
	assert.Contains(t, out, `items: ["a"]`)
	assert.Contains(t, out, "✗ INDEX_OUT_OF_RANGE")
}

func TestRunCommand_StepFailsJSON(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "broken.yaml", failingScript)

	out, err := execute(t, "--format", "json", "run", path)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeStep, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "INDEX_OUT_OF_RANGE")
}

func TestRunCommand_MaxSteps(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "cart.yaml", pushPopScript)

	out, err := execute(t, "run", path, "--max-steps", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "!QUOTA_EXCEEDED")
}

func TestRunCommand_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.yaml")},
		{"unknown op", testutil.WriteFile(t, dir, "bad.yaml", "name: bad\nsteps:\n  - op: explode\n")},
		{"unknown field", testutil.WriteFile(t, dir, "field.yaml", "name: bad\nbogus: 1\nsteps: []\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "run", tt.path)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestRunCommand_RequiresArg(t *testing.T) {
	_, err := execute(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
