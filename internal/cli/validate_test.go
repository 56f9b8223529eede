package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modellist/internal/schema"
	"github.com/roach88/modellist/internal/testutil"
)

func TestValidateCommand_Valid(t *testing.T) {
	dir := t.TempDir()
	script := testutil.WriteFile(t, dir, "cart.yaml", pushPopScript)
	scenario := testutil.WriteFile(t, dir, "push_pop.yaml", passingScenario)

	out, err := execute(t, "validate", script)
	require.NoError(t, err)
	assert.Contains(t, out, "is a valid script")

	out, err = execute(t, "validate", scenario)
	require.NoError(t, err)
	assert.Contains(t, out, "is a valid scenario")
}

func TestValidateCommand_ForcedKind(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "push_pop.yaml", passingScenario)

	out, err := execute(t, "validate", path, "--kind", "script")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
}

func TestValidateCommand_Invalid(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "bad.yaml", "name: bad\nsteps:\n  - op: explode\n")

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, schema.ErrSchema)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateCommand_InvalidJSON(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "bad.yaml", "name: bad\nsteps:\n  - op: map\n")

	out, err := execute(t, "--format", "json", "validate", path)
	require.Error(t, err)

	var resp struct {
		Status string
		Data   ValidationResult
		Error  *CLIError
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, "script", resp.Data.Kind)
	require.NotEmpty(t, resp.Data.Errors)
	assert.Equal(t, schema.ErrStep, resp.Data.Errors[0].Code)
	assert.Equal(t, 3, resp.Data.Errors[0].Line)
}

func TestValidateCommand_ValidJSON(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "cart.yaml", pushPopScript)

	out, err := execute(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"valid": true, "kind": "script"}, resp.Data)
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
