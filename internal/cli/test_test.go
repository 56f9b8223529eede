package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modellist/internal/testutil"
)

const passingScenario = `name: push_pop
run_token: golden-1
initial: [a]
steps:
  - op: push
    args: [b]
  - op: pop
    expect:
      result: b
assertions:
  - type: final_items
    items: [a]
`

const failingScenario = `name: wrong_length
initial: [a]
steps:
  - op: push
    args: [b]
    expect:
      length: 5
`

const pushPopGolden = `{"items":["a"],"run_token":"golden-1","scenario_name":"push_pop","trace":[{"args":["b"],"items":["a","b"],"length":2,"op":"push","seq":1},{"items":["a"],"length":1,"op":"pop","result":"b","seq":2}]}`

func TestTestCommand_Pass(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "push_pop.yaml", passingScenario)

	out, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ push_pop")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_Fail(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "push_pop.yaml", passingScenario)
	testutil.WriteFile(t, dir, "nested/wrong_length.yaml", failingScenario)

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_length")
	assert.Contains(t, out, "length = 2, want 5")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommand_UpdateThenMatch(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "push_pop.yaml", passingScenario)

	out, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ push_pop (golden updated)")

	data, err := os.ReadFile(filepath.Join(dir, "golden", "push_pop.golden"))
	require.NoError(t, err)
	assert.Equal(t, pushPopGolden, string(data))

	// The golden directory is not scanned for scenarios.
	out, err = execute(t, "--format", "json", "test", dir)
	require.NoError(t, err)

	var resp struct {
		Status string
		Data   TestResult
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "match", resp.Data.Scenarios[0].Golden)
	assert.True(t, resp.Data.Scenarios[0].Pass)
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "push_pop.yaml", passingScenario)
	testutil.WriteFile(t, dir, "golden/push_pop.golden", `{"stale":true}`)

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_LoadError(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "bad.yaml", "name: bad\nsteps:\n  - op: push\n    expect: {bogus: 1}\n")

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ bad.yaml")
	assert.Contains(t, out, "load error")
}

func TestTestCommand_Filter(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "push_pop.yaml", passingScenario)
	testutil.WriteFile(t, dir, "wrong_length.yaml", failingScenario)

	out, err := execute(t, "test", dir, "--filter", "push_*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_Empty(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")

	out, err = execute(t, "--format", "json", "test", dir)
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, err := execute(t, "test", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "a.yaml", "")
	testutil.WriteFile(t, dir, "b.yml", "")
	testutil.WriteFile(t, dir, "notes.txt", "")
	testutil.WriteFile(t, dir, "sub/c.yaml", "")
	testutil.WriteFile(t, dir, "golden/a.yaml", "")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yml"),
		filepath.Join(dir, "sub", "c.yaml"),
	}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "merge.golden"),
		goldenFilePath(filepath.Join("scenarios", "merge.yaml")))
}
