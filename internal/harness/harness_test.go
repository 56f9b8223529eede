package harness

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modellist/internal/testutil"
)

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return s
}

func TestScenarioFiles(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(file)
			require.NoError(t, err)
			assert.Equal(t, name, s.Name, "scenario name matches its file")

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.True(t, result.IdentityStable)
			assert.Len(t, result.Trace, len(s.Steps))
		})
	}
}

func TestRun_DefaultRunToken(t *testing.T) {
	result, err := Run(mustParse(t, "name: x\nsteps:\n  - op: length\n"))
	require.NoError(t, err)
	assert.Equal(t, testutil.DefaultRunToken, result.RunToken)
}

func TestRun_ExpectationFailures(t *testing.T) {
	s := mustParse(t, `
name: failing
initial: [1, 2]
steps:
  - op: pop
    expect: {result: 1, length: 5, items: [9]}
  - op: push
    args: [3]
    expect: {error: INVALID_ARGUMENT}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Equal(t, "steps[0] (pop): result = 2, want 1", result.Errors[0])
	assert.Equal(t, "steps[0] (pop): length = 1, want 5", result.Errors[1])
	assert.Equal(t, "steps[0] (pop): items = [1], want [9]", result.Errors[2])
	assert.Equal(t, "steps[1] (push): expected error INVALID_ARGUMENT, step succeeded", result.Errors[3])
}

func TestRun_UnexpectedErrorStops(t *testing.T) {
	s := mustParse(t, `
name: stops
initial: [1]
steps:
  - op: set
    args: [x, 4]
  - op: push
    args: [2]
assertions:
  - type: final_items
    items: [1]
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[0] (set): unexpected error: INDEX_OUT_OF_RANGE")
	assert.Len(t, result.Trace, 1, "later steps are not applied")
	assert.Equal(t, []any{int64(1)}, result.Items)
}

func TestRun_WrongErrorCode(t *testing.T) {
	s := mustParse(t, "name: x\ninitial: [1]\nsteps:\n  - op: set\n    args: [x, 4]\n    expect: {error: EXPRESSION_FAILED}\n")

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
}

func TestRun_ExpectedErrorChecksState(t *testing.T) {
	s := mustParse(t, `
name: state after error
initial: [1, 2]
steps:
  - op: set
    args: [x, 9]
    expect: {error: INDEX_OUT_OF_RANGE, length: 3, items: [1]}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		"steps[0] (set): length = 2, want 3",
		"steps[0] (set): items = [1,2], want [1]",
	}, result.Errors)
}

func TestRun_CloneLeavesScenarioInitial(t *testing.T) {
	s := mustParse(t, "name: x\ninitial: [1]\nsteps:\n  - op: set\n    args: [2, 0]\n")

	for range 2 {
		result, err := Run(s)
		require.NoError(t, err)
		assert.Equal(t, []any{int64(2)}, result.Items)
	}
	assert.Equal(t, []any{int64(1)}, s.Initial, "runs never write into the parsed scenario")
}

func TestRun_SeqRestartsPerScenario(t *testing.T) {
	h := New()
	s := mustParse(t, "name: x\nsteps:\n  - op: length\n  - op: length\n")

	for range 2 {
		result, err := h.Run(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Trace[0].Seq)
		assert.Equal(t, int64(2), result.Trace[1].Seq)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Run(ctx, mustParse(t, "name: x\nsteps:\n  - op: length\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := New(WithLogger(logger)).Run(context.Background(), mustParse(t, "name: logged\nsteps:\n  - op: length\n"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "step applied")
	assert.Contains(t, out, "scenario=logged")
}

func TestRunWithGolden(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "push_pop.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestGoldenBytes_Deterministic(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "scenarios", "merge_by_id.yaml"))
	require.NoError(t, err)

	var outputs [][]byte
	for range 3 {
		s, err := ParseScenario(data)
		require.NoError(t, err)
		result, err := Run(s)
		require.NoError(t, err)
		out, err := GoldenBytes(s.Name, result)
		require.NoError(t, err)
		outputs = append(outputs, out)
	}

	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[0], outputs[2])
	assert.Contains(t, string(outputs[0]), `"run_token":"merge-1"`)
}
