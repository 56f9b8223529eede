package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/modellist/internal/engine"
	"github.com/roach88/modellist/internal/testutil"
	"github.com/roach88/modellist/internal/value"
)

// Harness executes scenarios with a deterministic clock and run token.
// It runs one scenario at a time.
type Harness struct {
	logger *slog.Logger
	clock  *testutil.DeterministicClock
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger routes engine logs to logger. The default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  testutil.NewDeterministicClock(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes scenario and returns its result. Failed expectations and
// assertions are reported in the Result; the error is reserved for a
// cancelled context.
//
// The clock is reset first, so every scenario's trace starts at seq 1.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	h.clock.Reset()
	eng := engine.New(
		engine.WithLogger(h.logger),
		engine.WithClock(h.clock),
		engine.WithTokenGenerator(testutil.NewFixedRunTokenGenerator(scenario.RunToken)),
	)

	run := eng.Start("", slices.Clone(scenario.Initial), scenario.Clone)
	result := NewResult()
	result.RunToken = run.Token

	for i, step := range scenario.Steps {
		ev, err := eng.Apply(ctx, run, step.Step)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		if !checkStep(result, i, step, ev, err) {
			break
		}
	}

	result.Trace = run.Trace
	result.Items = run.Items()
	result.Length = run.List.Len()
	result.IdentityStable = run.IdentityStable()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished", "scenario", scenario.Name, "pass", result.Pass, "steps", len(result.Trace))
	return result, nil
}

// checkStep compares one event against the step's expectation and reports
// whether the scenario may continue.
func checkStep(result *Result, index int, step Step, ev engine.Event, err error) bool {
	where := fmt.Sprintf("steps[%d] (%s)", index, step.Op)
	x := step.Expect

	if err != nil {
		if x == nil || x.Error != ev.Error {
			result.AddError(fmt.Sprintf("%s: unexpected error: %v", where, err))
			return false
		}
		checkState(result, where, x, ev)
		return !engine.IsInvariantViolation(err)
	}
	if x == nil {
		return true
	}

	if x.Error != "" {
		result.AddError(fmt.Sprintf("%s: expected error %s, step succeeded", where, x.Error))
	}
	if x.HasResult && !value.Equal(x.Result, ev.Result) {
		result.AddError(fmt.Sprintf("%s: result = %s, want %s", where, render(ev.Result), render(x.Result)))
	}
	checkState(result, where, x, ev)
	return true
}

// checkState compares the list after a step, failed or not, against the
// expected length and items.
func checkState(result *Result, where string, x *ExpectClause, ev engine.Event) {
	if x.Length != nil && *x.Length != ev.Length {
		result.AddError(fmt.Sprintf("%s: length = %d, want %d", where, ev.Length, *x.Length))
	}
	if x.Items != nil && !value.Equal(value.Array(x.Items), value.Array(ev.Items)) {
		result.AddError(fmt.Sprintf("%s: items = %s, want %s", where, render(ev.Items), render(x.Items)))
	}
}

// render formats a tree value for failure messages.
func render(v any) string {
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
