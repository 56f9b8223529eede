package engine

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/modellist/internal/value"
	"github.com/roach88/modellist/pkg/modellist"
)

// DefaultMaxSteps is the default maximum number of steps per run.
const DefaultMaxSteps = 1000

// Engine applies steps to lists and records what each step did.
//
// An Engine holds no per-run state besides its clock: every run lives in
// its own Run value. Event seq numbers are unique across all runs of one
// engine.
type Engine struct {
	logger   *slog.Logger
	clock    Sequencer
	tokens   RunTokenGenerator
	maxSteps int
	programs *programCache
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock sets the clock that stamps events.
func WithClock(clock Sequencer) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithTokenGenerator sets the run token generator. The default is
// UUIDv7Generator.
func WithTokenGenerator(gen RunTokenGenerator) EngineOption {
	return func(e *Engine) {
		e.tokens = gen
	}
}

// WithMaxSteps caps the number of steps one run may apply.
// Use a small value to test quota enforcement.
func WithMaxSteps(maxSteps int) EngineOption {
	return func(e *Engine) {
		e.maxSteps = maxSteps
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:    NewClock(),
		tokens:   UUIDv7Generator{},
		maxSteps: DefaultMaxSteps,
		programs: newProgramCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock returns the engine's clock.
func (e *Engine) Clock() Sequencer {
	return e.clock
}

// MaxSteps returns the configured step quota.
func (e *Engine) MaxSteps() int {
	return e.maxSteps
}

// Run is one list and the trace of the steps applied to it.
type Run struct {
	Token string
	List  *modellist.List[any]
	Trace []Event

	bound *[]any
}

// Bound returns the sequence handed out when the run started. It stays
// the list's bindable sequence for the run's whole life.
func (r *Run) Bound() *[]any {
	return r.bound
}

// Items returns a deep copy of the current elements.
func (r *Run) Items() []any {
	return value.Copy(r.List.Snapshot()).([]any)
}

// IdentityStable reports whether the list still exposes the sequence it
// started with.
func (r *Run) IdentityStable() bool {
	return r.List.Bindable() == r.bound
}

// Start creates a run over initial. An empty token asks the engine's
// generator for one. With clone false the list adopts initial's backing
// array.
func (e *Engine) Start(token string, initial []any, clone bool) *Run {
	if token == "" {
		token = e.tokens.Generate()
	}
	seq := initial
	if seq == nil {
		seq = []any{}
	}
	list := modellist.New(&seq, clone)
	e.logger.Info("run started", "run", token, "length", list.Len(), "clone", clone)
	return &Run{Token: token, List: list, bound: list.Bindable()}
}

// Execute starts a run for script and applies every step in order. It
// stops at the first failing step and returns the run so far together
// with the error.
func (e *Engine) Execute(ctx context.Context, script *Script) (*Run, error) {
	run := e.Start(script.RunToken, slices.Clone(script.Initial), script.Clone)
	for _, step := range script.Steps {
		if _, err := e.Apply(ctx, run, step); err != nil {
			return run, err
		}
	}
	e.logger.Info("run finished", "run", run.Token, "steps", len(run.Trace), "length", run.List.Len())
	return run, nil
}

// Apply applies one step to run, appends its event to the trace and
// returns it. A failed step still records an event carrying the error
// code. Invariant violations are checked after every step, failed or not.
func (e *Engine) Apply(ctx context.Context, run *Run, step Step) (Event, error) {
	index := len(run.Trace)
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}

	var (
		result any
		err    error
	)
	switch op, ok := operations[step.Op]; {
	case index >= e.maxSteps:
		err = newError(ErrCodeQuotaExceeded, "run exceeded max steps (%d)", e.maxSteps)
	case !ok:
		err = newError(ErrCodeUnknownOperation, "unknown op %q", step.Op)
	case op.needsFn && step.Fn == "":
		err = newError(ErrCodeInvalidArgument, "op %q requires fn", step.Op)
	case len(step.Args) < op.minArgs:
		err = newError(ErrCodeInvalidArgument, "op %q requires at least %d args, got %d", step.Op, op.minArgs, len(step.Args))
	default:
		result, err = op.apply(&call{list: run.List, step: step, programs: e.programs})
	}

	if err == nil {
		if listErr := run.List.Err(); listErr != nil {
			run.List.ClearErr()
			err = listError(listErr)
		}
	}
	if invErr := checkInvariants(run); invErr != nil {
		err = invErr
	}

	ev := Event{
		Seq:    e.clock.Next(),
		Op:     step.Op,
		Args:   value.Copy(value.Array(step.Args)).(value.Array),
		Result: value.Copy(result),
		Length: run.List.Len(),
		Items:  run.Items(),
	}
	if err != nil {
		re := annotate(err, run.Token, index, step.Op)
		ev.Error = string(re.Code)
		ev.Result = nil
		err = re
		e.logger.Warn("step failed", "run", run.Token, "seq", ev.Seq, "op", step.Op, "error", err)
	} else {
		e.logger.Debug("step applied", "run", run.Token, "seq", ev.Seq, "op", step.Op, "length", ev.Length)
	}
	run.Trace = append(run.Trace, ev)
	return ev, err
}

func checkInvariants(run *Run) *RuntimeError {
	if !run.IdentityStable() {
		return newError(ErrCodeIdentityChanged, "bindable sequence was replaced")
	}
	if n := len(*run.List.Bindable()); run.List.Len() != n {
		return newError(ErrCodeLengthDesync, "length %d, backing sequence holds %d", run.List.Len(), n)
	}
	return nil
}

// annotate fills in the step coordinates of a RuntimeError, wrapping any
// other error as an invalid argument.
func annotate(err error, token string, step int, op string) *RuntimeError {
	re, ok := err.(*RuntimeError)
	if !ok {
		re = &RuntimeError{Code: ErrCodeInvalidArgument, Message: "step failed", Err: err}
	}
	re.RunToken = token
	re.Step = step
	re.Op = op
	return re
}
