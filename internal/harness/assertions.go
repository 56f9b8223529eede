package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/modellist/internal/engine"
	"github.com/roach88/modellist/internal/value"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Trace    []engine.Event // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s", ev.Seq, ev.Op, render(ev.Args))
			if ev.Error != "" {
				fmt.Fprintf(&buf, " !%s", ev.Error)
			}
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertFinalItems:
		return assertFinalItems(result, a)
	case AssertFinalLength:
		return assertFinalLength(result, a)
	case AssertIdentityStable:
		return assertIdentityStable(result)
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertFinalItems(result *Result, a Assertion) error {
	if value.Equal(value.Array(a.Items), value.Array(result.Items)) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalItems,
		Expected: render(a.Items),
		Actual:   render(result.Items),
	}
}

func assertFinalLength(result *Result, a Assertion) error {
	want := 0
	if a.Length != nil {
		want = *a.Length
	}
	if result.Length == want && len(result.Items) == want {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalLength,
		Expected: fmt.Sprintf("length %d", want),
		Actual:   fmt.Sprintf("length %d with %d items", result.Length, len(result.Items)),
	}
}

func assertIdentityStable(result *Result) error {
	if result.IdentityStable {
		return nil
	}
	return &AssertionError{
		Type:     AssertIdentityStable,
		Expected: "bindable sequence unchanged",
		Actual:   "bindable sequence was replaced",
	}
}

// assertTraceContains checks for an event with the op, and with the args
// and result when the assertion gives them. Failed events do not count.
func assertTraceContains(trace []engine.Event, a Assertion) error {
	for _, ev := range trace {
		if ev.Op != a.Op || ev.Error != "" {
			continue
		}
		if a.Args != nil && !value.Equal(value.Array(a.Args), ev.Args) {
			continue
		}
		if a.Result != nil && !value.Equal(a.Result, ev.Result) {
			continue
		}
		return nil
	}

	expected := "op " + a.Op
	if a.Args != nil {
		expected += " with args " + render(a.Args)
	}
	if a.Result != nil {
		expected += " returning " + render(a.Result)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the ops first occur in the given order.
// Other events may appear between them.
func assertTraceOrder(trace []engine.Event, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if _, seen := positions[ev.Op]; !seen {
			positions[ev.Op] = i + 1
		}
	}

	for _, op := range a.Ops {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all ops present: %v", a.Ops),
				Actual:   fmt.Sprintf("missing op: %s", op),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Ops); i++ {
		prev, curr := a.Ops[i-1], a.Ops[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", a.Ops),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that op occurs exactly Count times.
func assertTraceCount(trace []engine.Event, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Op == a.Op {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}
