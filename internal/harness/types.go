package harness

import "github.com/roach88/modellist/internal/engine"

// Result holds the outcome of running a scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// RunToken names the run the scenario executed as.
	RunToken string `json:"run_token"`

	// Trace contains one event per applied step, in order.
	Trace []engine.Event `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Items and Length describe the final list.
	Items  []any `json:"items"`
	Length int   `json:"length"`

	// IdentityStable reports whether the list ended on the sequence it
	// started with.
	IdentityStable bool `json:"identity_stable"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []engine.Event{},
		Errors: []string{},
		Items:  []any{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
