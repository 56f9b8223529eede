package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/modellist/internal/engine"
	"github.com/roach88/modellist/internal/value"
)

// Scenario is a list run with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// RunToken is the fixed run token. Empty means
	// testutil.DefaultRunToken.
	RunToken string `yaml:"run_token,omitempty"`

	// Initial is the starting sequence.
	Initial []any `yaml:"initial,omitempty"`

	// Clone copies Initial instead of adopting it.
	Clone bool `yaml:"clone,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is an engine step with an optional expectation.
type Step struct {
	engine.Step `yaml:",inline"`

	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause lists what a step must produce. Only the fields present
// are checked.
type ExpectClause struct {
	// Result is the expected step result; HasResult tells an explicit
	// null apart from no expectation.
	Result    any
	HasResult bool

	Length *int
	Items  []any

	// Error is the expected engine error code, e.g. INDEX_OUT_OF_RANGE.
	Error string
}

var expectFields = map[string]bool{"result": true, "length": true, "items": true, "error": true}

// UnmarshalYAML decodes an expect mapping, rejecting unknown fields.
func (e *ExpectClause) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expect must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !expectFields[key.Value] {
			return fmt.Errorf("line %d: field %s not found in expect", key.Line, key.Value)
		}
		val := node.Content[i+1]
		var err error
		switch key.Value {
		case "result":
			e.HasResult = true
			err = val.Decode(&e.Result)
		case "length":
			err = val.Decode(&e.Length)
		case "items":
			err = val.Decode(&e.Items)
			if err == nil && e.Items == nil {
				e.Items = []any{}
			}
		case "error":
			err = val.Decode(&e.Error)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Assertion validates the finished run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Items is the expected final sequence (final_items).
	Items []any `yaml:"items,omitempty"`

	// Length is the expected final length (final_length).
	Length *int `yaml:"length,omitempty"`

	// Op is the operation to look for (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Args and Result narrow trace_contains; nil means any.
	Args   []any `yaml:"args,omitempty"`
	Result any   `yaml:"result,omitempty"`

	// Ops is the expected first-occurrence order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Count is the exact number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalItems     = "final_items"
	AssertFinalLength    = "final_length"
	AssertIdentityStable = "identity_stable"
	AssertTraceContains  = "trace_contains"
	AssertTraceOrder     = "trace_order"
	AssertTraceCount     = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// It fails on unknown fields (typos) and missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario and normalizes every value in it to the
// tree model.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := normalizeScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func normalizeScenario(s *Scenario) error {
	var err error
	if s.Initial, err = value.NormalizeAll(s.Initial); err != nil {
		return fmt.Errorf("initial: %w", err)
	}

	for i := range s.Steps {
		step := &s.Steps[i]
		if step.Args, err = value.NormalizeAll(step.Args); err != nil {
			return fmt.Errorf("steps[%d].args: %w", i, err)
		}
		if x := step.Expect; x != nil {
			if x.Result, err = value.Normalize(x.Result); err != nil {
				return fmt.Errorf("steps[%d].expect.result: %w", i, err)
			}
			if x.Items, err = value.NormalizeAll(x.Items); err != nil {
				return fmt.Errorf("steps[%d].expect.items: %w", i, err)
			}
		}
	}

	for i := range s.Assertions {
		a := &s.Assertions[i]
		if a.Items, err = value.NormalizeAll(a.Items); err != nil {
			return fmt.Errorf("assertions[%d].items: %w", i, err)
		}
		if a.Args, err = value.NormalizeAll(a.Args); err != nil {
			return fmt.Errorf("assertions[%d].args: %w", i, err)
		}
		if a.Result, err = value.Normalize(a.Result); err != nil {
			return fmt.Errorf("assertions[%d].result: %w", i, err)
		}
	}
	return nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("a scenario needs steps or assertions")
	}

	for i, step := range s.Steps {
		if err := engine.ValidateStep(step.Step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.Expect != nil && step.Expect.Length != nil && *step.Expect.Length < 0 {
			return fmt.Errorf("steps[%d].expect: length must be non-negative", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalItems:
		if a.Items == nil {
			return fmt.Errorf("assertions[%d]: items is required for final_items", index)
		}
	case AssertFinalLength:
		if a.Length == nil {
			return fmt.Errorf("assertions[%d]: length is required for final_length", index)
		}
		if *a.Length < 0 {
			return fmt.Errorf("assertions[%d]: length must be non-negative", index)
		}
	case AssertIdentityStable:
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) < 2 {
			return fmt.Errorf("assertions[%d]: trace_order needs at least two ops", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// Script returns the engine script this scenario runs.
func (s *Scenario) Script() *engine.Script {
	steps := make([]engine.Step, len(s.Steps))
	for i, step := range s.Steps {
		steps[i] = step.Step
	}
	return &engine.Script{
		Name:        s.Name,
		Description: s.Description,
		RunToken:    s.RunToken,
		Initial:     s.Initial,
		Clone:       s.Clone,
		Steps:       steps,
	}
}
