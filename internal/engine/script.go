package engine

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/modellist/internal/value"
)

// Script is a named sequence of steps applied to one list.
type Script struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// RunToken pins the run token; empty means the engine's generator
	// picks one.
	RunToken string `yaml:"run_token,omitempty" json:"run_token,omitempty"`

	// Initial is the starting sequence. With Clone false the list adopts
	// it directly.
	Initial []any `yaml:"initial" json:"initial"`
	Clone   bool  `yaml:"clone,omitempty" json:"clone,omitempty"`

	Steps []Step `yaml:"steps" json:"steps"`
}

// Step names one list operation and its arguments.
type Step struct {
	Op   string `yaml:"op" json:"op"`
	Args []any  `yaml:"args,omitempty" json:"args,omitempty"`

	// Fn is the expr-lang function argument of map, filter, some, every,
	// forEach, sort, reduce and reduceRight.
	Fn string `yaml:"fn,omitempty" json:"fn,omitempty"`

	Merge *MergeSpec `yaml:"merge,omitempty" json:"merge,omitempty"`
}

// MergeSpec configures the "merge" operation.
type MergeSpec struct {
	// Key matches object elements by the value under this field.
	Key string `yaml:"key,omitempty" json:"key,omitempty"`

	// Match is an expression over held and candidate; it overrides Key.
	Match string `yaml:"match,omitempty" json:"match,omitempty"`

	// Merger is an expression over held and candidate whose result replaces
	// the held element. Empty means a shallow field copy.
	Merger string `yaml:"merger,omitempty" json:"merger,omitempty"`

	// Accumulate is what happens to unmatched candidates.
	Accumulate string `yaml:"accumulate,omitempty" json:"accumulate,omitempty"`

	// Remove is what happens to held elements nothing matched.
	Remove string `yaml:"remove,omitempty" json:"remove,omitempty"`
}

// Accumulate and remove modes of a merge step.
const (
	AccumulateInsert = "insert"
	AccumulateAppend = "append"
	AccumulateIgnore = "ignore"

	RemoveKeep = "keep"
	RemovePull = "pull"
)

// LoadScript reads and validates a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScript decodes a YAML script. Unknown fields are rejected and every
// value is normalized to the tree model.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if err := NormalizeSteps(s.Steps); err != nil {
		return nil, err
	}
	initial, err := value.NormalizeAll(s.Initial)
	if err != nil {
		return nil, fmt.Errorf("initial: %w", err)
	}
	s.Initial = initial

	if err := ValidateScript(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// NormalizeSteps converts decoded step arguments to tree values in place.
func NormalizeSteps(steps []Step) error {
	for i := range steps {
		args, err := value.NormalizeAll(steps[i].Args)
		if err != nil {
			return fmt.Errorf("steps[%d].args: %w", i, err)
		}
		steps[i].Args = args
	}
	return nil
}

// ValidateScript checks the structure of a script.
func ValidateScript(s *Script) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	for i, step := range s.Steps {
		if err := ValidateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateStep checks that a step names a known operation and carries the
// arguments that operation always needs.
func ValidateStep(step Step) error {
	op, ok := operations[step.Op]
	if !ok {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if op.needsFn && step.Fn == "" {
		return fmt.Errorf("op %q requires fn", step.Op)
	}
	if len(step.Args) < op.minArgs {
		return fmt.Errorf("op %q requires at least %d args, got %d", step.Op, op.minArgs, len(step.Args))
	}
	if step.Merge != nil {
		if step.Op != "merge" {
			return fmt.Errorf("merge options on op %q", step.Op)
		}
		switch step.Merge.Accumulate {
		case "", AccumulateInsert, AccumulateAppend, AccumulateIgnore:
		default:
			return fmt.Errorf("merge.accumulate: unknown mode %q", step.Merge.Accumulate)
		}
		switch step.Merge.Remove {
		case "", RemoveKeep, RemovePull:
		default:
			return fmt.Errorf("merge.remove: unknown mode %q", step.Merge.Remove)
		}
	}
	return nil
}
