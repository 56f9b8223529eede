package schema

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/modellist/internal/engine"
)

//go:embed schema.cue
var source string

// Kind selects the definition a document is validated against.
type Kind string

const (
	KindScript   Kind = "script"
	KindScenario Kind = "scenario"
)

// Validation error codes (E200-E209)
const (
	ErrParse       = "E200" // document is not valid YAML
	ErrSchema      = "E201" // document does not satisfy the CUE definition
	ErrStep        = "E202" // step fails the operation's own checks
	ErrUnknownKind = "E203" // no definition for the requested kind
)

// ValidationError is one problem found in a document.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// CompileError reports a failure to build the embedded schema itself.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Detect guesses the kind of a document: anything with assertions or step
// expectations is a scenario, everything else a script.
func Detect(data []byte) Kind {
	var probe struct {
		Assertions []any `yaml:"assertions"`
		Steps      []struct {
			Expect any `yaml:"expect"`
		} `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return KindScript
	}
	if len(probe.Assertions) > 0 {
		return KindScenario
	}
	for _, s := range probe.Steps {
		if s.Expect != nil {
			return KindScenario
		}
	}
	return KindScript
}

// ValidateFile reads path and validates it as kind; an empty kind is
// detected from the content. It returns the kind used.
func ValidateFile(path string, kind Kind) (Kind, []ValidationError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return kind, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if kind == "" {
		kind = Detect(data)
	}
	errs, err := Validate(path, data, kind)
	return kind, errs, err
}

// Validate checks a YAML document against the definition for kind and
// returns every problem found. The error result is reserved for a broken
// embedded schema.
func Validate(filename string, data []byte, kind Kind) ([]ValidationError, error) {
	var def string
	switch kind {
	case KindScript:
		def = "#Script"
	case KindScenario:
		def = "#Scenario"
	default:
		return []ValidationError{{
			Field:   "kind",
			Message: fmt.Sprintf("unknown document kind %q", kind),
			Code:    ErrUnknownKind,
		}}, nil
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(source, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return []ValidationError{{Field: "document", Message: err.Error(), Code: ErrParse}}, nil
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return []ValidationError{{Field: "document", Message: err.Error(), Code: ErrParse}}, nil
	}

	unified := schema.LookupPath(cue.ParsePath(def)).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return schemaErrors(err, filename), nil
	}
	return stepErrors(data), nil
}

// schemaErrors flattens a CUE error list, keeping the first position that
// points into the document.
func schemaErrors(err error, filename string) []ValidationError {
	var out []ValidationError
	seen := make(map[string]bool)
	for _, e := range errors.Errors(err) {
		format, args := e.Msg()
		ve := ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Code:    ErrSchema,
		}
		if ve.Field == "" {
			ve.Field = "document"
		}
		for _, pos := range errors.Positions(e) {
			if pos.Filename() == filename {
				ve.Line = pos.Line()
				break
			}
		}
		// Disjunctions repeat the same failure once per branch.
		if key := ve.Error(); !seen[key] {
			seen[key] = true
			out = append(out, ve)
		}
	}
	return out
}

// stepErrors runs the engine's step checks over a document that already
// passed the schema.
func stepErrors(data []byte) []ValidationError {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil || len(root.Content) == 0 {
		return nil
	}
	steps := mappingValue(root.Content[0], "steps")
	if steps == nil {
		return nil
	}

	var out []ValidationError
	for i, node := range steps.Content {
		var step engine.Step
		if err := node.Decode(&step); err != nil {
			out = append(out, ValidationError{
				Field: fmt.Sprintf("steps.%d", i), Message: err.Error(), Code: ErrStep, Line: node.Line,
			})
			continue
		}
		if err := engine.ValidateStep(step); err != nil {
			out = append(out, ValidationError{
				Field: fmt.Sprintf("steps.%d", i), Message: err.Error(), Code: ErrStep, Line: node.Line,
			})
		}
	}
	return out
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
