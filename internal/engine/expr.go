package engine

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/roach88/modellist/internal/value"
)

// programCache compiles expr-lang expressions once per source string.
//
// Expressions are compiled without a typed environment: the variables a
// function argument sees (item, index, acc, ...) hold arbitrary tree values
// whose types change from one element to the next.
type programCache struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

func newProgramCache() *programCache {
	return &programCache{programs: make(map[string]*vm.Program)}
}

func (c *programCache) compile(expression string) (*vm.Program, error) {
	c.mu.RLock()
	program, ok := c.programs[expression]
	c.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.programs[expression]; ok {
		return existing, nil
	}
	c.programs[expression] = program
	return program, nil
}

// eval runs expression against env and normalizes the result to a tree
// value.
func (c *programCache) eval(expression string, env map[string]any) (any, error) {
	program, err := c.compile(expression)
	if err != nil {
		return nil, expressionError(expression, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, expressionError(expression, err)
	}
	out, err = value.Normalize(out)
	if err != nil {
		return nil, expressionError(expression, err)
	}
	return out, nil
}

func (c *programCache) evalBool(expression string, env map[string]any) (bool, error) {
	out, err := c.eval(expression, env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, expressionError(expression, fmt.Errorf("want bool, got %s", value.TypeName(out)))
	}
	return b, nil
}

// compare evaluates a sort expression over a and b. A boolean result means
// "a sorts before b"; a numeric result is used by sign.
func (c *programCache) compare(expression string, a, b any) (int, error) {
	out, err := c.eval(expression, map[string]any{"a": a, "b": b})
	if err != nil {
		return 0, err
	}

	switch r := out.(type) {
	case int64:
		return sign(float64(r)), nil
	case float64:
		return sign(r), nil
	case bool:
		if r {
			return -1, nil
		}
		reverse, err := c.evalBool(expression, map[string]any{"a": b, "b": a})
		if err != nil {
			return 0, err
		}
		if reverse {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, expressionError(expression, fmt.Errorf("want bool or number, got %s", value.TypeName(out)))
	}
}

func sign(f float64) int {
	switch {
	case f < 0:
		return -1
	case f > 0:
		return 1
	default:
		return 0
	}
}
