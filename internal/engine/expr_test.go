package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramCache_CompilesOnce(t *testing.T) {
	c := newProgramCache()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := c.eval("item + 1", map[string]any{"item": int64(1)})
			assert.NoError(t, err)
			assert.Equal(t, int64(2), out)
		}()
	}
	wg.Wait()

	assert.Len(t, c.programs, 1)
}

func TestProgramCache_Untyped(t *testing.T) {
	c := newProgramCache()

	// One program serves elements of different types.
	out, err := c.eval("item + item", map[string]any{"item": "ab"})
	require.NoError(t, err)
	assert.Equal(t, "abab", out)

	out, err = c.eval("item + item", map[string]any{"item": 1.5})
	require.NoError(t, err)
	assert.Equal(t, 3.0, out)
}

func TestProgramCache_Compare(t *testing.T) {
	c := newProgramCache()

	tests := []struct {
		expression string
		a, b       any
		want       int
	}{
		{"a < b", int64(1), int64(2), -1},
		{"a < b", int64(2), int64(1), 1},
		{"a < b", int64(2), int64(2), 0},
		{"a - b", int64(5), int64(2), 1},
		{"a - b", 1.0, 2.5, -1},
		{"a.rank - b.rank", map[string]any{"rank": int64(1)}, map[string]any{"rank": int64(1)}, 0},
	}
	for _, tt := range tests {
		got, err := c.compare(tt.expression, tt.a, tt.b)
		require.NoError(t, err, tt.expression)
		assert.Equal(t, tt.want, got, "%s with a=%v b=%v", tt.expression, tt.a, tt.b)
	}

	_, err := c.compare(`"x"`, int64(1), int64(2))
	assert.Equal(t, ErrCodeExpressionFailed, CodeOf(err))
}

func TestProgramCache_CompileError(t *testing.T) {
	_, err := newProgramCache().eval("(", nil)
	require.Error(t, err)
	assert.Equal(t, ErrCodeExpressionFailed, CodeOf(err))
	assert.Contains(t, err.Error(), `expression "("`)
}
