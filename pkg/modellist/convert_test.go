package modellist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_Shallow(t *testing.T) {
	b := []any{int64(1)}
	nested := []any{}
	root := map[string]any{
		"a": "x",
		"b": b,
		"c": map[string]any{"nested": nested},
	}

	Convert(root, false)

	assert.Equal(t, "x", root["a"])

	l, ok := root["b"].(*List[any])
	require.True(t, ok, "b must become a list")
	assert.Equal(t, []any{int64(1)}, *l.Bindable())

	// The wrapper adopts the same backing array.
	l.Set("changed", 0)
	assert.Equal(t, "changed", b[0])

	c := root["c"].(map[string]any)
	_, raw := c["nested"].([]any)
	assert.True(t, raw, "nested sequences stay raw when not deep")
}

func TestConvert_Deep(t *testing.T) {
	root := map[string]any{
		"a": "x",
		"b": []any{int64(1)},
		"c": map[string]any{
			"nested": []any{
				map[string]any{
					"tags": []any{"t1", "t2"},
					"more": map[string]any{"deeper": []any{}},
				},
				"scalar",
			},
		},
	}

	Convert(root, true)

	_, ok := root["b"].(*List[any])
	assert.True(t, ok)

	nested, ok := root["c"].(map[string]any)["nested"].(*List[any])
	require.True(t, ok, "nested sequence must become a list")
	require.Equal(t, 2, nested.Len())

	first, _ := nested.Get(0)
	elem := first.(map[string]any)
	tags, ok := elem["tags"].(*List[any])
	require.True(t, ok, "sequence inside a sequence element must become a list")
	assert.Equal(t, "t1,t2", tags.Join(","))

	_, ok = elem["more"].(map[string]any)["deeper"].(*List[any])
	assert.True(t, ok, "every depth is converted")
}

func TestConvert_PointerAdopted(t *testing.T) {
	seq := &[]any{"a"}
	root := map[string]any{"p": seq}

	Convert(root, false)

	l := root["p"].(*List[any])
	assert.Same(t, seq, l.Bindable())
}

func TestConvert_Idempotent(t *testing.T) {
	root := map[string]any{
		"items": []any{map[string]any{"id": "a"}},
	}
	Convert(root, true)
	first := root["items"].(*List[any])

	// A sequence added after the first run is picked up by the second.
	elem, _ := first.Get(0)
	elem.(map[string]any)["children"] = []any{"x"}

	Convert(root, true)

	assert.Same(t, first, root["items"], "already wrapped values are not wrapped again")
	_, ok := elem.(map[string]any)["children"].(*List[any])
	assert.True(t, ok)
}

func TestConvert_Cycle(t *testing.T) {
	root := map[string]any{"list": []any{}}
	child := map[string]any{"parent": root, "seq": []any{"a"}}
	root["child"] = child

	Convert(root, true)

	_, ok := child["seq"].(*List[any])
	assert.True(t, ok)
}

func TestConvert_Nil(t *testing.T) {
	assert.NotPanics(t, func() { Convert(nil, true) })

	root := map[string]any{"nothing": nil, "typed": []any(nil)}
	Convert(root, false)
	assert.Nil(t, root["nothing"])
	l, ok := root["typed"].(*List[any])
	require.True(t, ok)
	assert.Equal(t, 0, l.Len())
}

func TestConvertPath(t *testing.T) {
	root := map[string]any{
		"data": map[string]any{
			"rows": []any{int64(1), int64(2)},
		},
		"other": map[string]any{
			"rows": []any{int64(3)},
		},
	}

	n, err := ConvertPath(root, "$.data", false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok := root["data"].(map[string]any)["rows"].(*List[any])
	assert.True(t, ok)
	_, raw := root["other"].(map[string]any)["rows"].([]any)
	assert.True(t, raw, "unselected objects are untouched")
}

func TestConvertPath_Wildcard(t *testing.T) {
	root := map[string]any{
		"a": map[string]any{"rows": []any{}},
		"b": map[string]any{"rows": []any{}},
		"c": "not an object",
	}

	n, err := ConvertPath(root, "$.*", false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestConvertPath_BadPath(t *testing.T) {
	_, err := ConvertPath(map[string]any{}, "$[", false)
	assert.Error(t, err)
}
