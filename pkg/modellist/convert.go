package modellist

import (
	"fmt"
	"reflect"

	"github.com/ohler55/ojg/jp"
)

// Convert replaces, in place, every []any value of root with a *List[any]
// that adopts the same backing array. A *[]any value is adopted as is.
//
// With deep false only root's own properties are converted. With deep true
// Convert also descends into nested objects and into the object elements
// of every converted sequence.
//
// Values that are already lists are not wrapped again; with deep they are
// still descended into, so running Convert twice is harmless and converts
// sequences added since the first run. Objects reachable more than once,
// including through cycles, are visited once.
func Convert(root map[string]any, deep bool) {
	c := converter{deep: deep, seen: make(map[uintptr]bool)}
	c.object(root)
}

// ConvertPath runs Convert on every object selected by the JSONPath
// expression path within root and returns how many objects were
// converted. Non-object matches are skipped.
func ConvertPath(root any, path string, deep bool) (int, error) {
	x, err := jp.ParseString(path)
	if err != nil {
		return 0, fmt.Errorf("parse path %q: %w", path, err)
	}

	c := converter{deep: deep, seen: make(map[uintptr]bool)}
	count := 0
	for _, node := range x.Get(root) {
		obj, ok := node.(map[string]any)
		if !ok {
			continue
		}
		c.object(obj)
		count++
	}
	return count, nil
}

type converter struct {
	deep bool
	seen map[uintptr]bool
}

func (c *converter) object(obj map[string]any) {
	if obj == nil {
		return
	}
	p := reflect.ValueOf(obj).Pointer()
	if c.seen[p] {
		return
	}
	c.seen[p] = true

	for k, v := range obj {
		switch val := v.(type) {
		case []any:
			l := FromAny(val, false)
			obj[k] = l
			c.elements(l)
		case *[]any:
			if val == nil {
				continue
			}
			l := New(val, false)
			obj[k] = l
			c.elements(l)
		case *List[any]:
			c.elements(val)
		case map[string]any:
			if c.deep {
				c.object(val)
			}
		}
	}
}

func (c *converter) elements(l *List[any]) {
	if !c.deep {
		return
	}
	for _, item := range *l.Bindable() {
		if obj, ok := item.(map[string]any); ok {
			c.object(obj)
		}
	}
}
