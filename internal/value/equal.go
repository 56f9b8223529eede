package value

import (
	"bytes"
	"reflect"
)

// Identical reports whether a and b are the same element: the same
// instance for reference kinds (maps, pointers, slices, channels, funcs),
// == for everything else. Non-comparable values that are not references,
// such as structs holding slices, are never identical.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Slice:
		return va.UnsafePointer() == vb.UnsafePointer() && va.Len() == vb.Len()
	}

	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}

// Equal reports whether a and b hold the same tree value. Numbers compare
// by value across integer kinds. Values without a canonical form fall back
// to reflect.DeepEqual.
func Equal(a, b any) bool {
	ca, errA := MarshalCanonical(a)
	cb, errB := MarshalCanonical(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ca, cb)
}
