package modellist

import (
	"fmt"
	"strings"

	"github.com/roach88/modellist/internal/value"
)

// ForEach calls fn for every element with its index and the backing
// sequence.
func (l *List[T]) ForEach(fn func(item T, index int, seq []T)) {
	if fn == nil {
		l.fail("%w: forEach requires a function", ErrInvalidArgument)
		return
	}
	for i, item := range *l.items {
		fn(item, i, *l.items)
	}
}

// Some reports whether fn returns true for at least one element.
func (l *List[T]) Some(fn func(item T, index int) bool) bool {
	if fn == nil {
		l.fail("%w: some requires a function", ErrInvalidArgument)
		return false
	}
	for i, item := range *l.items {
		if fn(item, i) {
			return true
		}
	}
	return false
}

// Every reports whether fn returns true for all elements. It is true for
// an empty List.
func (l *List[T]) Every(fn func(item T, index int) bool) bool {
	if fn == nil {
		l.fail("%w: every requires a function", ErrInvalidArgument)
		return false
	}
	for i, item := range *l.items {
		if !fn(item, i) {
			return false
		}
	}
	return true
}

// IndexOf returns the index of the first element identical to item, or -1.
// Reference kinds match by instance, other values by ==.
func (l *List[T]) IndexOf(item T) int {
	for i, el := range *l.items {
		if value.Identical(any(el), any(item)) {
			return i
		}
	}
	return -1
}

// LastIndexOf returns the index of the last element identical to item, or -1.
func (l *List[T]) LastIndexOf(item T) int {
	s := *l.items
	for i := len(s) - 1; i >= 0; i-- {
		if value.Identical(any(s[i]), any(item)) {
			return i
		}
	}
	return -1
}

// Join concatenates the elements' text forms separated by sep. nil
// elements contribute an empty string.
func (l *List[T]) Join(sep string) string {
	var b strings.Builder
	for i, item := range *l.items {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(text(item))
	}
	return b.String()
}

// Reduce folds the elements from first to last, starting from initial.
// Methods cannot introduce type parameters, so this is a function.
func Reduce[T, A any](l *List[T], fn func(acc A, item T, index int) A, initial A) A {
	if fn == nil {
		l.fail("%w: reduce requires a function", ErrInvalidArgument)
		return initial
	}
	acc := initial
	for i, item := range *l.items {
		acc = fn(acc, item, i)
	}
	return acc
}

// ReduceRight folds the elements from last to first, starting from initial.
func ReduceRight[T, A any](l *List[T], fn func(acc A, item T, index int) A, initial A) A {
	if fn == nil {
		l.fail("%w: reduceRight requires a function", ErrInvalidArgument)
		return initial
	}
	acc := initial
	s := *l.items
	for i := len(s) - 1; i >= 0; i-- {
		acc = fn(acc, s[i], i)
	}
	return acc
}

func text[T any](item T) string {
	v := any(item)
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// compareText orders nil elements after everything else, the way
// JavaScript's default sort moves undefined to the end.
func compareText[T any](a, b T) int {
	an, bn := any(a) == nil, any(b) == nil
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	return strings.Compare(text(a), text(b))
}
