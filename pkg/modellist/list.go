package modellist

import (
	"fmt"
	"slices"
)

// List is a mutable sequence with a stable backing slice pointer.
// The zero value is not usable; construct with New, Of or FromAny.
type List[T any] struct {
	items  *[]T // assigned once in New, never reassigned
	length int
	err    error
}

// New wraps initial. With clone false the pointer is adopted and the
// caller's slice variable becomes the bindable sequence. With clone true a
// fresh sequence holding a shallow copy of the elements is allocated.
// A nil initial allocates an empty sequence.
func New[T any](initial *[]T, clone bool) *List[T] {
	items := initial
	switch {
	case items == nil:
		items = &[]T{}
	case clone:
		cp := slices.Clone(*initial)
		if cp == nil {
			cp = []T{}
		}
		items = &cp
	}

	l := &List[T]{items: items}
	l.resync()
	return l
}

// Of returns a List holding items in a fresh sequence.
func Of[T any](items ...T) *List[T] {
	return New(&items, true)
}

// FromAny wraps an untyped tree value. A *[]any is adopted (or cloned), a
// []any is wrapped sharing its backing array, and anything else yields an
// empty List.
func FromAny(v any, clone bool) *List[any] {
	switch s := v.(type) {
	case *[]any:
		if s != nil {
			return New(s, clone)
		}
	case []any:
		return New(&s, clone)
	}
	return New[any](nil, false)
}

// resync stores the current length. Every mutating method calls it last.
func (l *List[T]) resync() {
	l.length = len(*l.items)
}

func (l *List[T]) fail(format string, args ...any) {
	if l.err == nil {
		l.err = fmt.Errorf(format, args...)
	}
}

// Len returns the number of elements.
func (l *List[T]) Len() int {
	return l.length
}

// Err returns the first error recorded since construction or ClearErr.
func (l *List[T]) Err() error {
	return l.err
}

// ClearErr forgets the recorded error.
func (l *List[T]) ClearErr() {
	l.err = nil
}

// Bindable returns the backing sequence by reference. Read it freely, but
// never modify it: all mutation must go through the List.
func (l *List[T]) Bindable() *[]T {
	return l.items
}

// Snapshot copies the current elements into a new []any.
func (l *List[T]) Snapshot() []any {
	out := make([]any, len(*l.items))
	for i, item := range *l.items {
		out[i] = item
	}
	return out
}

// Get returns the element at index. The boolean is false, and the zero
// value returned, when index is out of range.
func (l *List[T]) Get(index int) (T, bool) {
	s := *l.items
	if index < 0 || index >= len(s) {
		var zero T
		return zero, false
	}
	return s[index], true
}

// Push appends items in argument order.
func (l *List[T]) Push(items ...T) *List[T] {
	*l.items = append(*l.items, items...)
	l.resync()
	return l
}

// Pop removes and returns the last element.
func (l *List[T]) Pop() (T, bool) {
	s := *l.items
	var zero T
	if len(s) == 0 {
		return zero, false
	}
	last := s[len(s)-1]
	s[len(s)-1] = zero
	*l.items = s[:len(s)-1]
	l.resync()
	return last, true
}

// Shift removes and returns the first element.
func (l *List[T]) Shift() (T, bool) {
	s := *l.items
	if len(s) == 0 {
		var zero T
		return zero, false
	}
	first := s[0]
	*l.items = slices.Delete(s, 0, 1)
	l.resync()
	return first, true
}

// Unshift inserts items at the front, keeping their argument order.
func (l *List[T]) Unshift(items ...T) *List[T] {
	*l.items = slices.Insert(*l.items, 0, items...)
	l.resync()
	return l
}

// Splice removes deleteCount elements starting at start and inserts items
// in their place. A negative start counts back from the end; both values
// are clamped to the sequence. The removed elements are returned in a new
// slice.
func (l *List[T]) Splice(start, deleteCount int, items ...T) []T {
	s := *l.items
	start = relativeIndex(start, len(s))
	deleteCount = min(max(deleteCount, 0), len(s)-start)

	removed := slices.Clone(s[start : start+deleteCount])
	if removed == nil {
		removed = []T{}
	}
	*l.items = slices.Replace(s, start, start+deleteCount, items...)
	l.resync()
	return removed
}

// Set replaces the element at index. An index outside [0, Len()) records
// ErrIndexOutOfRange and leaves the sequence unchanged.
func (l *List[T]) Set(item T, index int) *List[T] {
	s := *l.items
	if index < 0 || index >= len(s) {
		l.fail("%w: set at %d, length %d", ErrIndexOutOfRange, index, len(s))
		return l
	}
	s[index] = item
	l.resync()
	return l
}

// Clean removes every element, keeping the same sequence.
func (l *List[T]) Clean() *List[T] {
	s := *l.items
	clear(s)
	*l.items = s[:0]
	l.resync()
	return l
}

// Overwrite replaces the contents with seq, keeping the same sequence.
// seq may alias the List's own elements.
func (l *List[T]) Overwrite(seq []T) *List[T] {
	src := slices.Clone(seq)
	return l.Clean().Concat(src)
}

// Map replaces every element with fn(element, index), in place.
func (l *List[T]) Map(fn func(item T, index int) T) *List[T] {
	if fn == nil {
		l.fail("%w: map requires a function", ErrInvalidArgument)
		return l
	}
	s := *l.items
	for i := range s {
		s[i] = fn(s[i], i)
	}
	l.resync()
	return l
}

// Filter removes, in place, every element for which fn returns false.
// fn sees each element with its index before filtering began.
func (l *List[T]) Filter(fn func(item T, index int) bool) *List[T] {
	if fn == nil {
		l.fail("%w: filter requires a function", ErrInvalidArgument)
		return l
	}
	s := *l.items
	kept := s[:0]
	for i, item := range s {
		if fn(item, i) {
			kept = append(kept, item)
		}
	}
	clear(s[len(kept):])
	*l.items = kept
	l.resync()
	return l
}

// Pull removes, for each item, the first element identical to it.
// Items that are not present are ignored.
func (l *List[T]) Pull(items ...T) *List[T] {
	for _, item := range items {
		if i := l.IndexOf(item); i >= 0 {
			*l.items = slices.Delete(*l.items, i, i+1)
		}
	}
	l.resync()
	return l
}

// Concat appends the elements of every seq in argument order.
func (l *List[T]) Concat(seqs ...[]T) *List[T] {
	for _, seq := range seqs {
		*l.items = append(*l.items, seq...)
	}
	l.resync()
	return l
}

// Slice narrows the sequence in place to the elements in [start, end).
// Negative values count back from the end; both are clamped.
func (l *List[T]) Slice(start, end int) *List[T] {
	s := *l.items
	start = relativeIndex(start, len(s))
	end = relativeIndex(end, len(s))
	if end < start {
		end = start
	}
	n := copy(s, s[start:end])
	clear(s[n:])
	*l.items = s[:n]
	l.resync()
	return l
}

// SliceFrom narrows the sequence in place to the elements from start on.
func (l *List[T]) SliceFrom(start int) *List[T] {
	return l.Slice(start, len(*l.items))
}

// Reverse reverses the elements in place.
func (l *List[T]) Reverse() *List[T] {
	slices.Reverse(*l.items)
	l.resync()
	return l
}

// Sort sorts the elements in place with a stable sort. cmp returns a
// negative number when a sorts before b. A nil cmp compares the elements'
// fmt.Sprint forms, the way JavaScript's default sort compares strings, and
// moves nil elements to the end.
func (l *List[T]) Sort(cmp func(a, b T) int) *List[T] {
	if cmp == nil {
		cmp = compareText[T]
	}
	slices.SortStableFunc(*l.items, cmp)
	l.resync()
	return l
}

// Clone returns a new List over a shallow copy of the elements. The clone
// has its own sequence; element references are shared.
func (l *List[T]) Clone() *List[T] {
	return New(l.items, true)
}

// relativeIndex resolves a JavaScript style relative index against length n.
func relativeIndex(i, n int) int {
	if i < 0 {
		return max(n+i, 0)
	}
	return min(i, n)
}
