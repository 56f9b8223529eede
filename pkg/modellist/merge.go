package modellist

import "github.com/roach88/modellist/internal/value"

// MergeOptions configures Merge. Every field is optional.
type MergeOptions[T any] struct {
	// Match reports whether a held element and a candidate are the same
	// entity. It takes precedence over Key.
	Match func(held, candidate T) bool

	// Key matches key-value elements (map[string]any or value.Record) whose
	// values under Key are equal. Elements lacking the key never match.
	Key string

	// Merger combines a matched pair. Its result is stored at the held
	// element's position. The default copies every field of the candidate
	// onto a key-value held element in place and returns it; other element
	// kinds are replaced by the candidate.
	Merger func(held, candidate T) T

	// Accumulator receives each candidate that matched nothing, with its
	// index in the source. The default inserts the candidate at that index,
	// or appends it when the index is past the end.
	Accumulator func(candidate T, index int)

	// Remover receives each element held before the merge that no candidate
	// matched. The default keeps them.
	Remover func(held T)
}

// Merge reconciles the List against source.
//
// With a comparator (Match or Key) each candidate is paired with the first
// matching element among those held when Merge was called; without one,
// candidate i pairs with element i. Matched pairs are merged in place.
// Then the accumulator runs for unmatched candidates in source order, and
// finally the remover runs for held elements that were never matched.
// Accumulation happens after matching, so candidates never match each
// other.
//
// Callbacks other than Accumulator and Remover must not modify the List.
func (l *List[T]) Merge(source []T, opts MergeOptions[T]) *List[T] {
	match := opts.Match
	if match == nil && opts.Key != "" {
		match = keyMatcher[T](opts.Key)
	}
	merger := opts.Merger
	if merger == nil {
		merger = shallowMerge[T]
	}
	accumulate := opts.Accumulator
	if accumulate == nil {
		accumulate = func(candidate T, index int) {
			l.Splice(index, 0, candidate)
		}
	}

	held := *l.items
	n := len(held)
	matched := make([]bool, n)
	var unmatched []int

	for ci, candidate := range source {
		j := -1
		if match == nil {
			if ci < n {
				j = ci
			}
		} else {
			for k := 0; k < n; k++ {
				if match(held[k], candidate) {
					j = k
					break
				}
			}
		}

		if j < 0 {
			unmatched = append(unmatched, ci)
			continue
		}
		held[j] = merger(held[j], candidate)
		matched[j] = true
	}

	// Keep the held elements before accumulation moves them.
	var stale []T
	if opts.Remover != nil {
		for j := 0; j < n; j++ {
			if !matched[j] {
				stale = append(stale, held[j])
			}
		}
	}

	for _, ci := range unmatched {
		accumulate(source[ci], ci)
	}
	for _, item := range stale {
		opts.Remover(item)
	}

	l.resync()
	return l
}

func keyMatcher[T any](key string) func(held, candidate T) bool {
	return func(held, candidate T) bool {
		hv, ok := value.Lookup(any(held), key)
		if !ok {
			return false
		}
		cv, ok := value.Lookup(any(candidate), key)
		if !ok {
			return false
		}
		return value.Equal(hv, cv)
	}
}

func shallowMerge[T any](held, candidate T) T {
	if value.Assign(any(held), any(candidate)) {
		return held
	}
	return candidate
}
