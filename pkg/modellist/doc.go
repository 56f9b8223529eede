// Package modellist provides List, a mutable sequence whose backing slice
// keeps the same identity for its whole lifetime.
//
// A List owns one *[]T. Every operation writes through that pointer, so a
// consumer that was handed Bindable() once (a view layer, a template, a
// serializer) always observes the current elements without re-binding.
//
//	items := []string{"test", "woot"}
//	l := modellist.New(&items, false)
//	l.Map(func(s string, _ int) string { return s + "-yes" }).Push("boom")
//	// items is now ["test-yes", "woot-yes", "boom"] and l.Bindable() == &items
//
// # Invariants
//
//   - Bindable() returns the same pointer on every call.
//   - Len() equals len(*Bindable()) after every method returns.
//
// Both hold only while all mutation goes through List methods. Writing to
// the bindable slice directly desynchronizes Len.
//
// # Errors
//
// Mutating methods return the List for chaining, so misuse is reported
// through a sticky error in the style of bufio.Writer: the offending call
// is not applied and Err returns the first such error until ClearErr.
// Out-of-range indexes elsewhere follow JavaScript array conventions
// (clamping, negative offsets from the end) and never fail.
//
// A List is not safe for concurrent use.
package modellist
