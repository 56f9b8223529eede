// Package engine applies scripted operations to a modellist.List.
//
// A Script is a sequence of named steps ("push", "splice", "merge", ...)
// applied in order to one list. Function arguments (the mapper of "map",
// the predicate of "filter", the comparator of "sort") are expr-lang
// expressions, so a script can be written and replayed as data.
//
// Every step produces an Event stamped from a monotonic Clock. After each
// step the engine re-checks the two list invariants:
//
//   - the bindable sequence is still the one handed out at Start
//   - the stored length equals the backing sequence's length
//
// A violated invariant aborts the run with a RuntimeError.
//
// The engine is single-threaded: one Run is driven by one goroutine.
// Runs are independent and an Engine may drive several of them
// concurrently; its expression cache is safe for concurrent use.
package engine
