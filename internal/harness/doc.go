// Package harness runs YAML scenarios against the list engine and checks
// the outcome.
//
// # Scenario Format
//
//	name: merge_by_id
//	description: "merge reconciles by key and keeps identity"
//	run_token: merge-1
//	initial:
//	  - {id: test}
//	  - {id: test2}
//	steps:
//	  - op: merge
//	    args:
//	      - [{id: test2, key: woot}, {id: new, key: blorg}]
//	    merge: {key: id}
//	    expect:
//	      length: 3
//	  - op: set
//	    args: [x, 9]
//	    expect:
//	      error: INDEX_OUT_OF_RANGE
//	assertions:
//	  - type: final_length
//	    length: 3
//	  - type: identity_stable
//	  - type: trace_order
//	    ops: [merge, set]
//
// Each step is applied by the engine with a deterministic clock and a fixed
// run token, so the same scenario always yields the same trace. A step
// whose error is not expected stops the scenario; an expected error lets
// it continue.
//
// # Assertions
//
//   - final_items: the final sequence equals items
//   - final_length: the final length equals length
//   - identity_stable: the list still exposes its original sequence
//   - trace_contains: some event has op, with args and result when given
//   - trace_order: the ops first occur in the given order
//   - trace_count: op occurs exactly count times
//
// Values compare by canonical JSON, so 1 and 1.0 differ but key order
// does not matter.
//
// # Golden Files
//
// RunWithGolden compares a scenario's trace against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
