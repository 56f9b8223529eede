// Package schema validates script and scenario documents against the CUE
// definitions embedded in schema.cue.
//
// Validation runs in two passes. The CUE pass checks structure: required
// fields, allowed operation names, assertion shapes, closed objects. The
// step pass then applies the engine's per-operation checks (required
// function arguments, minimum argument counts). All errors are reported,
// each with the YAML line it points at when one is known.
package schema
