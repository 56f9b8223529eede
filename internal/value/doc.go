// Package value provides the plain tree model shared by the list wrapper,
// the script engine and the harness.
//
// A tree is built from nil, bool, string, int64, float64, []any and
// map[string]any. Decoders normalize every integer to int64 so values read
// from JSON, YAML and expressions compare alike.
//
// Key design constraints:
//   - Canonical JSON sorts object keys by UTF-16 code units (RFC 8785)
//   - Strings are NFC normalized at the serialization boundary
//   - Identity (Identical) and value equality (Equal) are distinct notions
//   - value imports nothing internal
package value
