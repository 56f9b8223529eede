package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Object is a plain key-value structure.
type Object = map[string]any

// Array is a plain ordered sequence.
type Array = []any

// Snapshotter is implemented by sequence wrappers. Snapshot returns the
// current elements as a fresh slice, so encoders never hold the live one.
type Snapshotter interface {
	Snapshot() []any
}

// Record is implemented by element types that expose named fields to key
// comparison and shallow merging. map[string]any is handled directly and
// does not need to implement it.
type Record interface {
	Field(key string) (any, bool)
	Keys() []string
	SetField(key string, v any)
}

// Format names a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file extension. Anything that is not
// .json is read as YAML, which is a superset.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses data in the given format into a normalized tree.
func Decode(data []byte, format Format) (any, error) {
	switch format {
	case FormatJSON:
		return DecodeJSON(data)
	case FormatYAML:
		return DecodeYAML(data)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// DecodeObject parses data and requires the root to be a key-value structure.
func DecodeObject(data []byte, format Format) (Object, error) {
	v, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("document root must be an object, got %s", TypeName(v))
	}
	return obj, nil
}

// DecodeJSON parses JSON, keeping integers exact.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return Normalize(raw)
}

// DecodeYAML parses a single YAML document.
func DecodeYAML(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return Normalize(raw)
}

// Normalize converts decoder and expression output into tree values:
// every integer kind becomes int64, float32 becomes float64, json.Number is
// resolved and map[any]any keys are stringified. Unknown types are kept as
// they are so wrappers such as list pointers survive.
func Normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return int64(val), nil
	case float32:
		return float64(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val.String(), err)
		}
		return f, nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			n, err := Normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = n
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			n, err := Normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = n
		}
		return obj, nil
	case map[any]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			key := fmt.Sprint(k)
			n, err := Normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", key, err)
			}
			obj[key] = n
		}
		return obj, nil
	default:
		return val, nil
	}
}

// NormalizeAll normalizes each element of vals into a new slice. A nil
// slice stays nil.
func NormalizeAll(vals []any) ([]any, error) {
	if vals == nil {
		return nil, nil
	}
	out := make([]any, len(vals))
	for i, v := range vals {
		n, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

// Lookup reads a named field from a key-value element.
func Lookup(v any, key string) (any, bool) {
	switch rec := v.(type) {
	case Object:
		field, ok := rec[key]
		return field, ok
	case Record:
		return rec.Field(key)
	default:
		return nil, false
	}
}

// Assign copies every field of src onto dst, overwriting or extending it.
// Both must be key-value elements; Assign reports false and leaves dst
// untouched otherwise.
func Assign(dst, src any) bool {
	var keys []string
	var get func(string) (any, bool)

	switch s := src.(type) {
	case Object:
		get = func(k string) (any, bool) { v, ok := s[k]; return v, ok }
		keys = make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
	case Record:
		get = s.Field
		keys = s.Keys()
	default:
		return false
	}

	switch d := dst.(type) {
	case Object:
		if d == nil {
			return false
		}
		for _, k := range keys {
			if v, ok := get(k); ok {
				d[k] = v
			}
		}
	case Record:
		for _, k := range keys {
			if v, ok := get(k); ok {
				d.SetField(k, v)
			}
		}
	default:
		return false
	}
	return true
}

// TypeName describes v in tree terms for error messages.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case int64:
		return "int"
	case float64:
		return "float"
	case Array:
		return "array"
	case Object:
		return "object"
	case Snapshotter:
		return "list"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Copy returns a deep copy of a tree. Lists are copied as plain arrays of
// their current elements, so the copy no longer tracks later mutation.
func Copy(v any) any {
	switch val := v.(type) {
	case Object:
		if val == nil {
			return Object(nil)
		}
		out := make(Object, len(val))
		for k, field := range val {
			out[k] = Copy(field)
		}
		return out
	case Array:
		if val == nil {
			return Array(nil)
		}
		out := make(Array, len(val))
		for i, item := range val {
			out[i] = Copy(item)
		}
		return out
	case Snapshotter:
		return Copy(Array(val.Snapshot()))
	default:
		return v
	}
}
