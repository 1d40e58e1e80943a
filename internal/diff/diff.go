// Package diff flattens nested records into dotted-path key-value maps and
// computes a three-way classification (added / changed / removed) between two
// of them. It exists for observability only: results feed debug logs, never
// control flow, so every operation tolerates malformed input by treating
// undecodable values as opaque leaves.
package diff

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Change records a value transition for one key.
type Change struct {
	From string
	To   string
}

// Result is the three-way classification between two flat maps.
// A key with identical values on both sides appears in none of the sets.
type Result struct {
	Added   map[string]string
	Changed map[string]Change
	Removed map[string]string
}

// Empty reports whether the two sides were identical.
func (r Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Changed) == 0 && len(r.Removed) == 0
}

// Entries returns the total number of classified keys.
func (r Result) Entries() int {
	return len(r.Added) + len(r.Changed) + len(r.Removed)
}

// Flatten converts a nested value into a single-level mapping with dotted
// path keys. Maps descend by key, arrays by index, and string leaves that
// themselves look like serialized JSON objects or arrays are parsed and
// descended; strings that do not decode stay opaque leaves.
func Flatten(value any) map[string]string {
	// Normalize through JSON so arbitrary records (including types with
	// custom marshalers) walk as plain maps and slices.
	data, err := json.Marshal(value)
	if err != nil {
		return map[string]string{}
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return map[string]string{}
	}

	flat := make(map[string]string)
	walk("", decoded, flat)
	return flat
}

func walk(prefix string, value any, flat map[string]string) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			walk(joinPath(prefix, key), child, flat)
		}
	case []any:
		for i, child := range v {
			walk(joinPath(prefix, strconv.Itoa(i)), child, flat)
		}
	case string:
		if embedded, ok := decodeEmbeddedJSON(v); ok {
			walk(prefix, embedded, flat)
			return
		}
		flat[prefix] = v
	case nil:
		flat[prefix] = ""
	case bool:
		flat[prefix] = strconv.FormatBool(v)
	case float64:
		flat[prefix] = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		// Unreachable after a JSON round trip, but stay total.
		flat[prefix] = ""
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// decodeEmbeddedJSON detects strings that carry a serialized JSON object or
// array: a leading brace with the matching closer at the end.
func decodeEmbeddedJSON(s string) (any, bool) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 {
		return nil, false
	}
	first, last := trimmed[0], trimmed[len(trimmed)-1]
	if !(first == '{' && last == '}') && !(first == '[' && last == ']') {
		return nil, false
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

// Diff classifies every key of two flat maps as added, changed, or removed.
// It is pure and order-independent.
func Diff(before, after map[string]string) Result {
	result := Result{
		Added:   make(map[string]string),
		Changed: make(map[string]Change),
		Removed: make(map[string]string),
	}

	for key, afterValue := range after {
		beforeValue, existed := before[key]
		switch {
		case !existed:
			result.Added[key] = afterValue
		case beforeValue != afterValue:
			result.Changed[key] = Change{From: beforeValue, To: afterValue}
		}
	}
	for key, beforeValue := range before {
		if _, exists := after[key]; !exists {
			result.Removed[key] = beforeValue
		}
	}
	return result
}
