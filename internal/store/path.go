package store

import (
	"strings"

	"github.com/vgebrev/leagr/internal/apperr"
)

// getPath resolves a dotted path ("players.available") inside a decoded
// JSON document. ok is false if any segment is missing.
func getPath(body map[string]any, key string) (any, bool, error) {
	segments := strings.Split(key, ".")
	var cur any = body
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		v, exists := m[seg]
		if !exists {
			return nil, false, nil
		}
		cur = v
	}
	return cur, true, nil
}

// setPath writes value at the dotted path, creating intermediate objects as
// needed. When overwrite is false, the existing value's type at the final
// segment decides append-to-array vs shallow-merge-object semantics
// (spec §4.A `set`); default seeds the key when it is currently absent.
func setPath(body map[string]any, key string, value, def any, overwrite bool) error {
	segments := strings.Split(key, ".")
	parent := body
	for _, seg := range segments[:len(segments)-1] {
		next, exists := parent[seg]
		if !exists {
			nm := map[string]any{}
			parent[seg] = nm
			parent = nm
			continue
		}
		nm, ok := next.(map[string]any)
		if !ok {
			return apperr.Validation("path segment " + seg + " is not an object")
		}
		parent = nm
	}

	last := segments[len(segments)-1]

	if overwrite {
		parent[last] = value
		return nil
	}

	current, exists := parent[last]
	if !exists {
		current = def
	}

	switch cur := current.(type) {
	case []any:
		parent[last] = append(append([]any{}, cur...), value)
	case map[string]any:
		valMap, ok := value.(map[string]any)
		if !ok {
			return apperr.Validation("cannot merge non-object value into object at " + key)
		}
		merged := make(map[string]any, len(cur)+len(valMap))
		for k, v := range cur {
			merged[k] = v
		}
		for k, v := range valMap {
			merged[k] = v
		}
		parent[last] = merged
	case nil:
		parent[last] = value
	default:
		parent[last] = value
	}
	return nil
}
