package jsonld

import (
	"strconv"
	"strings"
)

// Copy returns a deep copy of a decoded JSON mapping. Nested mappings and
// lists are copied, scalars are shared.
func Copy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Copy(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Copy(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	default:
		return v
	}
}

// Merge deep-merges src into a copy of dst. Nested mappings are merged key by
// key, any other value in src replaces the one in dst.
func Merge(dst, src map[string]any) map[string]any {
	out := Copy(dst)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range src {
		sub, srcIsMap := v.(map[string]any)
		cur, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = Merge(cur, sub)
			continue
		}
		out[k] = copyValue(v)
	}
	return out
}

// Lookup resolves a dot-path inside a decoded JSON value. Segments address
// mapping keys; numeric segments also index into lists.
func Lookup(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = data
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}
