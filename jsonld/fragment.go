// Package jsonld extracts embedded JSON-LD instructions from tracked
// metadata and resolves the contexts they reference.
package jsonld

import (
	"log/slog"
)

// Keys in additional_data carrying embedded instructions.
const (
	KeyRDF     = "@rdf"
	KeyJSONLD  = "@json-ld"
	KeyContext = "@context"
)

// Fragment is a single JSON-LD resource description found in additional
// data. Path is the dot-path it was resolved from, empty for fragments
// supplied literally.
type Fragment struct {
	Doc  map[string]any
	Path string
}

// Instructions holds everything pulled out of additional data.
type Instructions struct {
	// RDF is merged directly into the object's fields.
	RDF       map[string]any
	Fragments []Fragment
}

// Extract reads the @rdf and @json-ld entries from additional data.
// Entries that cannot be resolved are logged and skipped.
func Extract(data map[string]any, logger *slog.Logger) Instructions {
	if logger == nil {
		logger = slog.Default()
	}
	var out Instructions
	if len(data) == 0 {
		return out
	}

	if raw, ok := data[KeyRDF]; ok && raw != nil {
		if rdf, ok := raw.(map[string]any); ok {
			out.RDF = Copy(rdf)
		} else {
			logger.Warn("Ignoring @rdf entry that is not a mapping", "type", typeName(raw))
		}
	}

	raw, ok := data[KeyJSONLD]
	if !ok || raw == nil {
		return out
	}
	for _, entry := range entries(raw) {
		switch e := entry.(type) {
		case string:
			out.Fragments = append(out.Fragments, resolvePath(data, e, logger)...)
		case map[string]any:
			out.Fragments = append(out.Fragments, Fragment{Doc: Copy(e)})
		default:
			logger.Warn("Mapping provided an invalid json-ld entry; expected a json-ld document or a path into additional data",
				"entry", e)
		}
	}
	return out
}

// entries normalizes the @json-ld value to a list. A single path or document
// counts as a one-element list.
func entries(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	default:
		return []any{v}
	}
}

func resolvePath(data map[string]any, path string, logger *slog.Logger) []Fragment {
	val, ok := Lookup(data, path)
	if !ok {
		logger.Warn("Mapping does not define a json-ld in additional data", "path", path)
		return nil
	}
	switch v := val.(type) {
	case map[string]any:
		return []Fragment{{Doc: Copy(v), Path: path}}
	case []any:
		frags := make([]Fragment, 0, len(v))
		for i, e := range v {
			m, ok := e.(map[string]any)
			if !ok {
				logger.Warn("Dropping json-ld list element that is not a mapping", "path", path, "index", i)
				continue
			}
			frags = append(frags, Fragment{Doc: Copy(m), Path: path})
		}
		return frags
	default:
		logger.Warn("Value found for json-ld path is not valid", "path", path, "type", typeName(v))
		return nil
	}
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case float64, int, int64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "mapping"
	default:
		return "unknown"
	}
}
