package ontology

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/c360studio/semonto/jsonld"
	"github.com/c360studio/semonto/vocabulary/mlonto"
)

// contextTerm maps a default context key to an ontology predicate. Entity
// references with a class are coerced to that class.
type contextTerm struct {
	key       string
	predicate string
	class     string
}

var contextTerms = []contextTerm{
	{"experiment_uri", mlonto.ObjectContainedIn, mlonto.ClassExperiment},
	{"run_id", mlonto.ObjectContainedIn, mlonto.ClassRun},
	{"created_at", mlonto.ObjectCreatedAt, ""},
	{"name", mlonto.ObjectLabel, ""},
	{"context", mlonto.ObjectRelatesTo, "Context"},
	{"reference", mlonto.ObjectRepresents, ""},
	{"produced_by", mlonto.ObjectProducedBy, mlonto.ClassLoggerCall},
	{"failed", mlonto.RunFailure, ""},
	{"implements", mlonto.ConceptImplements, ""},
}

// DefaultContextTerms returns the term definitions every top-level model is
// interpreted with. Terms are relative to base. Value coercion comes from the
// predicate data types in the vocabulary registry (see mlonto.Register); a
// predicate that is not registered maps to its bare IRI.
func DefaultContextTerms(base string) map[string]any {
	terms := map[string]any{
		"rdfs": mlonto.RDFSNamespace,
		"uri":  "@id",
		"is_a": "@type",
	}
	for _, ct := range contextTerms {
		local, _ := mlonto.LocalName(ct.predicate)
		id := mlonto.Term(base, local)

		coercion, ok := mlonto.Coercion(ct.predicate)
		if !ok {
			terms[ct.key] = id
			continue
		}
		if coercion == "@id" && ct.class != "" {
			coercion = mlonto.Class(base, ct.class)
		}
		terms[ct.key] = map[string]any{"@id": id, "@type": coercion}
	}
	return terms
}

// DefaultContextDocument wraps the default terms in a context document, the
// shape a JSON-LD processor expects when the context is loaded from a file.
func DefaultContextDocument(base string) map[string]any {
	return map[string]any{jsonld.KeyContext: DefaultContextTerms(base)}
}

// WriteDefaultContext persists the default context document to path and
// returns the absolute path, suitable as a default context reference.
func WriteDefaultContext(path, base string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve context path: %w", err)
	}
	data, err := json.MarshalIndent(DefaultContextDocument(base), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal default context: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create context directory: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", fmt.Errorf("write default context: %w", err)
	}
	return abs, nil
}

// MergeContext combines a caller supplied context with the default context.
// Without a caller context the result is exactly def. Otherwise the result is
// a list of the caller contexts, with any copy of def removed, followed by
// def, so def appears exactly once and last.
func MergeContext(def, caller any) any {
	contexts := flatten(caller)
	if len(contexts) == 0 {
		return def
	}
	out := make([]any, 0, len(contexts)+1)
	for _, c := range contexts {
		if reflect.DeepEqual(c, def) {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return def
	}
	return append(out, def)
}

// CombineContexts appends the contexts of child after those of parent,
// skipping duplicates. Later entries take precedence in JSON-LD, so terms a
// fragment defines itself override inherited ones.
func CombineContexts(parent, child any) any {
	own := flatten(child)
	if len(own) == 0 {
		return parent
	}
	inherited := flatten(parent)
	out := make([]any, 0, len(inherited)+len(own))
	for _, c := range append(inherited, own...) {
		if containsContext(out, c) {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func containsContext(list []any, c any) bool {
	for _, e := range list {
		if reflect.DeepEqual(e, c) {
			return true
		}
	}
	return false
}

func flatten(c any) []any {
	switch v := c.(type) {
	case nil:
		return nil
	case []any:
		out := make([]any, 0, len(v))
		for _, e := range v {
			if e != nil {
				out = append(out, e)
			}
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []any{v}
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
		return []any{v}
	default:
		return []any{v}
	}
}
