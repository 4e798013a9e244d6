// Package schema holds the t-box side of conversion: schema types describing
// ontology concepts (algorithms, algorithm parameters, parameter settings),
// the registry mapping additional-data paths to them, and the placeholder
// concepts synthesized when tracked data does not describe them.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/c360studio/semonto/jsonld"
)

// JSON-LD keywords a coerced document is normalized to.
const (
	KeyID   = "@id"
	KeyType = "@type"
)

// ErrMissingField is returned when a document lacks a required field.
var ErrMissingField = errors.New("schema document is missing a required field")

// Type describes an ontology concept a JSON-LD fragment can be validated
// against.
type Type struct {
	// Name identifies the type, e.g. "Algorithm".
	Name string

	// IsA is the RDF class assigned when a document declares none.
	IsA string

	// Paths are the additional-data dot-paths whose fragments describe this type.
	Paths []string

	// Required lists field names that must be present, by name or alias.
	Required []string

	// Aliases maps field names to the document keys they are written as.
	Aliases map[string]string

	// References lists fields whose string values are node references.
	References []string

	// Defaults are applied to absent fields before validation.
	Defaults map[string]any
}

// Model is a fragment coerced into a schema type.
type Model struct {
	Type string
	Doc  map[string]any
	Path string

	// Placeholder marks models synthesized in place of missing t-box data.
	Placeholder bool
}

// URI returns the identifier of the model.
func (m *Model) URI() string {
	s, _ := m.Doc[KeyID].(string)
	return s
}

// Coerce validates doc against the type and returns the normalized model.
// The input is not modified.
func (t *Type) Coerce(doc map[string]any) (*Model, error) {
	out := jsonld.Copy(doc)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range t.Defaults {
		if !t.has(out, k) {
			out[k] = v
		}
	}

	for _, field := range t.Required {
		if !t.has(out, field) {
			return nil, fmt.Errorf("%w: %s.%s", ErrMissingField, t.Name, field)
		}
	}

	renameKey(out, "uri", KeyID)
	renameKey(out, "is_a", KeyType)
	for field, alias := range t.Aliases {
		renameKey(out, field, alias)
	}
	for _, field := range t.References {
		key := field
		if alias, ok := t.Aliases[field]; ok {
			key = alias
		}
		if s, ok := out[key].(string); ok && s != "" {
			out[key] = map[string]any{KeyID: s}
		}
	}

	if _, ok := out[KeyType]; !ok && t.IsA != "" {
		out[KeyType] = t.IsA
	}
	if _, ok := out[KeyID]; !ok {
		id, err := contentID(out)
		if err != nil {
			return nil, fmt.Errorf("identify %s document: %w", t.Name, err)
		}
		base := t.IsA
		if s, ok := out[KeyType].(string); ok {
			base = s
		}
		out[KeyID] = base + "#" + id
	}
	return &Model{Type: t.Name, Doc: out}, nil
}

func (t *Type) has(doc map[string]any, field string) bool {
	if v, ok := doc[field]; ok && v != nil {
		return true
	}
	if alias, ok := t.Aliases[field]; ok {
		if v, ok := doc[alias]; ok && v != nil {
			return true
		}
	}
	return false
}

func renameKey(m map[string]any, from, to string) {
	if from == to {
		return
	}
	v, ok := m[from]
	if !ok {
		return
	}
	delete(m, from)
	if _, exists := m[to]; !exists {
		m[to] = v
	}
}

// contentID hashes a document. encoding/json sorts mapping keys, so the id
// does not depend on key order.
func contentID(doc map[string]any) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16), nil
}

// Found groups coerced models by type name.
type Found map[string][]*Model

// Add appends a model under its type.
func (f Found) Add(m *Model) {
	f[m.Type] = append(f[m.Type], m)
}

// Pop removes and returns the first model of the given type.
func (f Found) Pop(typeName string) (*Model, bool) {
	models := f[typeName]
	if len(models) == 0 {
		return nil, false
	}
	m := models[0]
	if len(models) == 1 {
		delete(f, typeName)
	} else {
		f[typeName] = models[1:]
	}
	return m, true
}

// Count returns the total number of models.
func (f Found) Count() int {
	n := 0
	for _, models := range f {
		n += len(models)
	}
	return n
}

// Documents returns all model documents ordered by type name, keeping the
// order models were added within a type.
func (f Found) Documents() []map[string]any {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)

	var docs []map[string]any
	for _, name := range names {
		for _, m := range f[name] {
			docs = append(docs, m.Doc)
		}
	}
	return docs
}
