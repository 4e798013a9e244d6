// Package ontology turns tracked object fields into ontology annotated
// models: it synthesizes missing type and identifier URIs, embeds nested
// experiment and run references as sub-entities and attaches the JSON-LD
// context the model is interpreted with.
package ontology

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/c360studio/semonto/jsonld"
)

// Keys with a fixed meaning on a model document.
const (
	KeyURI  = "uri"
	KeyIsA  = "is_a"
	KeyUID  = "uid"
	KeyID   = "id"
	KeyName = "name"
)

var (
	// ErrNoType is returned when no type can be derived for an object: it
	// has no explicit is_a, no category and no name.
	ErrNoType = errors.New("cannot derive ontology type")

	// ErrInvalidURI is returned for explicit uri or is_a values that are
	// not absolute URIs.
	ErrInvalidURI = errors.New("invalid ontology uri")
)

// Model is an ontology annotated view of a tracked object.
type Model struct {
	URI     string
	IsA     string
	Context any
	// Fields holds every other field, sub-entities already extended.
	Fields map[string]any
}

// Document returns the model as a JSON-LD document. Sub-entity models are
// embedded in the fields; embedded models carry no context.
func (m *Model) Document() map[string]any {
	doc := jsonld.Copy(m.Fields)
	if doc == nil {
		doc = map[string]any{}
	}
	doc[KeyURI] = m.URI
	doc[KeyIsA] = m.IsA
	if m.Context != nil {
		doc[jsonld.KeyContext] = copyContext(m.Context)
	} else {
		delete(doc, jsonld.KeyContext)
	}
	return doc
}

// MarshalJSON implements json.Marshaler.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Document())
}

// Get returns a field of the model.
func (m *Model) Get(key string) (any, bool) {
	switch key {
	case KeyURI:
		return m.URI, true
	case KeyIsA:
		return m.IsA, true
	}
	v, ok := m.Fields[key]
	return v, ok
}

func copyContext(c any) any {
	switch v := c.(type) {
	case map[string]any:
		return jsonld.Copy(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = copyContext(e)
		}
		return out
	default:
		return v
	}
}

func validateURI(kind, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalidURI, kind, raw, err)
	}
	if !u.IsAbs() || (u.Host == "" && u.Opaque == "") {
		return fmt.Errorf("%w: %s %q is not absolute", ErrInvalidURI, kind, raw)
	}
	return nil
}
