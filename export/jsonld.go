package export

import (
	"encoding/json"

	"github.com/c360studio/semonto/rdf"
)

// JSONLDDocument represents a JSON-LD document structure.
type JSONLDDocument struct {
	Context map[string]any `json:"@context"`
	Graph   []JSONLDNode   `json:"@graph"`
}

// JSONLDNode represents a node in a JSON-LD graph.
type JSONLDNode struct {
	ID         string
	Type       []string
	Properties map[string][]any
}

// MarshalJSON implements custom JSON marshaling for JSONLDNode.
func (n JSONLDNode) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Properties)+2)
	m["@id"] = n.ID
	if len(n.Type) > 0 {
		m["@type"] = n.Type
	}
	for k, v := range n.Properties {
		if len(v) == 1 {
			m[k] = v[0]
			continue
		}
		m[k] = v
	}
	return json.Marshal(m)
}

// JSONLDWriter writes RDF in JSON-LD format. Nodes are emitted in a single
// @graph with the configured prefixes as context.
type JSONLDWriter struct {
	prefixes map[string]string
	doc      JSONLDDocument
}

// NewJSONLDWriter creates a JSON-LD writer with the given prefixes.
func NewJSONLDWriter(prefixes map[string]string) *JSONLDWriter {
	ctx := make(map[string]any, len(prefixes))
	for k, v := range prefixes {
		ctx[k] = v
	}
	return &JSONLDWriter{
		prefixes: prefixes,
		doc: JSONLDDocument{
			Context: ctx,
			Graph:   make([]JSONLDNode, 0),
		},
	}
}

// AddTriples adds one node per subject. Triples must be sorted.
func (w *JSONLDWriter) AddTriples(sorted []rdf.Triple) {
	for _, g := range groupBySubject(sorted) {
		node := JSONLDNode{ID: w.id(g.subject), Properties: make(map[string][]any)}
		for _, t := range g.triples {
			if t.Predicate.Value == rdf.RDFType && t.Object.Kind == rdf.KindIRI {
				node.Type = append(node.Type, w.iri(t.Object.Value))
				continue
			}
			key := w.iri(t.Predicate.Value)
			node.Properties[key] = append(node.Properties[key], w.value(t.Object))
		}
		w.doc.Graph = append(w.doc.Graph, node)
	}
}

// Document returns the accumulated document.
func (w *JSONLDWriter) Document() JSONLDDocument {
	return w.doc
}

// Bytes returns the indented JSON-LD output.
func (w *JSONLDWriter) Bytes() ([]byte, error) {
	return json.MarshalIndent(w.doc, "", "  ")
}

func (w *JSONLDWriter) iri(v string) string {
	if c, ok := compact(w.prefixes, v); ok {
		return c
	}
	return v
}

func (w *JSONLDWriter) id(t rdf.Term) string {
	if t.Kind == rdf.KindBlank {
		return "_:" + t.Value
	}
	return w.iri(t.Value)
}

func (w *JSONLDWriter) value(t rdf.Term) any {
	switch t.Kind {
	case rdf.KindIRI, rdf.KindBlank:
		return map[string]any{"@id": w.id(t)}
	}
	switch {
	case t.Language != "":
		return map[string]any{"@value": t.Value, "@language": t.Language}
	case t.Datatype == "" || t.Datatype == rdf.XSDString:
		return t.Value
	default:
		return map[string]any{"@value": t.Value, "@type": w.iri(t.Datatype)}
	}
}
