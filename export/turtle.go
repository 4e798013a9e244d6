package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/semonto/rdf"
)

// TurtleWriter writes RDF in Turtle format.
type TurtleWriter struct {
	prefixes map[string]string
	sb       strings.Builder
}

// NewTurtleWriter creates a Turtle writer with the given prefixes.
func NewTurtleWriter(prefixes map[string]string) *TurtleWriter {
	p := make(map[string]string, len(prefixes))
	for k, v := range prefixes {
		p[k] = v
	}
	return &TurtleWriter{prefixes: p}
}

// SetPrefix sets a namespace prefix.
func (w *TurtleWriter) SetPrefix(prefix, iri string) {
	w.prefixes[prefix] = iri
}

// WritePrefixes writes prefix declarations.
func (w *TurtleWriter) WritePrefixes() {
	// Sort prefixes for consistent output
	keys := make([]string, 0, len(w.prefixes))
	for k := range w.prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, prefix := range keys {
		w.sb.WriteString(fmt.Sprintf("@prefix %s: <%s> .\n", prefix, w.prefixes[prefix]))
	}
	w.sb.WriteString("\n")
}

// WriteTriples writes prefixes followed by one block per subject. Triples
// must be sorted.
func (w *TurtleWriter) WriteTriples(sorted []rdf.Triple) {
	w.WritePrefixes()
	for i, g := range groupBySubject(sorted) {
		if i > 0 {
			w.sb.WriteString("\n")
		}
		w.sb.WriteString(w.term(g.subject) + "\n")
		for j, t := range g.triples {
			terminator := " ;"
			if j == len(g.triples)-1 {
				terminator = " ."
			}
			w.sb.WriteString(fmt.Sprintf("    %s %s%s\n", w.predicate(t.Predicate), w.term(t.Object), terminator))
		}
	}
}

// String returns the accumulated Turtle output.
func (w *TurtleWriter) String() string {
	return w.sb.String()
}

func (w *TurtleWriter) predicate(p rdf.Term) string {
	if p.Value == rdf.RDFType {
		return "a"
	}
	return w.term(p)
}

func (w *TurtleWriter) term(t rdf.Term) string {
	switch t.Kind {
	case rdf.KindIRI:
		if c, ok := compact(w.prefixes, t.Value); ok {
			return c
		}
		return t.String()
	case rdf.KindLiteral:
		if t.Language != "" || t.Datatype == "" || t.Datatype == rdf.XSDString {
			return t.String()
		}
		lit := `"` + rdf.EscapeLiteral(t.Value) + `"`
		if c, ok := compact(w.prefixes, t.Datatype); ok {
			return lit + "^^" + c
		}
		return t.String()
	default:
		return t.String()
	}
}
