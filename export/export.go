// Package export serializes converted triples to Turtle, N-Triples and
// JSON-LD.
package export

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/c360studio/semonto/rdf"
	"github.com/c360studio/semonto/vocabulary/mlonto"
)

// ErrUnsupportedFormat is returned for unknown format names.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Exporter serializes triples with a set of namespace prefixes.
type Exporter struct {
	prefixes map[string]string
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithPrefix adds or replaces a namespace prefix.
func WithPrefix(prefix, iri string) Option {
	return func(e *Exporter) { e.prefixes[prefix] = iri }
}

// NewExporter creates an exporter whose ontology prefix points at base.
func NewExporter(base string, opts ...Option) *Exporter {
	e := &Exporter{prefixes: defaultPrefixes(mlonto.NormalizeBase(base))}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// defaultPrefixes returns the standard namespace prefixes for RDF export.
func defaultPrefixes(base string) map[string]string {
	return map[string]string{
		"rdf":    "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"rdfs":   mlonto.RDFSNamespace,
		"owl":    "http://www.w3.org/2002/07/owl#",
		"xsd":    mlonto.XSDNamespace,
		"mlonto": base,
	}
}

// Prefixes returns a copy of the configured prefixes.
func (e *Exporter) Prefixes() map[string]string {
	out := make(map[string]string, len(e.prefixes))
	for k, v := range e.prefixes {
		out[k] = v
	}
	return out
}

// Export serializes triples to the given format.
func (e *Exporter) Export(triples []rdf.Triple, format Format) (string, error) {
	var sb strings.Builder
	if err := e.Write(&sb, triples, format); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Write serializes triples to w. Triples are written in N-Triples order
// regardless of input order.
func (e *Exporter) Write(w io.Writer, triples []rdf.Triple, format Format) error {
	sorted := make([]rdf.Triple, len(triples))
	copy(sorted, triples)
	rdf.Sort(sorted)

	switch format {
	case FormatNTriples:
		return rdf.EncodeNTriples(w, sorted)
	case FormatTurtle:
		tw := NewTurtleWriter(e.prefixes)
		tw.WriteTriples(sorted)
		_, err := io.WriteString(w, tw.String())
		return err
	case FormatJSONLD:
		jw := NewJSONLDWriter(e.prefixes)
		jw.AddTriples(sorted)
		data, err := jw.Bytes()
		if err != nil {
			return fmt.Errorf("encode json-ld: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// subjectGroup holds the triples sharing a subject, in order.
type subjectGroup struct {
	subject rdf.Term
	triples []rdf.Triple
}

func groupBySubject(sorted []rdf.Triple) []subjectGroup {
	var groups []subjectGroup
	for _, t := range sorted {
		if n := len(groups); n > 0 && groups[n-1].subject == t.Subject {
			groups[n-1].triples = append(groups[n-1].triples, t)
			continue
		}
		groups = append(groups, subjectGroup{subject: t.Subject, triples: []rdf.Triple{t}})
	}
	return groups
}

var localName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// compact returns prefix:local for iri when a prefix matches and the local
// part is a valid prefixed name. The longest matching namespace wins.
func compact(prefixes map[string]string, iri string) (string, bool) {
	keys := make([]string, 0, len(prefixes))
	for k := range prefixes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(prefixes[keys[i]]) != len(prefixes[keys[j]]) {
			return len(prefixes[keys[i]]) > len(prefixes[keys[j]])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		ns := prefixes[k]
		if ns == "" || !strings.HasPrefix(iri, ns) {
			continue
		}
		if local := strings.TrimPrefix(iri, ns); localName.MatchString(local) {
			return k + ":" + local, true
		}
	}
	return "", false
}
