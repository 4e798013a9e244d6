// Package graph provides the sinks converted triples are written to: an
// in-memory graph, a SPARQL 1.1 update endpoint and a NATS subject.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/c360studio/semonto/rdf"
)

// ErrUnsupported is returned by sinks that cannot answer an operation.
var ErrUnsupported = errors.New("operation not supported by graph sink")

// Graph is a named RDF graph triples can be written to.
type Graph interface {
	// Identifier returns the graph name.
	Identifier() string

	// Parse decodes serialized RDF and adds the resulting triples.
	Parse(ctx context.Context, data []byte, format rdf.Format) error

	// Add adds triples to the graph.
	Add(ctx context.Context, triples ...rdf.Triple) error

	// Contains reports whether any triple has the given subject.
	Contains(ctx context.Context, subject string) (bool, error)
}

// parseInto decodes data and adds the triples to g.
func parseInto(ctx context.Context, dec *rdf.Decoder, g Graph, data []byte, format rdf.Format) error {
	triples, err := dec.Decode(ctx, data, format)
	if err != nil {
		return fmt.Errorf("parse into graph %s: %w", g.Identifier(), err)
	}
	if len(triples) == 0 {
		return nil
	}
	return g.Add(ctx, triples...)
}
