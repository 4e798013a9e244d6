package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/rdf"
)

const runDoc = `{
  "@context": {"uri": "@id", "is_a": "@type", "name": "https://example.org/onto/label"},
  "uri": "https://example.org/onto/Run#1",
  "is_a": "https://example.org/onto/Run",
  "name": "first"
}`

func TestMemory_ParseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemory("https://example.org/graph", nil)

	require.NoError(t, g.Parse(ctx, []byte(runDoc), rdf.FormatJSONLD))
	first := g.Len()
	require.NoError(t, g.Parse(ctx, []byte(runDoc), rdf.FormatJSONLD))

	assert.Equal(t, 2, first)
	assert.Equal(t, first, g.Len())
	assert.Equal(t, "https://example.org/graph", g.Identifier())
}

func TestMemory_Contains(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemory("g", nil)
	require.NoError(t, g.Add(ctx, rdf.Triple{
		Subject:   rdf.IRI("https://example.org/onto/Run"),
		Predicate: rdf.IRI(rdf.RDFType),
		Object:    rdf.IRI("http://www.w3.org/2002/07/owl#Class"),
	}))

	ok, err := g.Contains(ctx, "https://example.org/onto/Run")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Contains(ctx, "https://example.org/onto/Metric")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_TriplesSorted(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemory("g", nil)
	require.NoError(t, g.Add(ctx,
		rdf.Triple{Subject: rdf.IRI("https://b"), Predicate: rdf.IRI("https://p"), Object: rdf.Literal("1", "")},
		rdf.Triple{Subject: rdf.IRI("https://a"), Predicate: rdf.IRI("https://p"), Object: rdf.Literal("2", "")},
	))

	triples := g.Triples()
	require.Len(t, triples, 2)
	assert.Equal(t, "https://a", triples[0].Subject.Value)
}

func TestMemory_ParseError(t *testing.T) {
	g := graph.NewMemory("g", nil)
	err := g.Parse(context.Background(), []byte("{broken"), rdf.FormatJSONLD)
	assert.Error(t, err)
	assert.Equal(t, 0, g.Len())
}
