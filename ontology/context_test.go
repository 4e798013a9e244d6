package ontology_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/c360studio/semstreams/vocabulary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semonto/ontology"
	"github.com/c360studio/semonto/vocabulary/mlonto"
)

func TestMain(m *testing.M) {
	mlonto.Register(mlonto.DefaultNamespace)
	os.Exit(m.Run())
}

func TestMergeContext(t *testing.T) {
	def := map[string]any{"uri": "@id"}

	tests := []struct {
		name   string
		caller any
		want   any
	}{
		{"nil", nil, def},
		{"empty list", []any{}, def},
		{"empty string", "", def},
		{"single", "a.jsonld", []any{"a.jsonld", def}},
		{"list", []any{"a.jsonld", "b.jsonld"}, []any{"a.jsonld", "b.jsonld", def}},
		{"default first", []any{def, "a.jsonld"}, []any{"a.jsonld", def}},
		{"only default", []any{def}, def},
		{"inline mapping", map[string]any{"x": "https://x/"}, []any{map[string]any{"x": "https://x/"}, def}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ontology.MergeContext(def, tt.caller))
		})
	}
}

func TestCombineContexts(t *testing.T) {
	parent := []any{"a.jsonld", map[string]any{"uri": "@id"}}

	assert.Equal(t, parent, ontology.CombineContexts(parent, nil))
	assert.Equal(t,
		[]any{"a.jsonld", map[string]any{"uri": "@id"}, "b.jsonld"},
		ontology.CombineContexts(parent, "b.jsonld"))
	assert.Equal(t, parent, ontology.CombineContexts(parent, "a.jsonld"))
	assert.Equal(t, "x.jsonld", ontology.CombineContexts("x.jsonld", "x.jsonld"))
}

func TestDefaultContextTerms(t *testing.T) {
	terms := ontology.DefaultContextTerms("https://example.org/onto/")

	assert.Equal(t, "@id", terms["uri"])
	assert.Equal(t, "@type", terms["is_a"])
	assert.Equal(t, map[string]any{
		"@id":   "https://example.org/onto/label",
		"@type": "http://www.w3.org/2001/XMLSchema#string",
	}, terms["name"])
	assert.Equal(t, map[string]any{
		"@id":   "https://example.org/onto/contained_in",
		"@type": "https://example.org/onto/Run",
	}, terms["run_id"])
	assert.Equal(t, map[string]any{
		"@id":   "https://example.org/onto/failure",
		"@type": "http://www.w3.org/2001/XMLSchema#boolean",
	}, terms["failed"])
}

func TestDefaultContextTerms_Unregistered(t *testing.T) {
	vocabulary.ClearRegistry()
	t.Cleanup(func() { mlonto.Register(mlonto.DefaultNamespace) })

	terms := ontology.DefaultContextTerms("https://example.org/onto/")
	assert.Equal(t, "https://example.org/onto/label", terms["name"])
	assert.Equal(t, "https://example.org/onto/failure", terms["failed"])
	assert.Equal(t, "@id", terms["uri"])
}

func TestWriteDefaultContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "default.json")

	abs, err := ontology.WriteDefaultContext(path, "https://example.org/onto/")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))

	data, err := os.ReadFile(abs)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Contains(t, doc, "@context")
	assert.Equal(t, "@id", doc["@context"].(map[string]any)["uri"])
}
