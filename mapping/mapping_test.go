package mapping_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semonto/jsonld"
	"github.com/c360studio/semonto/mapping"
	"github.com/c360studio/semonto/tracking"
)

const sklearnMapping = `
name: sklearn
mappings:
  - hook: fit
    storage_type: parameter
    json_ld:
      - estimator.algorithm.@schema
      - estimator.parameters.model_parameters.@schema
    rdf:
      - estimator.@rdf
  - storage_type: metric
    json_ld:
      - metric.@schema
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParse(t *testing.T) {
	f, err := mapping.Parse([]byte(sklearnMapping))
	require.NoError(t, err)
	assert.Equal(t, "sklearn", f.Name)
	require.Len(t, f.Mappings, 2)
	assert.Equal(t, tracking.StorageTypeParameter, f.Mappings[0].StorageType)
	assert.Equal(t, []string{"estimator.@rdf"}, f.Mappings[0].RDF)
}

func TestParse_JSON(t *testing.T) {
	f, err := mapping.Parse([]byte(`{"name": "tags", "mappings": [{"storage_type": "tag", "json_ld": ["tag.@schema"]}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"tag.@schema"}, f.Mappings[0].JSONLD)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no paths", "name: x\nmappings:\n  - storage_type: tag\n"},
		{"unknown field", "name: x\nmappings:\n  - storage: tag\n    json_ld: [a]\n"},
		{"not yaml", "mappings: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mapping.Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, mapping.ErrInvalidMapping)
		})
	}
}

func TestEntry_Matches(t *testing.T) {
	param := tracking.New(tracking.StorageTypeParameter, "p", map[string]any{"hook": "fit"})

	assert.True(t, mapping.Entry{}.Matches(param))
	assert.True(t, mapping.Entry{Hook: "fit", StorageType: tracking.StorageTypeParameter}.Matches(param))
	assert.False(t, mapping.Entry{Hook: "predict"}.Matches(param))
	assert.False(t, mapping.Entry{Category: "Estimator"}.Matches(param))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "mappings", "sklearn.yaml"), sklearnMapping)
	writeFile(t, filepath.Join(root, "mappings", "nested", "tags.json"),
		`{"name": "tags", "mappings": [{"storage_type": "tag", "json_ld": ["tag.@schema"]}]}`)
	writeFile(t, filepath.Join(root, "mappings", ".hidden.yaml"), "not: [valid")
	writeFile(t, filepath.Join(root, "other", "ignored.yaml"), sklearnMapping)

	set, err := mapping.Discover(root, mapping.DefaultPatterns, nil)
	require.NoError(t, err)

	files := set.Files()
	require.Len(t, files, 2)
	names := []string{files[0].Name, files[1].Name}
	assert.ElementsMatch(t, []string{"sklearn", "tags"}, names)
}

func TestDiscover_InvalidFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "mappings", "broken.yaml"), "name: x\nmappings:\n  - hook: fit\n")

	_, err := mapping.Discover(root, mapping.DefaultPatterns, nil)
	assert.ErrorIs(t, err, mapping.ErrInvalidMapping)
}

func TestSet_Annotate(t *testing.T) {
	f, err := mapping.Parse([]byte(sklearnMapping))
	require.NoError(t, err)
	set := mapping.NewSet(nil, f)

	param := tracking.New(tracking.StorageTypeParameter, "p", map[string]any{
		"hook": "fit",
		"additional_data": map[string]any{
			"estimator": map[string]any{
				"@rdf": map[string]any{"is_a": "https://example.org/onto/MaxDepth"},
			},
			"@json-ld": []any{"estimator.algorithm.@schema", "custom.path"},
			"@rdf":     map[string]any{"label": "kept"},
		},
	})

	out := set.Annotate(param)
	ad := out.AdditionalData()

	assert.Equal(t, []any{
		"estimator.algorithm.@schema",
		"custom.path",
		"estimator.parameters.model_parameters.@schema",
	}, ad[jsonld.KeyJSONLD])
	assert.Equal(t, map[string]any{
		"label": "kept",
		"is_a":  "https://example.org/onto/MaxDepth",
	}, ad[jsonld.KeyRDF])

	// The input is left untouched.
	assert.Len(t, param.AdditionalData()[jsonld.KeyJSONLD], 2)
}

func TestSet_AnnotateNoMatch(t *testing.T) {
	f, err := mapping.Parse([]byte(sklearnMapping))
	require.NoError(t, err)
	tag := tracking.New(tracking.StorageTypeTag, "t", map[string]any{"name": "team"})

	out := mapping.NewSet(nil, f).Annotate(tag)
	assert.Empty(t, out.AdditionalData())
}
