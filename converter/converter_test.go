package converter_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semonto/converter"
	"github.com/c360studio/semonto/dedup"
	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/ontology"
	"github.com/c360studio/semonto/rdf"
	"github.com/c360studio/semonto/schema"
	"github.com/c360studio/semonto/tracking"
	"github.com/c360studio/semonto/vocabulary/mlonto"
)

const base = mlonto.DefaultNamespace

func TestMain(m *testing.M) {
	mlonto.Register(base)
	os.Exit(m.Run())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	deps   converter.Dependencies
	writer *graph.AsyncWriter
	logs   *syncBuffer
	graph  *graph.Memory
}

func newHarness(t *testing.T, downloader tracking.ArtifactDownloader) *harness {
	t.Helper()
	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	writer := graph.NewAsyncWriter(logger, nil)
	return &harness{
		deps: converter.Dependencies{
			Builder:    ontology.NewBuilder(base, ontology.WithLogger(logger)),
			Dedup:      dedup.NewStore(),
			Writer:     writer,
			Downloader: downloader,
			Logger:     logger,
		},
		writer: writer,
		logs:   logs,
		graph:  graph.NewMemory(base, nil),
	}
}

func (h *harness) contains(t *testing.T, subject string) bool {
	t.Helper()
	ok, err := h.graph.Contains(context.Background(), subject)
	require.NoError(t, err)
	return ok
}

func runObject() tracking.Object {
	return tracking.New(tracking.StorageTypeRun, "r1", map[string]any{
		"category": "Run",
		"name":     "first run",
	})
}

func TestRegistry_CatchAllNeverShadows(t *testing.T) {
	h := newHarness(t, nil)
	r := converter.NewRegistry()
	r.Register(converter.NewGeneric(h.deps))
	r.Register(converter.NewIgnore(converter.Criteria{StorageType: tracking.StorageTypeLoggerCall}, nil))

	names := []string{}
	for _, c := range r.Converters() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{converter.NameIgnore, converter.NameGeneric}, names)

	call := tracking.New(tracking.StorageTypeLoggerCall, "c1", map[string]any{"name": "call"})
	assert.Equal(t, converter.NameIgnore, r.Select(call).Name())
	assert.Equal(t, converter.NameGeneric, r.Select(runObject()).Name())
}

func TestRegistry_EmptySelectsNothing(t *testing.T) {
	assert.Nil(t, converter.NewRegistry().Select(runObject()))
}

func TestDefaultRegistry_Selection(t *testing.T) {
	h := newHarness(t, nil)
	r := converter.DefaultRegistry(h.deps)

	tests := []struct {
		storageType tracking.StorageType
		want        string
	}{
		{tracking.StorageTypeLoggerCall, converter.NameIgnore},
		{tracking.StorageTypeParameter, converter.NameParameter},
		{tracking.StorageTypeMetric, converter.NameMetric},
		{tracking.StorageTypeTag, converter.NameTag},
		{tracking.StorageTypeArtifact, converter.NameArtifact},
		{tracking.StorageTypeRun, converter.NameGeneric},
		{"", converter.NameGeneric},
	}
	for _, tt := range tests {
		t.Run(string(tt.storageType), func(t *testing.T) {
			obj := tracking.New(tt.storageType, "x", map[string]any{"name": "x"})
			c := r.Select(obj)
			require.NotNil(t, c)
			assert.Equal(t, tt.want, c.Name())
		})
	}
}

func TestCriteria_Matches(t *testing.T) {
	byCategory := converter.Criteria{Category: "Estimator"}
	estimator := tracking.New(tracking.StorageTypeArtifact, "e", map[string]any{"category": "Estimator"})
	assert.True(t, byCategory.Matches(estimator))
	assert.False(t, byCategory.Matches(runObject()))

	both := converter.Criteria{Category: "Estimator", StorageType: tracking.StorageTypeRun}
	assert.True(t, both.Matches(runObject()))
	assert.True(t, converter.Criteria{}.Matches(runObject()))
}

func TestGeneric_IdempotentGrowth(t *testing.T) {
	h := newHarness(t, nil)
	c := converter.NewGeneric(h.deps)
	ctx := context.Background()

	first, err := c.Convert(ctx, runObject(), h.graph)
	require.NoError(t, err)
	h.writer.Wait()
	size := h.graph.Len()

	second, err := c.Convert(ctx, runObject(), h.graph)
	require.NoError(t, err)
	h.writer.Wait()

	assert.Positive(t, size)
	assert.Equal(t, size, h.graph.Len())
	assert.Equal(t, 0, first.Duplicates)
	assert.Equal(t, 1, second.Duplicates)
	assert.Equal(t, base+"Run#r1", first.Model.URI)
	assert.True(t, h.contains(t, base+"Run#r1"))
	assert.Zero(t, h.writer.Failures())
}

func TestGeneric_RDFOverrideAndFragments(t *testing.T) {
	h := newHarness(t, nil)
	obj := tracking.New(tracking.StorageTypeRun, "r2", map[string]any{
		"category": "Run",
		"name":     "second",
		"additional_data": map[string]any{
			"@rdf": map[string]any{"is_a": "https://example.org/onto/TrainingRun"},
			"dataset": map[string]any{
				"@id":                    "https://example.org/data/iris",
				"https://example.org/p": "iris",
			},
			"@json-ld": []any{"dataset", "missing.path"},
		},
	})

	res, err := converter.NewGeneric(h.deps).Convert(context.Background(), obj, h.graph)
	require.NoError(t, err)
	h.writer.Wait()

	assert.Equal(t, "https://example.org/onto/TrainingRun", res.Model.IsA)
	assert.Equal(t, "https://example.org/onto/TrainingRun#r2", res.Model.URI)
	assert.Equal(t, 1, res.Fragments)
	assert.True(t, h.contains(t, "https://example.org/data/iris"))
	assert.Contains(t, h.logs.String(), "missing.path")

	ad, _ := res.Model.Fields["additional_data"].(map[string]any)
	assert.NotContains(t, ad, "@json-ld")
	assert.NotContains(t, ad, "@rdf")
}

func (h *harness) objectOf(subject, predicate string) (rdf.Term, bool) {
	for _, tr := range h.graph.Triples() {
		if tr.Subject.Value == subject && tr.Predicate.Value == predicate {
			return tr.Object, true
		}
	}
	return rdf.Term{}, false
}

// fragmentRun carries one fragment with its own context and one that no
// JSON-LD processor accepts.
func fragmentRun() tracking.Object {
	return tracking.New(tracking.StorageTypeRun, "r3", map[string]any{
		"category": "Run",
		"name":     "third",
		"additional_data": map[string]any{
			"@json-ld": []any{
				map[string]any{
					"@context": map[string]any{"ex": "https://example.org/ex#"},
					"@id":      "ex:a",
					"ex:p":     "v",
					"name":     "A",
				},
				map[string]any{"@id": map[string]any{"bad": 1}, "@type": 7},
			},
		},
	})
}

func TestGeneric_BrokenFragmentIsSkipped(t *testing.T) {
	h := newHarness(t, nil)

	res, err := converter.NewGeneric(h.deps).Convert(context.Background(), fragmentRun(), h.graph)
	require.NoError(t, err)
	h.writer.Wait()

	assert.Equal(t, 2, res.Fragments)
	assert.Equal(t, int64(1), h.writer.Failures())
	assert.Contains(t, h.logs.String(), "Couldn't translate document to rdf")

	// The model still lands.
	typ, ok := h.objectOf(base+"Run#r3", rdf.RDFType)
	require.True(t, ok)
	assert.Equal(t, base+"Run", typ.Value)

	// The fragment's own prefix resolves and the parent's terms are inherited.
	p, ok := h.objectOf("https://example.org/ex#a", "https://example.org/ex#p")
	require.True(t, ok)
	assert.Equal(t, "v", p.Value)
	label, ok := h.objectOf("https://example.org/ex#a", base+mlonto.TermLabel)
	require.True(t, ok)
	assert.Equal(t, "A", label.Value)
}

func TestGeneric_FailedWriteIsRetried(t *testing.T) {
	h := newHarness(t, nil)
	c := converter.NewGeneric(h.deps)
	ctx := context.Background()

	_, err := c.Convert(ctx, fragmentRun(), h.graph)
	require.NoError(t, err)
	h.writer.Wait()
	size := h.graph.Len()

	second, err := c.Convert(ctx, fragmentRun(), h.graph)
	require.NoError(t, err)
	h.writer.Wait()

	// Model and valid fragment are duplicates, the failed fragment is tried again.
	assert.Equal(t, 2, second.Duplicates)
	assert.Equal(t, 1, second.Fragments)
	assert.Equal(t, int64(2), h.writer.Failures())
	assert.Equal(t, size, h.graph.Len())
}

func TestGeneric_NoType(t *testing.T) {
	h := newHarness(t, nil)
	obj := tracking.New("", "", map[string]any{"value": 1})

	_, err := converter.NewGeneric(h.deps).Convert(context.Background(), obj, h.graph)
	assert.ErrorIs(t, err, ontology.ErrNoType)
}

func TestGeneric_NilGraph(t *testing.T) {
	h := newHarness(t, nil)
	_, err := converter.NewGeneric(h.deps).Convert(context.Background(), runObject(), nil)
	assert.Error(t, err)
}

func TestIgnore_WritesNothing(t *testing.T) {
	h := newHarness(t, nil)
	c := converter.NewIgnore(converter.Criteria{StorageType: tracking.StorageTypeLoggerCall}, nil)
	call := tracking.New(tracking.StorageTypeLoggerCall, "c1", map[string]any{"name": "call"})

	res, err := c.Convert(context.Background(), call, h.graph)
	require.NoError(t, err)
	assert.True(t, res.Ignored)
	assert.Zero(t, h.graph.Len())
}

func parameterObject(ad map[string]any) tracking.Object {
	fields := map[string]any{
		"name":   "max_depth",
		"value":  3,
		"run_id": "r1",
	}
	if ad != nil {
		fields["additional_data"] = ad
	}
	return tracking.New(tracking.StorageTypeParameter, "p1", fields)
}

func TestParameter_Placeholders(t *testing.T) {
	h := newHarness(t, nil)

	res, err := converter.NewParameter(h.deps).Convert(context.Background(), parameterObject(nil), h.graph)
	require.NoError(t, err)
	h.writer.Wait()

	assert.Equal(t, 3, res.Placeholders)
	assert.Equal(t, 3, res.Found.Count())
	assert.Equal(t, 3, res.Fragments)
	assert.Equal(t, base+"Parameter#Unknown", res.Model.Fields[mlonto.TermImplements])

	for _, uri := range []string{
		base + "Algorithm#Dummy",
		base + "AlgorithmParameter#Dummy",
		base + "Parameter#Unknown",
		base + "max_depth#p1",
	} {
		assert.True(t, h.contains(t, uri), uri)
	}
	logs := h.logs.String()
	assert.Contains(t, logs, "using a placeholder")
	assert.Contains(t, logs, "Class of parameter was not found in ontology")
	assert.Zero(t, h.writer.Failures())
}

func TestParameter_UsesProvidedAlgorithm(t *testing.T) {
	h := newHarness(t, nil)
	ad := map[string]any{
		"estimator": map[string]any{
			"algorithm": map[string]any{
				"@schema": map[string]any{
					"uri":         base + "Algorithm#DecisionTree",
					"label":       "Decision tree",
					"description": "Tree based classifier",
					"solves":      base + "Task#Classification",
				},
			},
		},
		"@json-ld": []any{"estimator.algorithm.@schema"},
	}

	res, err := converter.NewParameter(h.deps).Convert(context.Background(), parameterObject(ad), h.graph)
	require.NoError(t, err)
	h.writer.Wait()

	assert.Equal(t, 2, res.Placeholders)
	alg, ok := res.Found.Pop(schema.TypeAlgorithm)
	require.True(t, ok)
	assert.Equal(t, base+"Algorithm#DecisionTree", alg.URI())
	assert.False(t, alg.Placeholder)
	assert.True(t, h.contains(t, base+"Algorithm#DecisionTree"))
	assert.False(t, h.contains(t, base+"Algorithm#Dummy"))
}

func TestParameter_InvalidSchemaFragmentPassesThrough(t *testing.T) {
	h := newHarness(t, nil)
	ad := map[string]any{
		"estimator": map[string]any{
			"algorithm": map[string]any{
				"@schema": map[string]any{
					"@id":   "https://example.org/alg/incomplete",
					"@type": "https://example.org/IncompleteAlgorithm",
				},
			},
		},
		"@json-ld": []any{"estimator.algorithm.@schema"},
	}

	res, err := converter.NewParameter(h.deps).Convert(context.Background(), parameterObject(ad), h.graph)
	require.NoError(t, err)
	h.writer.Wait()

	assert.Equal(t, 3, res.Placeholders)
	assert.Equal(t, 4, res.Fragments)
	assert.Contains(t, h.logs.String(), "does not match its schema type")
	assert.True(t, h.contains(t, "https://example.org/alg/incomplete"))
}

type fileDownloader struct {
	dir string
}

func (d fileDownloader) DownloadTmpArtifacts(_ context.Context, runID, relPath string) (string, error) {
	return filepath.Join(d.dir, runID, relPath), nil
}

func TestArtifact_LoadsJSONLDContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "r1"), 0o755))
	content := `{"@context": {"ex": "https://example.org/"}, "@id": "ex:model", "ex:accuracy": "0.93"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "r1", "model.json"), []byte(content), 0o644))

	h := newHarness(t, fileDownloader{dir: dir})
	obj := tracking.New(tracking.StorageTypeArtifact, "a1", map[string]any{
		"category":    "Artifact",
		"name":        "model.json",
		"run_id":      "r1",
		"file_format": "json",
		"path":        "model.json",
	})

	res, err := converter.NewArtifact(h.deps).Convert(context.Background(), obj, h.graph)
	require.NoError(t, err)
	h.writer.Wait()

	assert.Equal(t, 1, res.Fragments)
	assert.True(t, h.contains(t, base+"Artifact#a1"))
	assert.True(t, h.contains(t, "https://example.org/model"))
}

func TestArtifact_NonJSONIsNotLoaded(t *testing.T) {
	h := newHarness(t, fileDownloader{dir: t.TempDir()})
	obj := tracking.New(tracking.StorageTypeArtifact, "a2", map[string]any{
		"category":    "Artifact",
		"run_id":      "r1",
		"file_format": "pickle",
		"path":        "model.pkl",
	})

	res, err := converter.NewArtifact(h.deps).Convert(context.Background(), obj, h.graph)
	require.NoError(t, err)
	h.writer.Wait()
	assert.Zero(t, res.Fragments)
}

func TestNormalize(t *testing.T) {
	_, err := converter.Normalize(42)
	assert.ErrorIs(t, err, converter.ErrUnconvertible)

	obj, err := converter.Normalize(map[string]any{"storage_type": "metric", "uid": "m"})
	require.NoError(t, err)
	assert.Equal(t, tracking.StorageTypeMetric, obj.StorageType())
}
