package plugin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/plugin"
	"github.com/c360studio/semonto/tracking"
)

func TestOntologyBackend_Log(t *testing.T) {
	pub := &fakePublisher{}
	backend := newFakeBackend()
	p, _ := newPlugin(t, natsConfig(), backend, plugin.WithGraphOptions(graph.WithPublisher(pub)))
	decorated := p.Backend()

	obj := tracking.New(tracking.StorageTypeRun, "r7", map[string]any{"category": "Run", "name": "seventh"})
	require.NoError(t, decorated.Log(context.Background(), obj))

	require.Len(t, backend.logged, 1)
	assert.Equal(t, "r7", backend.logged[0].UID())
	assert.True(t, containsSubject(pub.triples(t), base+"Run#r7"))
}

func TestOntologyBackend_LogDelegatesOnConversionFailure(t *testing.T) {
	pub := &fakePublisher{}
	backend := newFakeBackend()
	p, logs := newPlugin(t, natsConfig(), backend, plugin.WithGraphOptions(graph.WithPublisher(pub)))

	untyped := tracking.New(tracking.StorageTypeRun, "r8", nil)
	require.NoError(t, p.Backend().Log(context.Background(), untyped))

	assert.Len(t, backend.logged, 1)
	assert.Empty(t, pub.triples(t))
	assert.Contains(t, logs.String(), "Failed to log object as rdf")
}

func TestOntologyBackend_Forwards(t *testing.T) {
	backend := newFakeBackend()
	p, _ := newPlugin(t, nil, backend)
	decorated := plugin.NewOntologyBackend(p, backend)
	ctx := context.Background()

	assert.Same(t, backend, decorated.Unwrap())

	exps, err := decorated.ListExperiments(ctx)
	require.NoError(t, err)
	assert.Equal(t, backend.experiments, exps)

	runs, err := decorated.ListRuns(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, backend.runs["e1"], runs)

	metrics, err := decorated.ListMetrics(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, metrics, 1)

	tags, err := decorated.ListTags(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	params, err := decorated.ListParameters(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, params)

	artifacts, err := decorated.ListArtifacts(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, artifacts)

	path, err := decorated.DownloadTmpArtifacts(ctx, "r1", "model.json")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/r1/model.json", path)
}
