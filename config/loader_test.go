package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semonto/graph"
)

func isolate(t *testing.T) (home, work string) {
	t.Helper()
	home = t.TempDir()
	work = t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(work)
	return home, work
}

func TestLoader_Layering(t *testing.T) {
	home, work := isolate(t)

	user := DefaultConfig()
	user.Graph.Sink = graph.SinkNATS
	user.Log.Level = "debug"
	require.NoError(t, user.SaveToFile(filepath.Join(home, UserConfigDir, UserConfigFile)))

	project := "graph:\n  sink: memory\n  id: urn:graph:project\n"
	require.NoError(t, os.WriteFile(filepath.Join(work, ProjectConfigFile), []byte(project), 0o644))

	cfg, err := NewLoader(nil).Load()
	require.NoError(t, err)

	assert.Equal(t, graph.SinkMemory, cfg.Graph.Sink, "project overrides user")
	assert.Equal(t, "urn:graph:project", cfg.Graph.ID)
	assert.Equal(t, "debug", cfg.Log.Level, "user overrides defaults")
}

func TestLoader_FindsProjectConfigInParent(t *testing.T) {
	_, work := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(work, ProjectConfigFile), []byte("store:\n  path: /data/mlruns\n"), 0o644))
	nested := filepath.Join(work, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	cfg, err := NewLoader(nil).Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/mlruns", cfg.Store.Path)
}

func TestLoader_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SEMONTO_GRAPH__SINK", "sparql")
	t.Setenv("SEMONTO_GRAPH__SPARQL__QUERY_ENDPOINT", "http://fuseki:3030/ds/query")
	t.Setenv("SEMONTO_GRAPH__SPARQL__UPDATE_ENDPOINT", "http://fuseki:3030/ds/update")
	t.Setenv("SEMONTO_GRAPH__SPARQL__TIMEOUT", "5s")
	t.Setenv("SEMONTO_DEDUP__MAX_ENTRIES_PER_GRAPH", "250")

	cfg, err := NewLoader(nil).Load()
	require.NoError(t, err)

	assert.Equal(t, graph.SinkSPARQL, cfg.Graph.Sink)
	assert.Equal(t, "http://fuseki:3030/ds/query", cfg.Graph.SPARQL.QueryEndpoint)
	assert.Equal(t, 5*time.Second, cfg.Graph.SPARQL.Timeout)
	assert.Equal(t, 250, cfg.Dedup.MaxEntriesPerGraph)
	assert.Equal(t, "info", cfg.Log.Level, "untouched fields keep their value")
}

func TestLoader_InvalidResult(t *testing.T) {
	isolate(t)
	t.Setenv("SEMONTO_GRAPH__SINK", "sparql")

	_, err := NewLoader(nil).Load()
	assert.Error(t, err)
}

func TestLoader_ExplicitFile(t *testing.T) {
	isolate(t)
	_, err := NewLoader(nil).LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o644))
	cfg, err := NewLoader(nil).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestEnsureUserConfig(t *testing.T) {
	home, _ := isolate(t)
	require.NoError(t, NewLoader(nil).EnsureUserConfig())

	cfg, err := LoadFromFile(filepath.Join(home, UserConfigDir, UserConfigFile))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Ontology.BaseURI, cfg.Ontology.BaseURI)
}
