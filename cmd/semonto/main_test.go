package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semonto/dedup"
	"github.com/c360studio/semonto/vocabulary/mlonto"
)

// setup isolates config discovery and returns a seeded store directory.
func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	dedup.ResetGlobal()
	t.Cleanup(dedup.ResetGlobal)

	store := t.TempDir()
	files := map[string]string{
		"e1/meta.json":                `{"name": "iris"}`,
		"e1/r1/meta.json":             `{"name": "first"}`,
		"e1/r1/metrics/accuracy.json": `{"name": "accuracy", "value": 0.9}`,
		"e1/r1/tags/owner.json":       `{"name": "owner", "value": "lab"}`,
		"e2/meta.json":                `{"name": "wine"}`,
		"e2/r2/meta.json":             `{"name": "second"}`,
		"e2/r2/params/max_depth.json": `{"name": "max_depth", "value": 3}`,
	}
	for rel, content := range files {
		path := filepath.Join(store, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return store
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "semonto version "+Version)
}

func TestExportCommand(t *testing.T) {
	store := setup(t)

	out, err := execute(t, "export", "--store", store, "--format", "nt")
	require.NoError(t, err)

	base := mlonto.DefaultNamespace
	for _, subject := range []string{
		"<" + base + "Experiment#e1>",
		"<" + base + "Run#r1>",
		"<" + base + "accuracy#accuracy>",
		"<" + base + "Experiment#e2>",
	} {
		assert.Contains(t, out, subject)
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.True(t, strings.HasSuffix(line, " ."), line)
	}
}

func TestExportCommand_Filtered(t *testing.T) {
	store := setup(t)
	output := filepath.Join(t.TempDir(), "out.ttl")

	_, err := execute(t, "export", "--store", store, "--experiment", "e1", "--output", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "@prefix mlonto:")
	assert.Contains(t, string(data), "Run#r1")
	assert.NotContains(t, string(data), "Experiment#e2")
}

func TestExportCommand_UnknownFormat(t *testing.T) {
	store := setup(t)

	_, err := execute(t, "export", "--store", store, "--format", "rdfxml")
	assert.Error(t, err)
}

func TestLogCommand(t *testing.T) {
	store := setup(t)
	input := filepath.Join(t.TempDir(), "objects.json")
	require.NoError(t, os.WriteFile(input, []byte(`[
		{"storage_type": "metric", "uid": "m9", "name": "f1", "run_id": "r1", "value": 0.7},
		{"storage_type": "tag", "uid": "t9", "name": "team", "run_id": "r2", "value": "ml"}
	]`), 0o644))

	_, err := execute(t, "log", "--store", store, input)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(store, "e1", "r1", "metrics", "m9.json"))
	assert.FileExists(t, filepath.Join(store, "e2", "r2", "tags", "t9.json"))
}

func TestLogCommand_InvalidInput(t *testing.T) {
	store := setup(t)
	input := filepath.Join(t.TempDir(), "objects.json")
	require.NoError(t, os.WriteFile(input, []byte(`[1, 2]`), 0o644))

	_, err := execute(t, "log", "--store", store, input)
	assert.Error(t, err)
}
