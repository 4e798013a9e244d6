package jsonld

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDownloader struct {
	runID string
	rel   string
	calls int
	err   error
}

func (d *recordingDownloader) DownloadTmpArtifacts(_ context.Context, runID, relPath string) (string, error) {
	d.calls++
	d.runID = runID
	d.rel = relPath
	if d.err != nil {
		return "", d.err
	}
	return "/tmp/downloaded/" + relPath, nil
}

func TestContextResolver_ArtifactPath(t *testing.T) {
	d := &recordingDownloader{}
	r := NewContextResolver(d, nil)

	got, err := r.Resolve(context.Background(), "mlruns/0/run-123/artifacts/sub/dir/file.json")
	require.NoError(t, err)

	assert.Equal(t, "run-123", d.runID)
	assert.Equal(t, "sub/dir/file.json", d.rel)
	assert.Equal(t, "/tmp/downloaded/sub/dir/file.json", got)
}

func TestContextResolver_RelativeRunPath(t *testing.T) {
	d := &recordingDownloader{}
	r := NewContextResolver(d, nil)

	_, err := r.Resolve(context.Background(), "abc/artifacts/ctx.json")
	require.NoError(t, err)
	assert.Equal(t, "abc", d.runID)
	assert.Equal(t, "ctx.json", d.rel)
}

func TestContextResolver_PassThrough(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "ctx.json")
	require.NoError(t, os.WriteFile(local, []byte(`{"@context":{}}`), 0o644))

	d := &recordingDownloader{}
	r := NewContextResolver(d, nil)
	inline := map[string]any{"name": "https://example.org/name"}

	tests := []struct {
		name string
		in   any
	}{
		{"url", "https://example.org/context.jsonld"},
		{"inline", inline},
		{"local file", local},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.in, got)
		})
	}
	assert.Zero(t, d.calls)
}

func TestContextResolver_ListElementWise(t *testing.T) {
	d := &recordingDownloader{}
	r := NewContextResolver(d, nil)

	got, err := r.Resolve(context.Background(), []any{
		"https://example.org/a.jsonld",
		"run-9/artifacts/b.json",
	})
	require.NoError(t, err)

	assert.Equal(t, []any{"https://example.org/a.jsonld", "/tmp/downloaded/b.json"}, got)
	assert.Equal(t, 1, d.calls)
}

func TestContextResolver_Errors(t *testing.T) {
	r := NewContextResolver(&recordingDownloader{}, nil)
	_, err := r.Resolve(context.Background(), "not-a-path")
	assert.ErrorIs(t, err, ErrUnresolvableContext)

	failing := NewContextResolver(&recordingDownloader{err: errors.New("boom")}, nil)
	_, err = failing.Resolve(context.Background(), "run/artifacts/x.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestSplitArtifactPath(t *testing.T) {
	tests := []struct {
		in    string
		run   string
		rel   string
		valid bool
	}{
		{"run-id/artifacts/file.json", "run-id", "file.json", true},
		{"/abs/exp/run-id/artifacts/a/b.json", "run-id", "a/b.json", true},
		{"artifacts/file.json", "", "", false},
		{"run-id/artifacts/", "", "", false},
		{"no-marker.json", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			run, rel, ok := SplitArtifactPath(tt.in)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.run, run)
			assert.Equal(t, tt.rel, rel)
		})
	}
}
