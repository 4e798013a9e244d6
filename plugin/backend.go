package plugin

import (
	"context"

	"github.com/c360studio/semonto/tracking"
)

// OntologyBackend decorates a tracking backend so that every logged object
// is also converted into the configured graph sink. Only Log is changed;
// every other method delegates to the wrapped backend.
type OntologyBackend struct {
	plugin *Plugin
	next   tracking.Backend
}

var _ tracking.Backend = (*OntologyBackend)(nil)

// NewOntologyBackend wraps next.
func NewOntologyBackend(p *Plugin, next tracking.Backend) *OntologyBackend {
	return &OntologyBackend{plugin: p, next: next}
}

// Unwrap returns the decorated backend.
func (b *OntologyBackend) Unwrap() tracking.Backend { return b.next }

// Log converts obj into the graph sink, then stores it in the wrapped
// backend. A failed conversion is logged and does not keep the object from
// being stored.
func (b *OntologyBackend) Log(ctx context.Context, obj tracking.Object) error {
	if _, err := b.plugin.LogRDF(ctx, obj); err != nil {
		b.plugin.logger.Warn("Failed to log object as rdf",
			"storage_type", obj.StorageType(),
			"uid", obj.UID(),
			"error", err)
	}
	return b.next.Log(ctx, obj)
}

// DownloadTmpArtifacts delegates to the wrapped backend.
func (b *OntologyBackend) DownloadTmpArtifacts(ctx context.Context, runID, relPath string) (string, error) {
	return b.next.DownloadTmpArtifacts(ctx, runID, relPath)
}

// ListExperiments delegates to the wrapped backend.
func (b *OntologyBackend) ListExperiments(ctx context.Context) ([]tracking.Object, error) {
	return b.next.ListExperiments(ctx)
}

// ListRuns delegates to the wrapped backend.
func (b *OntologyBackend) ListRuns(ctx context.Context, experimentID string) ([]tracking.Object, error) {
	return b.next.ListRuns(ctx, experimentID)
}

// ListParameters delegates to the wrapped backend.
func (b *OntologyBackend) ListParameters(ctx context.Context, runID string) ([]tracking.Object, error) {
	return b.next.ListParameters(ctx, runID)
}

// ListMetrics delegates to the wrapped backend.
func (b *OntologyBackend) ListMetrics(ctx context.Context, runID string) ([]tracking.Object, error) {
	return b.next.ListMetrics(ctx, runID)
}

// ListTags delegates to the wrapped backend.
func (b *OntologyBackend) ListTags(ctx context.Context, runID string) ([]tracking.Object, error) {
	return b.next.ListTags(ctx, runID)
}

// ListArtifacts delegates to the wrapped backend.
func (b *OntologyBackend) ListArtifacts(ctx context.Context, runID string) ([]tracking.Object, error) {
	return b.next.ListArtifacts(ctx, runID)
}
