package tracking

import "context"

// ArtifactDownloader materializes a run artifact as a local file.
type ArtifactDownloader interface {
	// DownloadTmpArtifacts copies the artifact at relPath (relative to the
	// run's artifact directory) to a temporary location and returns its path.
	DownloadTmpArtifacts(ctx context.Context, runID, relPath string) (string, error)
}

// Backend is the subset of a tracking backend the ontology plugin consumes.
type Backend interface {
	ArtifactDownloader

	ListExperiments(ctx context.Context) ([]Object, error)
	ListRuns(ctx context.Context, experimentID string) ([]Object, error)
	ListParameters(ctx context.Context, runID string) ([]Object, error)
	ListMetrics(ctx context.Context, runID string) ([]Object, error)
	ListTags(ctx context.Context, runID string) ([]Object, error)
	ListArtifacts(ctx context.Context, runID string) ([]Object, error)

	// Log stores an object in the backend.
	Log(ctx context.Context, obj Object) error
}

// Filter narrows a listing over a backend. Zero values match everything.
type Filter struct {
	StorageType  StorageType
	ExperimentID string
	RunID        string
}

// MatchesExperiment reports whether experiments with the given id pass the filter.
func (f Filter) MatchesExperiment(id string) bool {
	return f.ExperimentID == "" || f.ExperimentID == id
}

// MatchesRun reports whether runs with the given id pass the filter.
func (f Filter) MatchesRun(id string) bool {
	return f.RunID == "" || f.RunID == id
}

// Includes reports whether objects of storage type t pass the filter.
func (f Filter) Includes(t StorageType) bool {
	return f.StorageType == "" || f.StorageType == t
}

// RunObjectTypes lists the per-run storage types in listing order.
var RunObjectTypes = []StorageType{
	StorageTypeParameter,
	StorageTypeMetric,
	StorageTypeTag,
	StorageTypeArtifact,
}

// ListRunObjects dispatches a per-run listing by storage type.
func ListRunObjects(ctx context.Context, b Backend, runID string, t StorageType) ([]Object, error) {
	switch t {
	case StorageTypeParameter:
		return b.ListParameters(ctx, runID)
	case StorageTypeMetric:
		return b.ListMetrics(ctx, runID)
	case StorageTypeTag:
		return b.ListTags(ctx, runID)
	case StorageTypeArtifact:
		return b.ListArtifacts(ctx, runID)
	default:
		return nil, nil
	}
}
