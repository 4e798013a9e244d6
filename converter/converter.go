// Package converter turns tracked objects into RDF. A Registry selects the
// converter for an object by storage type or category; every converter runs
// the same pipeline: build the ontology model, extract embedded JSON-LD,
// reconcile fragments with known schema types and write everything that was
// not seen before into the target graph.
package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/c360studio/semonto/dedup"
	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/jsonld"
	"github.com/c360studio/semonto/metrics"
	"github.com/c360studio/semonto/ontology"
	"github.com/c360studio/semonto/schema"
	"github.com/c360studio/semonto/tracking"
)

// ErrUnconvertible is returned for inputs that are neither tracked objects
// nor field mappings.
var ErrUnconvertible = errors.New("object cannot be converted to rdf")

// Criteria decides which objects a converter applies to.
type Criteria struct {
	StorageType tracking.StorageType
	Category    string
}

// IsCatchAll reports whether the criteria match every object.
func (c Criteria) IsCatchAll() bool {
	return c.StorageType == "" && c.Category == ""
}

// Matches reports whether obj satisfies the criteria. A declared category is
// compared first, then the storage type.
func (c Criteria) Matches(obj tracking.Object) bool {
	if c.IsCatchAll() {
		return true
	}
	if c.Category != "" && obj.Category() == c.Category {
		return true
	}
	return c.StorageType != "" && obj.StorageType() == c.StorageType
}

// Converter converts tracked objects of one kind.
type Converter interface {
	Name() string
	Criteria() Criteria
	Convert(ctx context.Context, obj tracking.Object, g graph.Graph) (*Result, error)
}

// Result summarizes a conversion.
type Result struct {
	Converter string
	Model     *ontology.Model
	Ignored   bool

	// Fragments counts documents scheduled for writing besides the model.
	Fragments int

	// Duplicates counts documents skipped because the graph already had them.
	Duplicates int

	// Found holds the fragments coerced into schema types, placeholders
	// included.
	Found schema.Found

	// Placeholders counts synthesized placeholder concepts.
	Placeholders int
}

// Dependencies are the collaborators shared by all converters.
type Dependencies struct {
	Builder    *ontology.Builder
	Schemas    *schema.Registry
	Resolver   *jsonld.ContextResolver
	Dedup      *dedup.Store
	Writer     *graph.AsyncWriter
	Downloader tracking.ArtifactDownloader
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// WithDefaults fills every unset dependency. The dedup store defaults to the
// process-wide store.
func (d Dependencies) WithDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Builder == nil {
		d.Builder = ontology.NewBuilder("", ontology.WithLogger(d.Logger))
	}
	if d.Schemas == nil {
		d.Schemas = schema.DefaultRegistry(d.Builder.Base())
	}
	if d.Resolver == nil {
		var dl jsonld.Downloader
		if d.Downloader != nil {
			dl = d.Downloader
		}
		d.Resolver = jsonld.NewContextResolver(dl, d.Logger)
	}
	if d.Dedup == nil {
		d.Dedup = dedup.Global()
	}
	if d.Writer == nil {
		d.Writer = graph.NewAsyncWriter(d.Logger, d.Metrics)
	}
	return d
}

// Normalize views v as a tracked object.
func Normalize(v any) (tracking.Object, error) {
	obj, err := tracking.Normalize(v)
	if err != nil {
		return tracking.Object{}, fmt.Errorf("%w: %w", ErrUnconvertible, err)
	}
	return obj, nil
}
