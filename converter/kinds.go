package converter

import (
	"context"

	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/metrics"
	"github.com/c360studio/semonto/tracking"
)

// Converter names.
const (
	NameIgnore    = "ignore"
	NameGeneric   = "generic"
	NameParameter = "parameter"
	NameMetric    = "metric"
	NameTag       = "tag"
	NameArtifact  = "artifact"
)

// IgnoreConverter skips objects of a kind that should never reach the graph.
// It has no serialization step, so an ignored object cannot be written.
type IgnoreConverter struct {
	criteria Criteria
	metrics  *metrics.Metrics
}

// NewIgnore returns a converter that ignores objects matching criteria.
func NewIgnore(criteria Criteria, m *metrics.Metrics) *IgnoreConverter {
	return &IgnoreConverter{criteria: criteria, metrics: m}
}

// Name implements Converter.
func (c *IgnoreConverter) Name() string { return NameIgnore }

// Criteria implements Converter.
func (c *IgnoreConverter) Criteria() Criteria { return c.criteria }

// Convert implements Converter. Nothing is written.
func (c *IgnoreConverter) Convert(context.Context, tracking.Object, graph.Graph) (*Result, error) {
	c.metrics.Conversion(NameIgnore, metrics.OutcomeIgnored)
	return &Result{Converter: NameIgnore, Ignored: true}, nil
}

// NewGeneric returns the catch-all converter writing models as they are.
func NewGeneric(deps Dependencies) Converter {
	return newObjectConverter(NameGeneric, Criteria{}, deps)
}

// NewMetric returns the metric converter.
func NewMetric(deps Dependencies) Converter {
	return newObjectConverter(NameMetric, Criteria{StorageType: tracking.StorageTypeMetric}, deps)
}

// NewTag returns the tag converter.
func NewTag(deps Dependencies) Converter {
	return newObjectConverter(NameTag, Criteria{StorageType: tracking.StorageTypeTag}, deps)
}
