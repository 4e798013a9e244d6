package converter

import (
	"context"
	"errors"

	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/schema"
	"github.com/c360studio/semonto/tracking"
	"github.com/c360studio/semonto/vocabulary/mlonto"
)

// conceptOrder is the order parameter concepts are resolved in.
var conceptOrder = []string{
	schema.TypeAlgorithm,
	schema.TypeAlgorithmParameter,
	schema.TypeParameter,
}

// NewParameter returns the parameter converter. Besides the parameter value
// it writes the algorithm, algorithm parameter and parameter concepts the
// value belongs to, synthesizing placeholders for concepts the tracked data
// does not describe.
func NewParameter(deps Dependencies) Converter {
	c := newObjectConverter(NameParameter, Criteria{StorageType: tracking.StorageTypeParameter}, deps)
	c.prepare = c.prepareParameter
	return c
}

func (c *objectConverter) prepareParameter(ctx context.Context, conv *conversion, g graph.Graph) {
	base := c.deps.Builder.Base()
	concepts := make(map[string]*schema.Model, len(conceptOrder))

	for _, name := range conceptOrder {
		m, ok := conv.found.Pop(name)
		if !ok {
			ph, err := c.deps.Schemas.Placeholder(base, name)
			if err != nil {
				c.deps.Logger.Warn("Cannot synthesize placeholder concept", "type", name, "error", err)
				continue
			}
			c.deps.Logger.Warn("Concept couldn't be found in mapping provided data, using a placeholder",
				"type", name,
				"parameter", conv.model.URI,
				"placeholder", ph.URI())
			conv.result.Placeholders++
			c.deps.Metrics.Placeholder(name)
			m = ph
		}
		concepts[name] = m
	}
	for _, name := range conceptOrder {
		if m, ok := concepts[name]; ok {
			conv.found.Add(m)
		}
	}

	if concept, ok := concepts[schema.TypeParameter]; ok {
		if _, set := conv.model.Fields[mlonto.TermImplements]; !set {
			conv.model.Fields[mlonto.TermImplements] = concept.URI()
		}
	}

	known, err := g.Contains(ctx, conv.model.IsA)
	switch {
	case errors.Is(err, graph.ErrUnsupported):
		c.deps.Logger.Debug("Graph cannot be queried for parameter class", "class", conv.model.IsA)
	case err != nil:
		c.deps.Logger.Warn("Cannot look up parameter class", "class", conv.model.IsA, "error", err)
	case !known:
		c.deps.Logger.Warn("Class of parameter was not found in ontology", "class", conv.model.IsA)
	}
}
