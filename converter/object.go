package converter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/jsonld"
	"github.com/c360studio/semonto/metrics"
	"github.com/c360studio/semonto/ontology"
	"github.com/c360studio/semonto/rdf"
	"github.com/c360studio/semonto/schema"
	"github.com/c360studio/semonto/tracking"
)

// conversion carries the state of one object through the pipeline.
type conversion struct {
	obj   tracking.Object
	model *ontology.Model

	// context is the resolved model context fragments inherit.
	context any

	// pending are the fragments extracted from additional data.
	pending []jsonld.Fragment
	// passthrough are fragments written unchanged, after the found models.
	passthrough []map[string]any
	found       schema.Found

	result *Result
}

// hook customizes a pipeline stage for one kind of object.
type hook func(ctx context.Context, c *conversion, g graph.Graph)

// objectConverter runs the shared conversion pipeline.
type objectConverter struct {
	name     string
	criteria Criteria
	deps     Dependencies

	// prepare runs after fragments are reconciled with the schema registry.
	prepare hook
	// finish runs after the model and fragments were scheduled.
	finish hook
}

func newObjectConverter(name string, criteria Criteria, deps Dependencies) *objectConverter {
	return &objectConverter{name: name, criteria: criteria, deps: deps.WithDefaults()}
}

// Name implements Converter.
func (c *objectConverter) Name() string { return c.name }

// Criteria implements Converter.
func (c *objectConverter) Criteria() Criteria { return c.criteria }

// Convert implements Converter.
func (c *objectConverter) Convert(ctx context.Context, obj tracking.Object, g graph.Graph) (*Result, error) {
	if g == nil {
		return nil, errors.New("convert: nil graph")
	}
	conv, err := c.build(ctx, obj)
	if err != nil {
		c.deps.Metrics.Conversion(c.name, metrics.OutcomeError)
		return nil, fmt.Errorf("%s converter: %w", c.name, err)
	}

	c.reconcile(conv)
	if c.prepare != nil {
		c.prepare(ctx, conv, g)
	}
	c.serialize(ctx, conv, g)
	if c.finish != nil {
		c.finish(ctx, conv, g)
	}

	c.deps.Metrics.Conversion(c.name, metrics.OutcomeOK)
	c.deps.Logger.Debug("Converted object to rdf",
		"converter", c.name,
		"uri", conv.model.URI,
		"fragments", conv.result.Fragments,
		"concepts", conv.found.Count(),
		"duplicates", conv.result.Duplicates)
	return conv.result, nil
}

// build normalizes the object into a model with a resolved context and
// extracts the embedded fragments. Consumed instructions are removed from the
// model's additional data.
func (c *objectConverter) build(ctx context.Context, obj tracking.Object) (*conversion, error) {
	instr := jsonld.Extract(obj.AdditionalData(), c.deps.Logger)

	fields := obj.Fields()
	if ad, ok := fields[tracking.FieldAdditionalData].(map[string]any); ok {
		delete(ad, jsonld.KeyRDF)
		delete(ad, jsonld.KeyJSONLD)
	}
	if instr.RDF != nil {
		fields = jsonld.Merge(fields, instr.RDF)
	}

	model, err := c.deps.Builder.Build(fields)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	resolved, err := c.deps.Resolver.Resolve(ctx, model.Context)
	if err != nil {
		return nil, fmt.Errorf("resolve context of %s: %w", model.URI, err)
	}
	model.Context = resolved

	found := schema.Found{}
	return &conversion{
		obj:     obj,
		model:   model,
		context: resolved,
		pending: instr.Fragments,
		found:   found,
		result:  &Result{Converter: c.name, Model: model, Found: found},
	}, nil
}

// reconcile coerces path-tagged fragments into their registered schema type.
// Fragments without a registered path, and fragments failing validation, are
// passed through unchanged.
func (c *objectConverter) reconcile(conv *conversion) {
	for _, f := range conv.pending {
		if f.Path == "" {
			conv.passthrough = append(conv.passthrough, f.Doc)
			continue
		}
		t, ok := c.deps.Schemas.Lookup(f.Path)
		if !ok {
			conv.passthrough = append(conv.passthrough, f.Doc)
			continue
		}
		m, err := t.Coerce(f.Doc)
		if err != nil {
			c.deps.Logger.Warn("Fragment does not match its schema type, keeping it unchanged",
				"path", f.Path,
				"type", t.Name,
				"error", err)
			conv.passthrough = append(conv.passthrough, f.Doc)
			continue
		}
		m.Path = f.Path
		conv.found.Add(m)
	}
	conv.pending = nil
}

// serialize schedules the model and every fragment not seen before.
func (c *objectConverter) serialize(ctx context.Context, conv *conversion, g graph.Graph) {
	c.write(g, conv.model.Document(), conv.result)

	docs := append(conv.found.Documents(), conv.passthrough...)
	for _, doc := range docs {
		out := jsonld.Copy(doc)
		cctx, err := c.fragmentContext(ctx, conv.context, out)
		if err != nil {
			c.deps.Logger.Warn("Skipping fragment with unresolvable context", "error", err)
			c.deps.Metrics.Fragment(metrics.OutcomeSkipped)
			continue
		}
		if cctx != nil {
			out[jsonld.KeyContext] = cctx
		}
		if c.write(g, out, conv.result) {
			conv.result.Fragments++
			c.deps.Metrics.Fragment(metrics.OutcomeOK)
		} else {
			c.deps.Metrics.Fragment(metrics.OutcomeDuplicate)
		}
	}
}

// fragmentContext combines a fragment's own context with the parent's.
func (c *objectConverter) fragmentContext(ctx context.Context, parent any, doc map[string]any) (any, error) {
	own, ok := doc[jsonld.KeyContext]
	if !ok || own == nil {
		return parent, nil
	}
	resolved, err := c.deps.Resolver.Resolve(ctx, own)
	if err != nil {
		return nil, err
	}
	return ontology.CombineContexts(parent, resolved), nil
}

// write schedules doc unless the graph already received it. It reports
// whether the document was scheduled. A document whose write fails is
// forgotten by the dedup store so a later conversion retries it.
func (c *objectConverter) write(g graph.Graph, doc map[string]any, res *Result) bool {
	graphID := g.Identifier()
	if c.deps.Dedup.SeenBefore(graphID, doc) {
		res.Duplicates++
		return false
	}
	data, err := json.Marshal(doc)
	if err != nil {
		c.deps.Logger.Warn("Cannot serialize document", "graph", graphID, "error", err)
		return false
	}
	c.deps.Writer.Parse(g, data, rdf.FormatJSONLD, func(error) {
		c.forget(graphID, doc)
	})
	return true
}

func (c *objectConverter) forget(graphID string, doc map[string]any) {
	if err := c.deps.Dedup.Forget(graphID, doc); err != nil {
		c.deps.Logger.Warn("Cannot forget deduplication key", "graph", graphID, "error", err)
	}
}
