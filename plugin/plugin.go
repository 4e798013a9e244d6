// Package plugin wires the conversion pipeline to a tracking backend. A
// Plugin owns the converter registry, mapping files, dedup store and the
// background graph writer; every collaborator is registered explicitly in
// New.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/c360studio/semonto/config"
	"github.com/c360studio/semonto/converter"
	"github.com/c360studio/semonto/dedup"
	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/mapping"
	"github.com/c360studio/semonto/metrics"
	"github.com/c360studio/semonto/ontology"
	"github.com/c360studio/semonto/rdf"
	"github.com/c360studio/semonto/tracking"
	"github.com/c360studio/semonto/vocabulary/mlonto"
)

// Plugin converts tracked objects of a backend into RDF.
type Plugin struct {
	cfg      *config.Config
	backend  tracking.Backend
	registry *converter.Registry
	mappings *mapping.Set
	writer   *graph.AsyncWriter
	decoder  *rdf.Decoder
	metrics  *metrics.Metrics
	logger   *slog.Logger

	graphOpts []graph.OpenOption
}

// Option configures a Plugin.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	metrics    *metrics.Metrics
	mappings   *mapping.Set
	dedup      *dedup.Store
	graphOpts  []graph.OpenOption
	converters []converter.Converter
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records conversions and sink writes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMappings applies the given mapping files to every converted object.
func WithMappings(s *mapping.Set) Option {
	return func(o *options) { o.mappings = s }
}

// WithDedup uses s instead of the process-wide dedup store.
func WithDedup(s *dedup.Store) Option {
	return func(o *options) { o.dedup = s }
}

// WithGraphOptions are passed to graph.Open when LogRDF opens the sink.
func WithGraphOptions(opts ...graph.OpenOption) Option {
	return func(o *options) { o.graphOpts = append(o.graphOpts, opts...) }
}

// WithConverter registers an additional converter. Additional converters
// are consulted before the built-in ones of the same group.
func WithConverter(c converter.Converter) Option {
	return func(o *options) { o.converters = append(o.converters, c) }
}

// New creates a plugin for backend. A nil cfg uses the defaults.
func New(cfg *config.Config, backend tracking.Backend, opts ...Option) (*Plugin, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	base := cfg.Ontology.BaseURI
	mlonto.Register(base)
	builderOpts := []ontology.BuilderOption{ontology.WithLogger(o.logger)}
	if cfg.Ontology.ContextFile != "" {
		path, err := ontology.WriteDefaultContext(cfg.Ontology.ContextFile, base)
		if err != nil {
			return nil, fmt.Errorf("write default context: %w", err)
		}
		builderOpts = append(builderOpts, ontology.WithDefaultContext(path))
		o.logger.Debug("Referencing persisted default context", "path", path)
	}

	store := o.dedup
	if store == nil {
		if cfg.Dedup.MaxEntriesPerGraph > 0 {
			dedup.InitGlobal(dedup.NewStore(
				dedup.WithMaxEntriesPerGraph(cfg.Dedup.MaxEntriesPerGraph),
				dedup.WithLogger(o.logger)))
		}
		store = dedup.Global()
	}

	mappings := o.mappings
	if mappings == nil {
		mappings = mapping.NewSet(o.logger)
	}

	writer := graph.NewAsyncWriter(o.logger, o.metrics)
	deps := converter.Dependencies{
		Builder: ontology.NewBuilder(base, builderOpts...),
		Dedup:   store,
		Writer:  writer,
		Metrics: o.metrics,
		Logger:  o.logger,
	}
	if backend != nil {
		deps.Downloader = backend
	}

	registry := converter.NewRegistry()
	for _, c := range o.converters {
		registry.Register(c)
	}
	for _, c := range converter.DefaultRegistry(deps).Converters() {
		registry.Register(c)
	}

	decoder := rdf.NewDecoder()
	graphOpts := append([]graph.OpenOption{
		graph.WithDecoder(decoder),
		graph.WithLogger(o.logger),
	}, o.graphOpts...)

	return &Plugin{
		cfg:       cfg,
		backend:   backend,
		registry:  registry,
		mappings:  mappings,
		writer:    writer,
		decoder:   decoder,
		metrics:   o.metrics,
		logger:    o.logger,
		graphOpts: graphOpts,
	}, nil
}

// Registry returns the converter registry.
func (p *Plugin) Registry() *converter.Registry { return p.registry }

// GraphID returns the identifier of graphs created by the plugin.
func (p *Plugin) GraphID() string {
	return p.cfg.Graph.GraphID(p.cfg.Ontology.BaseURI)
}

// NewGraph returns an empty in-memory graph with the configured identifier.
func (p *Plugin) NewGraph() *graph.Memory {
	return graph.NewMemory(p.GraphID(), p.decoder)
}

// ConvertToRDF converts v into g. A nil g is replaced by a new in-memory
// graph, which is returned. Objects no converter applies to leave the graph
// unchanged and yield a nil result. Writes finish in the background; call
// Wait before reading g.
func (p *Plugin) ConvertToRDF(ctx context.Context, v any, g graph.Graph) (graph.Graph, *converter.Result, error) {
	if g == nil {
		g = p.NewGraph()
	}
	obj, err := converter.Normalize(v)
	if err != nil {
		return g, nil, err
	}
	obj = p.mappings.Annotate(obj)

	c := p.registry.Select(obj)
	if c == nil {
		p.logger.Debug("No converter for object",
			"storage_type", obj.StorageType(),
			"category", obj.Category())
		return g, nil, nil
	}
	res, err := c.Convert(ctx, obj, g)
	if err != nil {
		return g, nil, err
	}
	return g, res, nil
}

// Summary counts the objects converted by ListToRDF.
type Summary struct {
	Experiments int
	Runs        int
	Objects     int
	Ignored     int
	Failed      int
}

// ListToRDF converts every object of the backend that passes filter into g,
// walking experiments, their runs and each run's objects. A nil g is
// replaced by a new in-memory graph. Objects that fail to convert are
// logged and counted; listing errors abort the walk.
func (p *Plugin) ListToRDF(ctx context.Context, filter tracking.Filter, g graph.Graph) (graph.Graph, Summary, error) {
	var sum Summary
	if g == nil {
		g = p.NewGraph()
	}
	if p.backend == nil {
		return g, sum, errors.New("list to rdf: no backend")
	}

	experiments, err := p.backend.ListExperiments(ctx)
	if err != nil {
		return g, sum, fmt.Errorf("list experiments: %w", err)
	}
	for _, exp := range experiments {
		if !filter.MatchesExperiment(exp.UID()) {
			continue
		}
		sum.Experiments++
		if filter.Includes(tracking.StorageTypeExperiment) {
			p.convertListed(ctx, exp, g, &sum)
		}

		runs, err := p.backend.ListRuns(ctx, exp.UID())
		if err != nil {
			return g, sum, fmt.Errorf("list runs of experiment %s: %w", exp.UID(), err)
		}
		for _, run := range runs {
			if !filter.MatchesRun(run.UID()) {
				continue
			}
			sum.Runs++
			if filter.Includes(tracking.StorageTypeRun) {
				p.convertListed(ctx, run, g, &sum)
			}

			objects, err := p.listRunObjects(ctx, run.UID(), filter)
			if err != nil {
				return g, sum, err
			}
			for _, obj := range objects {
				p.convertListed(ctx, obj, g, &sum)
			}
		}
	}
	return g, sum, nil
}

// listRunObjects lists every per-run kind concurrently and returns the
// objects in kind order.
func (p *Plugin) listRunObjects(ctx context.Context, runID string, filter tracking.Filter) ([]tracking.Object, error) {
	lists := make([][]tracking.Object, len(tracking.RunObjectTypes))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, t := range tracking.RunObjectTypes {
		if !filter.Includes(t) {
			continue
		}
		eg.Go(func() error {
			objs, err := tracking.ListRunObjects(egCtx, p.backend, runID, t)
			if err != nil {
				return fmt.Errorf("list %s objects of run %s: %w", t, runID, err)
			}
			lists[i] = objs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var out []tracking.Object
	for _, l := range lists {
		out = append(out, l...)
	}
	return out, nil
}

func (p *Plugin) convertListed(ctx context.Context, obj tracking.Object, g graph.Graph, sum *Summary) {
	_, res, err := p.ConvertToRDF(ctx, obj, g)
	switch {
	case err != nil:
		sum.Failed++
		p.logger.Warn("Failed to convert object",
			"storage_type", obj.StorageType(),
			"uid", obj.UID(),
			"error", err)
	case res == nil || res.Ignored:
		sum.Ignored++
	default:
		sum.Objects++
	}
}

// LogRDF converts v into a freshly opened sink of the configured kind. The
// sink is closed once the conversion's writes have finished.
func (p *Plugin) LogRDF(ctx context.Context, v any) (*converter.Result, error) {
	g, err := p.OpenGraph(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := graph.Close(g); cerr != nil {
			p.logger.Warn("Failed to close graph sink", "sink", graph.SinkName(g), "error", cerr)
		}
	}()

	_, res, err := p.ConvertToRDF(ctx, v, g)
	p.writer.Wait()
	return res, err
}

// OpenGraph opens the configured sink.
func (p *Plugin) OpenGraph(ctx context.Context) (graph.Graph, error) {
	g, err := graph.Open(ctx, p.cfg.Graph.SinkConfig(p.cfg.Ontology.BaseURI), p.graphOpts...)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	return g, nil
}

// Wait blocks until every background write has finished.
func (p *Plugin) Wait() {
	p.writer.Wait()
}

// Failures returns the number of background writes that failed.
func (p *Plugin) Failures() int64 {
	return p.writer.Failures()
}

// Backend returns the wrapped backend decorated with ontology logging.
func (p *Plugin) Backend() *OntologyBackend {
	return NewOntologyBackend(p, p.backend)
}
