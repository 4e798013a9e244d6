package ontology

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/c360studio/semonto/jsonld"
	"github.com/c360studio/semonto/vocabulary/mlonto"
)

// Sub-entity markers: a nested mapping becomes an embedded model when its
// category is one of these or when it declares a storage type.
const (
	fieldCategory    = "category"
	fieldStorageType = "storage_type"
)

var subEntityCategories = map[string]bool{
	"Experiment": true,
	"Run":        true,
}

// Builder builds models relative to an ontology base URI.
type Builder struct {
	base           string
	defaultContext any
	newID          func() string
	logger         *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithDefaultContext replaces the inline default context, typically with the
// path or URL of a persisted context document.
func WithDefaultContext(c any) BuilderOption {
	return func(b *Builder) {
		if s, ok := c.(string); c == nil || (ok && s == "") {
			return
		}
		b.defaultContext = c
	}
}

// WithIDGenerator sets the generator used for objects without a uid.
func WithIDGenerator(fn func() string) BuilderOption {
	return func(b *Builder) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// WithLogger sets the builder logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a builder for the given base URI. An empty base selects
// the default ontology namespace.
func NewBuilder(base string, opts ...BuilderOption) *Builder {
	base = mlonto.NormalizeBase(base)
	b := &Builder{
		base:           base,
		defaultContext: DefaultContextTerms(base),
		newID:          uuid.NewString,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Base returns the ontology base URI.
func (b *Builder) Base() string { return b.base }

// DefaultContext returns the context every top-level model carries.
func (b *Builder) DefaultContext() any { return b.defaultContext }

// Build creates a top-level model from object fields. An @context present in
// the fields is treated as the caller context and merged with the default.
func (b *Builder) Build(fields map[string]any) (*Model, error) {
	f := jsonld.Copy(fields)
	if f == nil {
		f = map[string]any{}
	}
	caller := f[jsonld.KeyContext]
	delete(f, jsonld.KeyContext)

	m, err := b.model(f)
	if err != nil {
		return nil, err
	}
	m.Context = MergeContext(b.defaultContext, caller)
	return m, nil
}

// Embed creates a sub-entity model. Embedded models carry no context.
func (b *Builder) Embed(fields map[string]any) (*Model, error) {
	f := jsonld.Copy(fields)
	if f == nil {
		f = map[string]any{}
	}
	delete(f, jsonld.KeyContext)
	return b.model(f)
}

func (b *Builder) model(f map[string]any) (*Model, error) {
	isA, err := b.TypeOf(f)
	if err != nil {
		return nil, err
	}
	uri, err := b.URIOf(f, isA)
	if err != nil {
		return nil, err
	}
	delete(f, KeyURI)
	delete(f, KeyIsA)

	extended, err := b.extendMap(f)
	if err != nil {
		return nil, err
	}
	return &Model{URI: uri, IsA: isA, Fields: extended}, nil
}

// TypeOf derives the RDF type of an object: an explicit is_a, else the
// escaped category, else the escaped name, relative to the base URI.
func (b *Builder) TypeOf(f map[string]any) (string, error) {
	if isA := stringValue(f[KeyIsA]); isA != "" {
		if err := validateURI(KeyIsA, isA); err != nil {
			return "", err
		}
		return isA, nil
	}
	if c := stringValue(f[fieldCategory]); c != "" {
		return b.base + url.PathEscape(c), nil
	}
	if n := stringValue(f[KeyName]); n != "" {
		return b.base + url.PathEscape(n), nil
	}
	return "", fmt.Errorf("%w: object has no is_a, category or name", ErrNoType)
}

// URIOf derives the identifier of an object: an explicit uri, else
// {is_a}#{uid}, else {is_a}#{random uuid}.
func (b *Builder) URIOf(f map[string]any, isA string) (string, error) {
	if uri := stringValue(f[KeyURI]); uri != "" {
		if err := validateURI(KeyURI, uri); err != nil {
			return "", err
		}
		return uri, nil
	}
	uid := stringValue(f[KeyUID])
	if uid == "" {
		uid = stringValue(f[KeyID])
	}
	if uid == "" {
		uid = b.newID()
		b.logger.Debug("Synthesized identifier for object without uid", "is_a", isA, "id", uid)
	}
	return isA + "#" + uid, nil
}

func (b *Builder) extendMap(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		ext, err := b.extend(v)
		if err != nil {
			return nil, fmt.Errorf("extend %s: %w", k, err)
		}
		out[k] = ext
	}
	return out, nil
}

// extend walks a field value and turns nested sub-entities into embedded
// model documents. Lists are extended element-wise.
func (b *Builder) extend(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if !IsSubEntity(t) {
			return b.extendMap(t)
		}
		sub, err := b.Embed(t)
		if err != nil {
			return nil, err
		}
		return sub.Document(), nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			ext, err := b.extend(e)
			if err != nil {
				return nil, err
			}
			out[i] = ext
		}
		return out, nil
	default:
		return v, nil
	}
}

// IsSubEntity reports whether a nested mapping describes an experiment, a
// run or any other stored object.
func IsSubEntity(m map[string]any) bool {
	if _, ok := m[fieldStorageType]; ok {
		return true
	}
	c, _ := m[fieldCategory].(string)
	return subEntityCategories[c]
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
