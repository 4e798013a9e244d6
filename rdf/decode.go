package rdf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/piprate/json-gold/ld"
)

// Format names a serialization a decoder can read.
type Format string

// Supported input formats.
const (
	FormatJSONLD   Format = "json-ld"
	FormatNTriples Format = "nt"
	FormatNQuads   Format = "nquads"
)

// ErrUnsupportedFormat is returned for formats the decoder cannot read.
var ErrUnsupportedFormat = errors.New("unsupported rdf format")

// Decoder converts serialized RDF into triples. JSON-LD contexts are loaded
// over HTTP or from local files and cached for the decoder's lifetime.
type Decoder struct {
	proc   *ld.JsonLdProcessor
	loader ld.DocumentLoader
}

// DecoderOption configures a Decoder.
type DecoderOption func(*decoderConfig)

type decoderConfig struct {
	client *http.Client
	loader ld.DocumentLoader
}

// WithHTTPClient sets the client used to fetch remote contexts.
func WithHTTPClient(c *http.Client) DecoderOption {
	return func(cfg *decoderConfig) { cfg.client = c }
}

// WithDocumentLoader replaces the context document loader.
func WithDocumentLoader(l ld.DocumentLoader) DecoderOption {
	return func(cfg *decoderConfig) { cfg.loader = l }
}

// NewDecoder creates a decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	cfg := decoderConfig{client: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(&cfg)
	}
	loader := cfg.loader
	if loader == nil {
		loader = ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(cfg.client))
	}
	return &Decoder{proc: ld.NewJsonLdProcessor(), loader: loader}
}

// Decode parses data into triples. Quads of every graph are flattened into
// triples. Blank node labels are made unique per call so triples from
// separate documents never share blank nodes.
func (d *Decoder) Decode(ctx context.Context, data []byte, format Format) ([]Triple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		dataset *ld.RDFDataset
		err     error
	)
	switch format {
	case FormatJSONLD, "":
		dataset, err = d.decodeJSONLD(data)
	case FormatNTriples, FormatNQuads:
		dataset, err = ld.ParseNQuads(string(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return fromDataset(dataset, blankPrefix()), nil
}

// DecodeDocument marshals a JSON-LD document and decodes it.
func (d *Decoder) DecodeDocument(ctx context.Context, doc any) ([]Triple, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal json-ld document: %w", err)
	}
	return d.Decode(ctx, data, FormatJSONLD)
}

func (d *Decoder) decodeJSONLD(data []byte) (*ld.RDFDataset, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse json-ld: %w", err)
	}

	opts := ld.NewJsonLdOptions("")
	opts.DocumentLoader = d.loader
	out, err := d.proc.ToRDF(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("json-ld to rdf: %w", err)
	}
	dataset, ok := out.(*ld.RDFDataset)
	if !ok {
		return nil, fmt.Errorf("json-ld to rdf: unexpected result %T", out)
	}
	return dataset, nil
}

func fromDataset(ds *ld.RDFDataset, prefix string) []Triple {
	if ds == nil {
		return nil
	}
	var out []Triple
	for _, quads := range ds.Graphs {
		for _, q := range quads {
			if q == nil {
				continue
			}
			out = append(out, Triple{
				Subject:   fromNode(q.Subject, prefix),
				Predicate: fromNode(q.Predicate, prefix),
				Object:    fromNode(q.Object, prefix),
			})
		}
	}
	Sort(out)
	return out
}

func fromNode(n ld.Node, prefix string) Term {
	switch v := n.(type) {
	case *ld.IRI:
		return IRI(v.Value)
	case *ld.BlankNode:
		return Blank(prefix + strings.TrimPrefix(v.Attribute, "_:"))
	case *ld.Literal:
		if v.Language != "" {
			return LangLiteral(v.Value, v.Language)
		}
		return Literal(v.Value, v.Datatype)
	default:
		return Literal(n.GetValue(), "")
	}
}

func blankPrefix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "_"
}
