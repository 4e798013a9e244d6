package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/c360studio/semonto/rdf"
)

// Sink kinds.
const (
	SinkMemory = "memory"
	SinkSPARQL = "sparql"
	SinkNATS   = "nats"
)

// Config selects and configures a sink.
type Config struct {
	Sink   string
	ID     string
	SPARQL SPARQLConfig
	NATS   NATSConfig
}

// NATSConfig configures the NATS sink.
type NATSConfig struct {
	URL     string
	Subject string
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

type openOptions struct {
	decoder   *rdf.Decoder
	client    *http.Client
	publisher Publisher
	logger    *slog.Logger
}

// WithDecoder shares a decoder between sinks.
func WithDecoder(d *rdf.Decoder) OpenOption {
	return func(o *openOptions) { o.decoder = d }
}

// WithHTTPClient sets the SPARQL HTTP client.
func WithHTTPClient(c *http.Client) OpenOption {
	return func(o *openOptions) { o.client = c }
}

// WithPublisher publishes through an existing connection instead of dialing.
func WithPublisher(p Publisher) OpenOption {
	return func(o *openOptions) { o.publisher = p }
}

// WithLogger sets the sink logger.
func WithLogger(l *slog.Logger) OpenOption {
	return func(o *openOptions) { o.logger = l }
}

// Open builds the configured sink. The SPARQL graph name defaults to the
// configured graph id.
func Open(ctx context.Context, cfg Config, opts ...OpenOption) (Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := openOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.Sink {
	case SinkMemory, "":
		return NewMemory(cfg.ID, o.decoder), nil
	case SinkSPARQL:
		sc := cfg.SPARQL
		if sc.Graph == "" {
			sc.Graph = cfg.ID
		}
		s, err := NewSPARQL(sc, o.client, o.decoder, o.logger)
		if err != nil {
			return nil, fmt.Errorf("open sparql sink: %w", err)
		}
		return s, nil
	case SinkNATS:
		if o.publisher != nil {
			return NewNATS(cfg.ID, cfg.NATS.Subject, o.publisher, o.decoder), nil
		}
		n, err := DialNATS(cfg.NATS.URL, cfg.ID, cfg.NATS.Subject, o.decoder)
		if err != nil {
			return nil, fmt.Errorf("open nats sink: %w", err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unknown graph sink %q", cfg.Sink)
	}
}

// Close releases resources held by g, if any.
func Close(g Graph) error {
	if c, ok := g.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SinkName returns the metrics label of a sink.
func SinkName(g Graph) string {
	switch g.(type) {
	case *Memory:
		return SinkMemory
	case *SPARQL:
		return SinkSPARQL
	case *NATS:
		return SinkNATS
	default:
		return "custom"
	}
}
