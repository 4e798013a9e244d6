package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/c360studio/semstreams/pkg/retry"

	"github.com/c360studio/semonto/rdf"
)

// SPARQLConfig describes a SPARQL 1.1 store.
type SPARQLConfig struct {
	QueryEndpoint  string
	UpdateEndpoint string
	AuthName       string
	AuthPassword   string
	// Graph is the named graph triples are inserted into. Empty selects the
	// default graph.
	Graph   string
	Timeout time.Duration
}

// Validate checks that both endpoints are absolute URLs.
func (c SPARQLConfig) Validate() error {
	for name, ep := range map[string]string{"query": c.QueryEndpoint, "update": c.UpdateEndpoint} {
		if ep == "" {
			return fmt.Errorf("sparql %s endpoint is required", name)
		}
		u, err := url.Parse(ep)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("sparql %s endpoint %q is not an absolute URL", name, ep)
		}
	}
	return nil
}

// SPARQL writes triples to a SPARQL store with INSERT DATA requests.
type SPARQL struct {
	cfg     SPARQLConfig
	client  *http.Client
	decoder *rdf.Decoder
	retry   retry.Config
	logger  *slog.Logger
}

// NewSPARQL creates a SPARQL sink.
func NewSPARQL(cfg SPARQLConfig, client *http.Client, decoder *rdf.Decoder, logger *slog.Logger) (*SPARQL, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if decoder == nil {
		decoder = rdf.NewDecoder(rdf.WithHTTPClient(client))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SPARQL{
		cfg:     cfg,
		client:  client,
		decoder: decoder,
		retry:   retry.DefaultConfig(),
		logger:  logger,
	}, nil
}

// Identifier implements Graph.
func (s *SPARQL) Identifier() string { return s.cfg.Graph }

// Parse implements Graph.
func (s *SPARQL) Parse(ctx context.Context, data []byte, format rdf.Format) error {
	return parseInto(ctx, s.decoder, s, data, format)
}

// Add implements Graph. Transient failures are retried with backoff; client
// errors are not.
func (s *SPARQL) Add(ctx context.Context, triples ...rdf.Triple) error {
	if len(triples) == 0 {
		return nil
	}
	update := InsertData(s.cfg.Graph, triples)

	err := retry.Do(ctx, s.retry, func() error {
		_, err := s.post(ctx, s.cfg.UpdateEndpoint, "application/sparql-update", update, "")
		return err
	})
	if err != nil {
		s.logger.Warn("SPARQL update failed",
			"endpoint", s.cfg.UpdateEndpoint,
			"triples", len(triples),
			"retryable", !retry.IsNonRetryable(err),
			"error", err)
		return fmt.Errorf("sparql insert: %w", err)
	}
	return nil
}

// Contains implements Graph with an ASK query.
func (s *SPARQL) Contains(ctx context.Context, subject string) (bool, error) {
	query := AskSubject(s.cfg.Graph, subject)

	var result struct {
		Boolean *bool `json:"boolean"`
	}
	err := retry.Do(ctx, s.retry, func() error {
		body, err := s.post(ctx, s.cfg.QueryEndpoint, "application/sparql-query", query, "application/sparql-results+json")
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return retry.NonRetryable(fmt.Errorf("decode ask result: %w", err))
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("sparql ask: %w", err)
	}
	if result.Boolean == nil {
		return false, errors.New("sparql ask: result has no boolean")
	}
	return *result.Boolean, nil
}

func (s *SPARQL) post(ctx context.Context, endpoint, contentType, body, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, retry.NonRetryable(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if s.cfg.AuthName != "" {
		req.SetBasicAuth(s.cfg.AuthName, s.cfg.AuthPassword)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%s returned %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(data)))
	case resp.StatusCode >= 400:
		return nil, retry.NonRetryable(fmt.Errorf("%s returned %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(data))))
	}
	return data, nil
}

// InsertData builds an INSERT DATA update for triples in graph.
func InsertData(graph string, triples []rdf.Triple) string {
	var sb strings.Builder
	sb.WriteString("INSERT DATA {\n")
	if graph != "" {
		sb.WriteString("  GRAPH " + rdf.IRI(graph).String() + " {\n")
	}
	for _, t := range triples {
		sb.WriteString("    " + t.String() + "\n")
	}
	if graph != "" {
		sb.WriteString("  }\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// AskSubject builds an ASK query testing for any triple with subject.
func AskSubject(graph, subject string) string {
	pattern := rdf.IRI(subject).String() + " ?p ?o"
	if graph == "" {
		return "ASK { " + pattern + " }"
	}
	return "ASK { GRAPH " + rdf.IRI(graph).String() + " { " + pattern + " } }"
}
