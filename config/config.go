// Package config provides configuration loading and management for semonto.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/mapping"
	"github.com/c360studio/semonto/vocabulary/mlonto"
)

// Config represents the complete semonto configuration
type Config struct {
	Ontology OntologyConfig `yaml:"ontology"`
	Graph    GraphConfig    `yaml:"graph"`
	Dedup    DedupConfig    `yaml:"dedup"`
	Mapping  MappingConfig  `yaml:"mapping"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// OntologyConfig configures URI synthesis
type OntologyConfig struct {
	// BaseURI is the namespace types and terms are minted in
	BaseURI string `yaml:"base_uri"`
	// ContextFile persists the default context to this path and references
	// it instead of inlining it (empty = inline)
	ContextFile string `yaml:"context_file"`
}

// GraphConfig selects the sink converted triples are written to
type GraphConfig struct {
	// Sink is one of memory, sparql or nats
	Sink string `yaml:"sink"`
	// ID is the graph identifier (default: the ontology base URI)
	ID     string       `yaml:"id"`
	SPARQL SPARQLConfig `yaml:"sparql"`
	NATS   NATSConfig   `yaml:"nats"`
}

// SPARQLConfig configures the SPARQL 1.1 store
type SPARQLConfig struct {
	QueryEndpoint  string        `yaml:"query_endpoint"`
	UpdateEndpoint string        `yaml:"update_endpoint"`
	AuthName       string        `yaml:"auth_name"`
	AuthPassword   string        `yaml:"auth_password"`
	Graph          string        `yaml:"graph"`
	Timeout        time.Duration `yaml:"timeout"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// Subject receives the published triples
	Subject string `yaml:"subject"`
}

// DedupConfig configures the deduplication store
type DedupConfig struct {
	// MaxEntriesPerGraph bounds each graph's key set (0 = unbounded)
	MaxEntriesPerGraph int `yaml:"max_entries_per_graph"`
}

// MappingConfig configures mapping file discovery
type MappingConfig struct {
	// Patterns are doublestar globs relative to the working directory
	Patterns []string `yaml:"patterns"`
}

// StoreConfig configures the file store backend
type StoreConfig struct {
	// Path is the root directory of the tracking store
	Path string `yaml:"path"`
	// Debounce delays change notifications of the watcher
	Debounce time.Duration `yaml:"debounce"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// MetricsConfig configures the metrics endpoint of long running commands
type MetricsConfig struct {
	// Addr is the listen address (empty = disabled)
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Ontology: OntologyConfig{
			BaseURI: mlonto.DefaultNamespace,
		},
		Graph: GraphConfig{
			Sink: graph.SinkMemory,
			ID:   "", // Defaults to the base URI
			SPARQL: SPARQLConfig{
				Timeout: 30 * time.Second,
			},
			NATS: NATSConfig{
				URL:     "nats://localhost:4222",
				Subject: graph.DefaultSubject,
			},
		},
		Dedup: DedupConfig{
			MaxEntriesPerGraph: 0, // Unbounded
		},
		Mapping: MappingConfig{
			Patterns: mapping.DefaultPatterns,
		},
		Store: StoreConfig{
			Path:     "mlruns",
			Debounce: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.Ontology.BaseURI)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("ontology.base_uri must be an absolute URI")
	}
	switch c.Graph.Sink {
	case graph.SinkMemory:
	case graph.SinkSPARQL:
		if err := c.Graph.SinkConfig(c.Ontology.BaseURI).SPARQL.Validate(); err != nil {
			return fmt.Errorf("graph.sparql: %w", err)
		}
	case graph.SinkNATS:
		if c.Graph.NATS.URL == "" {
			return fmt.Errorf("graph.nats.url is required")
		}
	default:
		return fmt.Errorf("graph.sink must be one of memory, sparql, nats")
	}
	if c.Dedup.MaxEntriesPerGraph < 0 {
		return fmt.Errorf("dedup.max_entries_per_graph must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// GraphID returns the configured graph identifier, defaulting to base.
func (g GraphConfig) GraphID(base string) string {
	if g.ID != "" {
		return g.ID
	}
	return mlonto.NormalizeBase(base)
}

// SinkConfig converts the section into a graph sink configuration.
func (g GraphConfig) SinkConfig(base string) graph.Config {
	return graph.Config{
		Sink: g.Sink,
		ID:   g.GraphID(base),
		SPARQL: graph.SPARQLConfig{
			QueryEndpoint:  g.SPARQL.QueryEndpoint,
			UpdateEndpoint: g.SPARQL.UpdateEndpoint,
			AuthName:       g.SPARQL.AuthName,
			AuthPassword:   g.SPARQL.AuthPassword,
			Graph:          g.SPARQL.Graph,
			Timeout:        g.SPARQL.Timeout,
		},
		NATS: graph.NATSConfig{
			URL:     g.NATS.URL,
			Subject: g.NATS.Subject,
		},
	}
}

// ParseLevel converts a level name into a slog level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", s)
	}
	return level, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Ontology
	if other.Ontology.BaseURI != "" {
		c.Ontology.BaseURI = other.Ontology.BaseURI
	}
	if other.Ontology.ContextFile != "" {
		c.Ontology.ContextFile = other.Ontology.ContextFile
	}

	// Graph
	if other.Graph.Sink != "" {
		c.Graph.Sink = other.Graph.Sink
	}
	if other.Graph.ID != "" {
		c.Graph.ID = other.Graph.ID
	}
	mergeString(&c.Graph.SPARQL.QueryEndpoint, other.Graph.SPARQL.QueryEndpoint)
	mergeString(&c.Graph.SPARQL.UpdateEndpoint, other.Graph.SPARQL.UpdateEndpoint)
	mergeString(&c.Graph.SPARQL.AuthName, other.Graph.SPARQL.AuthName)
	mergeString(&c.Graph.SPARQL.AuthPassword, other.Graph.SPARQL.AuthPassword)
	mergeString(&c.Graph.SPARQL.Graph, other.Graph.SPARQL.Graph)
	if other.Graph.SPARQL.Timeout != 0 {
		c.Graph.SPARQL.Timeout = other.Graph.SPARQL.Timeout
	}
	mergeString(&c.Graph.NATS.URL, other.Graph.NATS.URL)
	mergeString(&c.Graph.NATS.Subject, other.Graph.NATS.Subject)

	// Dedup
	if other.Dedup.MaxEntriesPerGraph != 0 {
		c.Dedup.MaxEntriesPerGraph = other.Dedup.MaxEntriesPerGraph
	}

	// Mapping
	if len(other.Mapping.Patterns) > 0 {
		c.Mapping.Patterns = other.Mapping.Patterns
	}

	// Store
	mergeString(&c.Store.Path, other.Store.Path)
	if other.Store.Debounce != 0 {
		c.Store.Debounce = other.Store.Debounce
	}

	mergeString(&c.Log.Level, other.Log.Level)
	mergeString(&c.Metrics.Addr, other.Metrics.Addr)
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
