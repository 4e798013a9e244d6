package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/semonto/config"
	"github.com/c360studio/semonto/mapping"
	"github.com/c360studio/semonto/metrics"
	"github.com/c360studio/semonto/plugin"
	"github.com/c360studio/semonto/tracking/filestore"
)

// App wires the configured store, mappings and plugin for one command run.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *filestore.Store
	metrics *metrics.Metrics
	plugin  *plugin.Plugin
}

// NewApp loads the configuration and builds every component.
func NewApp(cmd *cobra.Command, opts *rootOptions) (*App, error) {
	bootstrap := newLogger(cmd, slog.LevelWarn)

	loader := config.NewLoader(bootstrap)
	cfg, err := loader.LoadFile(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.storePath != "" {
		cfg.Store.Path = opts.storePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd, level)
	slog.SetDefault(logger)

	store, err := filestore.New(cfg.Store.Path, filestore.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	mappings, err := mapping.Discover(wd, cfg.Mapping.Patterns, logger)
	if err != nil {
		return nil, fmt.Errorf("load mappings: %w", err)
	}

	m := metrics.New()
	p, err := plugin.New(cfg, store,
		plugin.WithLogger(logger),
		plugin.WithMetrics(m),
		plugin.WithMappings(mappings))
	if err != nil {
		return nil, fmt.Errorf("create plugin: %w", err)
	}

	logger.Debug("Semonto ready",
		"version", Version,
		"store", store.Root(),
		"sink", cfg.Graph.Sink,
		"mapping_files", len(mappings.Files()))

	return &App{cfg: cfg, logger: logger, store: store, metrics: m, plugin: p}, nil
}

// Close waits for background writes and releases the store.
func (a *App) Close() error {
	a.plugin.Wait()
	if n := a.plugin.Failures(); n > 0 {
		a.logger.Warn("Some graph writes failed", "failures", n)
	}
	return a.store.Close()
}

func newLogger(cmd *cobra.Command, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
