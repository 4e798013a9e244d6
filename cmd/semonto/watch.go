package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/tracking"
	"github.com/c360studio/semonto/tracking/filestore"
)

func watchCmd(opts *rootOptions) *cobra.Command {
	var skipInitial bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Convert the tracking store and keep converting changed runs",
		Long: `Watch converts the whole tracking store into the configured graph sink,
then watches the store directory and converts runs as they change. Objects
already written to the graph are skipped.

Prometheus metrics are served on metrics.addr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return app.Watch(ctx, !skipInitial)
		},
	}

	cmd.Flags().BoolVar(&skipInitial, "skip-initial", false, "Do not convert the existing store on start")

	return cmd
}

// Watch converts store changes into the configured sink until ctx is done.
func (a *App) Watch(ctx context.Context, initial bool) error {
	g, err := a.plugin.OpenGraph(ctx)
	if err != nil {
		return err
	}
	defer func() {
		a.plugin.Wait()
		if err := graph.Close(g); err != nil {
			a.logger.Warn("Failed to close graph sink", "error", err)
		}
	}()

	if initial {
		a.sync(ctx, g, tracking.Filter{})
	}

	w, err := filestore.NewWatcher(a.store, a.cfg.Store.Debounce, a.logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	eg, egCtx := errgroup.WithContext(ctx)
	if a.cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              a.cfg.Metrics.Addr,
			Handler:           a.metricsMux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		eg.Go(func() error {
			a.logger.Info("Serving metrics", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			<-egCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	eg.Go(func() error {
		for {
			select {
			case <-egCtx.Done():
				return nil
			case c, ok := <-w.Changes():
				if !ok {
					return nil
				}
				if c.Removed {
					a.logger.Info("Tracked objects removed; converted triples are kept",
						"experiment_id", c.ExperimentID,
						"run_id", c.RunID)
					continue
				}
				a.sync(egCtx, g, tracking.Filter{ExperimentID: c.ExperimentID, RunID: c.RunID})
			}
		}
	})

	return eg.Wait()
}

func (a *App) sync(ctx context.Context, g graph.Graph, filter tracking.Filter) {
	_, sum, err := a.plugin.ListToRDF(ctx, filter, g)
	if err != nil {
		a.logger.Warn("Failed to convert tracking store", "error", err,
			"experiment_id", filter.ExperimentID,
			"run_id", filter.RunID)
		return
	}
	a.logger.Info("Converted tracked objects",
		"experiment_id", filter.ExperimentID,
		"run_id", filter.RunID,
		"objects", sum.Objects,
		"failed", sum.Failed)
}

func (a *App) metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	return mux
}
