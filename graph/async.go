package graph

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/c360studio/semonto/metrics"
	"github.com/c360studio/semonto/rdf"
)

// AsyncWriter parses documents into graphs on background goroutines. Writes
// are fire-and-forget: they are detached from the caller's context and
// failures are logged and counted, never returned.
type AsyncWriter struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	wg       sync.WaitGroup
	failures atomic.Int64
}

// NewAsyncWriter creates a writer. Both arguments may be nil.
func NewAsyncWriter(logger *slog.Logger, m *metrics.Metrics) *AsyncWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncWriter{logger: logger, metrics: m}
}

// Parse schedules data to be parsed into g. onFailure, if not nil, runs on
// the writer goroutine after a failed write and before Wait returns.
func (w *AsyncWriter) Parse(g Graph, data []byte, format rdf.Format, onFailure func(error)) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		err := g.Parse(context.Background(), data, format)
		w.metrics.SinkWrite(SinkName(g), err)
		if err == nil {
			return
		}
		w.failures.Add(1)
		w.logger.Warn("Couldn't translate document to rdf",
			"graph", g.Identifier(),
			"error", err,
			"document", truncate(string(data), 256))
		if onFailure != nil {
			onFailure(err)
		}
	}()
}

// Wait blocks until every scheduled write has finished.
func (w *AsyncWriter) Wait() {
	w.wg.Wait()
}

// Failures returns the number of failed writes so far.
func (w *AsyncWriter) Failures() int64 {
	return w.failures.Load()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
