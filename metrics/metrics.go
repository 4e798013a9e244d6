// Package metrics exposes Prometheus counters for conversions and graph
// writes. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "semonto"

// Outcome label values.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeSkipped   = "skipped"
)

// Metrics holds the conversion counters and the registry they live in.
type Metrics struct {
	Registry *prometheus.Registry

	Conversions  *prometheus.CounterVec
	Fragments    *prometheus.CounterVec
	Placeholders *prometheus.CounterVec
	SinkWrites   *prometheus.CounterVec
}

// New creates counters registered in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Tracked objects converted, by converter and outcome.",
		}, []string{"converter", "outcome"}),
		Fragments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_total",
			Help:      "Embedded JSON-LD fragments processed, by outcome.",
		}, []string{"outcome"}),
		Placeholders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placeholders_total",
			Help:      "Placeholder concepts synthesized for missing t-box data.",
		}, []string{"concept"}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_writes_total",
			Help:      "Graph sink writes, by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
	m.Registry.MustRegister(m.Conversions, m.Fragments, m.Placeholders, m.SinkWrites)
	return m
}

// Conversion counts a converted object.
func (m *Metrics) Conversion(converter, outcome string) {
	if m == nil {
		return
	}
	m.Conversions.WithLabelValues(converter, outcome).Inc()
}

// Fragment counts a processed fragment.
func (m *Metrics) Fragment(outcome string) {
	if m == nil {
		return
	}
	m.Fragments.WithLabelValues(outcome).Inc()
}

// Placeholder counts a synthesized placeholder concept.
func (m *Metrics) Placeholder(concept string) {
	if m == nil {
		return
	}
	m.Placeholders.WithLabelValues(concept).Inc()
}

// SinkWrite counts a graph write.
func (m *Metrics) SinkWrite(sink string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.SinkWrites.WithLabelValues(sink, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
