// Package metrics provides Prometheus metrics for the prescription service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andremillet/prescreveai/pkg/circuitbreaker"
)

const namespace = "prescreveai"

// Metrics holds all application metrics
type Metrics struct {
	ParseTotal          *prometheus.CounterVec
	MedicationsParsed   prometheus.Counter
	DocumentsRendered   *prometheus.CounterVec
	RenderDuration      prometheus.Histogram
	EventsPublished     prometheus.Counter
	EventsFailed        prometheus.Counter
	CircuitBreakerState *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// New creates all metrics and registers them on reg. A nil reg uses a
// fresh registry, which keeps tests isolated.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		ParseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_total",
			Help:      "Shorthand parse attempts by outcome",
		}, []string{"outcome"}),
		MedicationsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "medications_parsed_total",
			Help:      "Total medication records produced by successful parses",
		}),
		DocumentsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_rendered_total",
			Help:      "Total prescription documents rendered",
		}, []string{"template"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Prescription document render duration",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total prescription events published",
		}),
		EventsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_failed_total",
			Help:      "Total prescription events dropped or failed",
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
	}

	reg.MustRegister(
		m.ParseTotal,
		m.MedicationsParsed,
		m.DocumentsRendered,
		m.RenderDuration,
		m.EventsPublished,
		m.EventsFailed,
		m.CircuitBreakerState,
	)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// ObserveParse records one parse attempt. kind is "ok" for success.
func (m *Metrics) ObserveParse(kind string, records int) {
	m.ParseTotal.WithLabelValues(kind).Inc()
	m.MedicationsParsed.Add(float64(records))
}

// SetBreakerState exports a circuit breaker transition.
func (m *Metrics) SetBreakerState(name string, s circuitbreaker.State) {
	var v float64
	switch s {
	case circuitbreaker.StateOpen:
		v = 1
	case circuitbreaker.StateHalfOpen:
		v = 2
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(v)
}

// Handler serves the registry these metrics were registered on
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
