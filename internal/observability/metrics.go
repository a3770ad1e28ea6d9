package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// impact simulation service.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec // labels: route, status
	SimulationsTotal prometheus.Counter
	ScenariosStored  prometheus.Gauge
	EstimateDuration prometheus.Histogram

	// External NEO feed metrics.
	NeoRequests    *prometheus.CounterVec // labels: outcome={success,unavailable,malformed}
	NeoCache       *prometheus.CounterVec // labels: result={hit,miss}
	NeoAPIDuration prometheus.Histogram

	// Scenario event publishing metrics.
	EventsPublished    prometheus.Counter
	EventPublishErrors prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impact_sim",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		SimulationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "impact_sim",
			Name:      "simulations_total",
			Help:      "Total impact simulations persisted.",
		}),
		ScenariosStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "impact_sim",
			Name:      "scenarios_stored",
			Help:      "Number of scenarios currently in the durable store.",
		}),
		EstimateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "impact_sim",
			Name:      "estimate_duration_seconds",
			Help:      "Duration of the impact estimation step.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		NeoRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impact_sim",
			Name:      "neo_requests_total",
			Help:      "NEO feed requests by outcome.",
		}, []string{"outcome"}),
		NeoCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impact_sim",
			Name:      "neo_cache_total",
			Help:      "NEO feed cache lookups by result.",
		}, []string{"result"}),
		NeoAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "impact_sim",
			Name:      "neo_api_duration_seconds",
			Help:      "NASA NeoWs request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "impact_sim",
			Name:      "events_published_total",
			Help:      "Scenario lifecycle events published to Kafka.",
		}),
		EventPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "impact_sim",
			Name:      "event_publish_errors_total",
			Help:      "Failed scenario event publishes.",
		}),
	}

	prometheus.MustRegister(
		m.HTTPRequests,
		m.SimulationsTotal,
		m.ScenariosStored,
		m.EstimateDuration,
		m.NeoRequests,
		m.NeoCache,
		m.NeoAPIDuration,
		m.EventsPublished,
		m.EventPublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		HTTPRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "impact_sim", Name: "http_requests_total"}, []string{"route", "status"}),
		SimulationsTotal:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "impact_sim", Name: "simulations_total"}),
		ScenariosStored:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "impact_sim", Name: "scenarios_stored"}),
		EstimateDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "impact_sim", Name: "estimate_duration_seconds"}),
		NeoRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "impact_sim", Name: "neo_requests_total"}, []string{"outcome"}),
		NeoCache:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "impact_sim", Name: "neo_cache_total"}, []string{"result"}),
		NeoAPIDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "impact_sim", Name: "neo_api_duration_seconds"}),
		EventsPublished:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "impact_sim", Name: "events_published_total"}),
		EventPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "impact_sim", Name: "event_publish_errors_total"}),
	}
}
