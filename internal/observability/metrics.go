package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "niederschlag"

// Metrics holds the Prometheus collectors for the HTTP surface and the
// bootstrap loader.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec   // labels: route, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: route

	RecordsLoaded prometheus.Counter
	BootstrapRuns *prometheus.CounterVec // labels: outcome={loaded,skipped,off,error}
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// means the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := newCollectors()
	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.RecordsLoaded,
		m.BootstrapRuns,
	)
	return m
}

// NewMetricsForTesting registers on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewMetrics(reg), reg
}

func newCollectors() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route pattern.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Records inserted by the bootstrap loader.",
		}),
		BootstrapRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_runs_total",
			Help:      "Bootstrap loader runs by outcome.",
		}, []string{"outcome"}),
	}
}
