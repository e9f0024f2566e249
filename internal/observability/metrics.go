package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the gateway.
type Metrics struct {
	// Inbound request outcomes: success, validation_error, or an error kind.
	Requests *prometheus.CounterVec // labels: outcome

	// Outbound forecast service calls.
	UpstreamRequests *prometheus.CounterVec // labels: outcome={success,http_error,timeout,transport}
	UpstreamDuration prometheus.Histogram

	// Forecast audit stream.
	AuditPublished prometheus.Counter
	AuditErrors    prometheus.Counter
	AuditEnabled   prometheus.Gauge
}

// NewMetrics creates and registers all gateway metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forecast_gateway",
			Name:      "requests_total",
			Help:      "Forecast requests by outcome.",
		}, []string{"outcome"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forecast_gateway",
			Name:      "upstream_requests_total",
			Help:      "Outbound forecast service calls by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "forecast_gateway",
			Name:      "upstream_duration_seconds",
			Help:      "Forecast service request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		AuditPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "forecast_gateway",
			Name:      "audit_published_total",
			Help:      "Answered forecasts published to the audit stream.",
		}),
		AuditErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "forecast_gateway",
			Name:      "audit_errors_total",
			Help:      "Audit publish failures (never surfaced to callers).",
		}),
		AuditEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "forecast_gateway",
			Name:      "audit_enabled",
			Help:      "1 when the forecast audit stream is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.Requests,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.AuditPublished,
		m.AuditErrors,
		m.AuditEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Requests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "forecast_gateway", Name: "requests_total"}, []string{"outcome"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "forecast_gateway", Name: "upstream_requests_total"}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "forecast_gateway", Name: "upstream_duration_seconds"}),
		AuditPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "forecast_gateway", Name: "audit_published_total"}),
		AuditErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "forecast_gateway", Name: "audit_errors_total"}),
		AuditEnabled:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "forecast_gateway", Name: "audit_enabled"}),
	}
}
