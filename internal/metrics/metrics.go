// Package metrics exposes Prometheus instrumentation for the bridge:
// HTTP traffic, upstream calls, circuit breaker transitions, cache
// effectiveness and retry queue depth.
package metrics

import (
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ProviderSet is metrics providers.
var ProviderSet = wire.NewSet(NewMetrics)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Upstream call metrics
	ExternalCalls    *prometheus.CounterVec
	ExternalDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	BreakerTransitions *prometheus.CounterVec
	BreakerRejections  *prometheus.CounterVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Retry queue metrics
	QueueDepth    prometheus.Gauge
	RetryOutcomes *prometheus.CounterVec
}

// NewMetrics creates a metrics collector backed by its own registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kosbridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kosbridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ExternalCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kosbridge_external_calls_total",
				Help: "Total number of calls to the provisioning system",
			},
			[]string{"endpoint", "outcome"},
		),
		ExternalDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kosbridge_external_call_duration_seconds",
				Help:    "Provisioning system call duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),

		BreakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kosbridge_breaker_transitions_total",
				Help: "Total number of circuit breaker state transitions",
			},
			[]string{"breaker", "from", "to"},
		),
		BreakerRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kosbridge_breaker_rejections_total",
				Help: "Total number of calls rejected by an open circuit",
			},
			[]string{"breaker"},
		),

		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kosbridge_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kosbridge_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),

		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "kosbridge_retry_queue_depth",
				Help: "Number of change requests waiting for retry",
			},
		),
		RetryOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kosbridge_retry_outcomes_total",
				Help: "Total number of retry attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordExternalCall records a call to the provisioning system
func (m *Metrics) RecordExternalCall(endpoint, outcome string, duration time.Duration) {
	m.ExternalCalls.WithLabelValues(endpoint, outcome).Inc()
	m.ExternalDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordBreakerTransition records a circuit breaker state change
func (m *Metrics) RecordBreakerTransition(breaker, from, to string) {
	m.BreakerTransitions.WithLabelValues(breaker, from, to).Inc()
}

// RecordBreakerRejection records a call rejected by an open circuit
func (m *Metrics) RecordBreakerRejection(breaker string) {
	m.BreakerRejections.WithLabelValues(breaker).Inc()
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(cache string) {
	m.CacheMisses.WithLabelValues(cache).Inc()
}

// SetQueueDepth sets the current retry queue depth
func (m *Metrics) SetQueueDepth(depth int64) {
	m.QueueDepth.Set(float64(depth))
}

// RecordRetryOutcome records the outcome of one retry attempt
func (m *Metrics) RecordRetryOutcome(outcome string) {
	m.RetryOutcomes.WithLabelValues(outcome).Inc()
}

// Handler returns the HTTP handler serving the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
