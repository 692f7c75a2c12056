package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chat_relay"

// UpstreamMetrics tracks calls made to upstream providers.
//
// Metrics:
//   - chat_relay_upstream_requests_total: calls by provider, operation and outcome
//   - chat_relay_upstream_latency_seconds: call latency by provider and operation
type UpstreamMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewUpstreamMetrics creates and registers the upstream metrics. A nil
// registry gets a fresh one.
func NewUpstreamMetrics(registry *prometheus.Registry) *UpstreamMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &UpstreamMetrics{
		registry: registry,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of upstream calls by outcome",
			},
			[]string{"provider", "operation", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_latency_seconds",
				Help:      "Upstream call latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider", "operation"},
		),
	}
	registry.MustRegister(m.requests, m.latency)
	return m
}

// ObserveUpstream records one finished upstream call. Safe on a nil receiver.
func (m *UpstreamMetrics) ObserveUpstream(provider, operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(provider, operation, outcome).Inc()
	m.latency.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus exposition format.
func (m *UpstreamMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
