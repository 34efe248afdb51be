// Package metrics exposes Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestCount     *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	TwoFactorResults *prometheus.CounterVec
	LeadsProcessed   *prometheus.CounterVec
	Distributions    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesdesk_grpc_requests_total",
				Help: "Total number of gRPC requests.",
			},
			[]string{"method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salesdesk_grpc_request_duration_seconds",
				Help:    "Duration of gRPC requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "code"},
		),
		TwoFactorResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesdesk_two_factor_attempts_total",
				Help: "Two-factor operations by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		LeadsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesdesk_leads_processed_total",
				Help: "Leads handled by distribution batches.",
			},
			[]string{"method", "result"},
		),
		Distributions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesdesk_distribution_batches_total",
				Help: "Committed distribution batches.",
			},
			[]string{"method"},
		),
	}

	registry.MustRegister(
		m.RequestCount,
		m.RequestDuration,
		m.TwoFactorResults,
		m.LeadsProcessed,
		m.Distributions,
	)
	return m
}

func (m *Metrics) ObserveRequest(method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestCount.WithLabelValues(method, code).Inc()
	m.RequestDuration.WithLabelValues(method, code).Observe(duration.Seconds())
}

func (m *Metrics) TwoFactorAttempt(operation, outcome string) {
	if m == nil {
		return
	}
	m.TwoFactorResults.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) LeadsDistributed(method string, assigned, skipped, failed int) {
	if m == nil {
		return
	}
	m.Distributions.WithLabelValues(method).Inc()
	m.LeadsProcessed.WithLabelValues(method, "assigned").Add(float64(assigned))
	m.LeadsProcessed.WithLabelValues(method, "skipped").Add(float64(skipped))
	m.LeadsProcessed.WithLabelValues(method, "failed").Add(float64(failed))
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
