// Package observability provides Prometheus metrics for the upload
// pipeline and email dispatch.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	UploadsTotal       *prometheus.CounterVec
	ProcessingDuration prometheus.Histogram
	EmailAttempts      *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all collectors on a private registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "microscan_uploads_total",
			Help: "Total processed uploads by final status.",
		}, []string{"status"}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "microscan_processing_duration_seconds",
			Help:    "Duration of the transform-detect-recommend-persist sequence.",
			Buckets: prometheus.DefBuckets,
		}),
		EmailAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "microscan_email_attempts_total",
			Help: "Results email delivery attempts by outcome.",
		}, []string{"outcome"}),
		registry: prometheus.NewRegistry(),
	}

	collectors := []prometheus.Collector{
		m.UploadsTotal,
		m.ProcessingDuration,
		m.EmailAttempts,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
