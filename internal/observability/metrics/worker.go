package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	*evaluationMetrics

	registry *prometheus.Registry

	digestTotal    *prometheus.CounterVec
	digestDuration *prometheus.HistogramVec
	digestInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	digestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleet",
			Subsystem: "worker",
			Name:      "digest_runs_total",
			Help:      "Total scheduled digest runs by status.",
		},
		[]string{"service", "status"},
	)
	digestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fleet",
			Subsystem: "worker",
			Name:      "digest_run_duration_seconds",
			Help:      "Digest run duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	digestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fleet",
			Subsystem: "worker",
			Name:      "digest_runs_in_flight",
			Help:      "Number of digest runs in progress.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(digestTotal, digestDuration, digestInFlight)

	return &WorkerMetrics{
		evaluationMetrics: newEvaluationMetrics(registry, service),
		registry:          registry,
		digestTotal:       digestTotal,
		digestDuration:    digestDuration,
		digestInFlight:    digestInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDigest() {
	m.digestInFlight.Inc()
}

func (m *WorkerMetrics) FinishDigest(service string, duration time.Duration, err error) {
	m.digestInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.digestTotal.WithLabelValues(service, status).Inc()
	m.digestDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}
