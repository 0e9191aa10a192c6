package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
)

// evaluationMetrics implements ports.EvaluationObserver on a registry.
type evaluationMetrics struct {
	service string

	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	notifications      *prometheus.GaugeVec
	lastSuccess        prometheus.Gauge
}

func newEvaluationMetrics(registry *prometheus.Registry, service string) *evaluationMetrics {
	evaluationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleet",
			Subsystem: "expiry",
			Name:      "evaluations_total",
			Help:      "Total expiry evaluations by source and result.",
		},
		[]string{"service", "source", "result"},
	)
	evaluationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fleet",
			Subsystem: "expiry",
			Name:      "evaluation_duration_seconds",
			Help:      "Snapshot load plus evaluation duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"service", "source"},
	)
	notifications := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "fleet",
			Subsystem: "expiry",
			Name:      "notifications",
			Help:      "Notifications in the latest snapshot evaluation by status.",
		},
		[]string{"service", "status"},
	)
	lastSuccess := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fleet",
			Subsystem: "expiry",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the latest successful snapshot evaluation.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(evaluationsTotal, evaluationDuration, notifications, lastSuccess)

	return &evaluationMetrics{
		service:            service,
		evaluationsTotal:   evaluationsTotal,
		evaluationDuration: evaluationDuration,
		notifications:      notifications,
		lastSuccess:        lastSuccess,
	}
}

func (m *evaluationMetrics) ObserveEvaluation(source string, feed domain.Feed, duration time.Duration, err error) {
	if source == "" {
		source = "unknown"
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.evaluationsTotal.WithLabelValues(m.service, source, result).Inc()
	m.evaluationDuration.WithLabelValues(m.service, source).Observe(duration.Seconds())

	// Ad-hoc evaluations describe caller data, not the fleet.
	if err != nil || source != "snapshot" {
		return
	}
	m.notifications.WithLabelValues(m.service, string(domain.StatusExpired)).Set(float64(feed.ExpiredCount))
	m.notifications.WithLabelValues(m.service, string(domain.StatusExpiringSoon)).Set(float64(feed.ExpiringSoonCount))
	m.lastSuccess.Set(float64(time.Now().Unix()))
}
