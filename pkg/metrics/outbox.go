package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records the outcome of outbox publisher passes.
type OutboxMetrics struct {
	passDuration *prometheus.HistogramVec
	published    *prometheus.CounterVec
	failed       *prometheus.CounterVec
}

// NewOutboxMetrics registers the publisher metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	passDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_pass_duration_seconds",
		Help:    "Duration of outbox publisher passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"worker"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_items_published",
		Help: "Outbox items published to the broker.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_items_failed",
		Help: "Outbox items marked failed.",
	}, []string{"event_type"})
	reg.MustRegister(passDuration, published, failed)
	return &OutboxMetrics{
		passDuration: passDuration,
		published:    published,
		failed:       failed,
	}
}

// ObservePass records the duration for a full publisher pass.
func (m *OutboxMetrics) ObservePass(worker string, duration time.Duration) {
	if m == nil || m.passDuration == nil {
		return
	}
	m.passDuration.WithLabelValues(normalizeLabel(worker)).Observe(duration.Seconds())
}

// IncPublished increments the published counter for the event type.
func (m *OutboxMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailed increments the failed counter for the event type.
func (m *OutboxMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
