package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrintJobMetrics tracks job lifecycle transitions per printer.
type PrintJobMetrics struct {
	queued    *prometheus.CounterVec
	claimed   *prometheus.CounterVec
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewPrintJobMetrics registers the lifecycle counters on the provided
// registerer. A nil registerer yields a no-op instance.
func NewPrintJobMetrics(reg prometheus.Registerer) *PrintJobMetrics {
	if reg == nil {
		return &PrintJobMetrics{}
	}
	queued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "print_jobs_queued",
		Help: "Print jobs accepted into the queue.",
	}, []string{"printer_id"})
	claimed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "print_jobs_claimed",
		Help: "Print jobs handed to a polling printer.",
	}, []string{"printer_id"})
	completed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "print_jobs_completed",
		Help: "Print jobs acknowledged as completed.",
	}, []string{"printer_id"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "print_jobs_failed",
		Help: "Print jobs acknowledged as failed.",
	}, []string{"printer_id"})
	reg.MustRegister(queued, claimed, completed, failed)
	return &PrintJobMetrics{
		queued:    queued,
		claimed:   claimed,
		completed: completed,
		failed:    failed,
	}
}

// IncQueued counts a job entering the queue.
func (m *PrintJobMetrics) IncQueued(printerID string) {
	if m == nil || m.queued == nil {
		return
	}
	m.queued.WithLabelValues(normalizeLabel(printerID)).Inc()
}

// AddClaimed counts jobs claimed in a single poll.
func (m *PrintJobMetrics) AddClaimed(printerID string, n int) {
	if m == nil || m.claimed == nil || n <= 0 {
		return
	}
	m.claimed.WithLabelValues(normalizeLabel(printerID)).Add(float64(n))
}

// IncCompleted counts a successful acknowledgement.
func (m *PrintJobMetrics) IncCompleted(printerID string) {
	if m == nil || m.completed == nil {
		return
	}
	m.completed.WithLabelValues(normalizeLabel(printerID)).Inc()
}

// IncFailed counts a failed acknowledgement.
func (m *PrintJobMetrics) IncFailed(printerID string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(printerID)).Inc()
}
