package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HousekeepingMetrics records scheduled job runs and the outbox backlog they
// observe.
type HousekeepingMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec

	pending   prometheus.Gauge
	terminal  prometheus.Gauge
	oldestAge prometheus.Gauge
}

// NewHousekeepingMetrics registers the housekeeping metrics on the provided
// registerer.
func NewHousekeepingMetrics(reg prometheus.Registerer) *HousekeepingMetrics {
	if reg == nil {
		return &HousekeepingMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "housekeeping_job_duration_seconds",
		Help:    "Duration of housekeeping jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "housekeeping_job_success_total",
		Help: "Successful housekeeping job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "housekeeping_job_failure_total",
		Help: "Failed housekeeping job executions.",
	}, []string{"job"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_pending_events",
		Help: "Outbox events waiting to be published.",
	})
	terminal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_terminal_events",
		Help: "Outbox events abandoned and kept for inspection.",
	})
	oldestAge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_oldest_pending_age_seconds",
		Help: "Age of the oldest unpublished outbox event.",
	})
	reg.MustRegister(duration, success, failure, pending, terminal, oldestAge)
	return &HousekeepingMetrics{
		duration:  duration,
		success:   success,
		failure:   failure,
		pending:   pending,
		terminal:  terminal,
		oldestAge: oldestAge,
	}
}

// ObserveDuration records the duration for the named job.
func (h *HousekeepingMetrics) ObserveDuration(job string, duration time.Duration) {
	if h == nil || h.duration == nil {
		return
	}
	h.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func (h *HousekeepingMetrics) IncSuccess(job string) {
	if h == nil || h.success == nil {
		return
	}
	h.success.WithLabelValues(normalizeLabel(job)).Inc()
}

func (h *HousekeepingMetrics) IncFailure(job string) {
	if h == nil || h.failure == nil {
		return
	}
	h.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// SetOutboxBacklog publishes the latest backlog snapshot.
func (h *HousekeepingMetrics) SetOutboxBacklog(pending, terminal int64, oldestAge time.Duration) {
	if h == nil || h.pending == nil {
		return
	}
	h.pending.Set(float64(pending))
	h.terminal.Set(float64(terminal))
	h.oldestAge.Set(oldestAge.Seconds())
}
