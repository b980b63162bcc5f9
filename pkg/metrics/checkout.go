package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes reported by the checkout service.
const (
	OutcomeSuccess      = "success"
	OutcomeRejected     = "rejected"
	OutcomeTimeout      = "timeout"
	OutcomeUnconfigured = "unconfigured"
	OutcomeStale        = "stale"
)

// CheckoutMetrics records checkout session and order submission activity.
type CheckoutMetrics struct {
	sessions    prometheus.Counter
	submissions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a recorder that drops everything.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	sessions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_created_total",
		Help: "Checkout sessions opened by visitors.",
	})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_submission_duration_seconds",
		Help:    "Time spent waiting on the order sink.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(sessions, submissions, duration)
	return &CheckoutMetrics{
		sessions:    sessions,
		submissions: submissions,
		duration:    duration,
	}
}

func (c *CheckoutMetrics) SessionCreated() {
	if c == nil || c.sessions == nil {
		return
	}
	c.sessions.Inc()
}

// SubmissionFinished counts one sink round trip and observes its latency.
func (c *CheckoutMetrics) SubmissionFinished(outcome string, elapsed time.Duration) {
	if c == nil || c.submissions == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	c.submissions.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
