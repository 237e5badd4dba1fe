package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcome labels.
const (
	OutcomeCommitted = "committed"
	OutcomeFailed    = "failed"
	OutcomePartial   = "partial"
)

// CheckoutMetrics records commit latency, outcomes and stock contention.
type CheckoutMetrics struct {
	duration     *prometheus.HistogramVec
	outcomes     *prometheus.CounterVec
	stockRetries prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout commits in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcome_total",
		Help: "Checkout commits by terminal outcome.",
	}, []string{"outcome"})
	stockRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_decrement_retries_total",
		Help: "Compare-and-set stock decrements that lost a race and were retried.",
	})
	reg.MustRegister(duration, outcomes, stockRetries)
	return &CheckoutMetrics{
		duration:     duration,
		outcomes:     outcomes,
		stockRetries: stockRetries,
	}
}

// ObserveCheckout records one finished commit attempt.
func (c *CheckoutMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil || c.outcomes == nil {
		return
	}
	label := normalizeOutcome(outcome)
	c.duration.WithLabelValues(label).Observe(duration.Seconds())
	c.outcomes.WithLabelValues(label).Inc()
}

// AddStockRetries adds lost compare-and-set rounds.
func (c *CheckoutMetrics) AddStockRetries(n int) {
	if c == nil || c.stockRetries == nil || n <= 0 {
		return
	}
	c.stockRetries.Add(float64(n))
}

func normalizeOutcome(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
