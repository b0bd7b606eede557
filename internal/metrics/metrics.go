package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "carelink"

// Collector holds the workflow counters. A nil Collector, or one built
// without a registerer, records nothing.
type Collector struct {
	bookings      *prometheus.CounterVec
	verifications prometheus.Counter
	txRetries     prometheus.Counter
	candidates    *prometheus.CounterVec
}

// New registers the workflow counters on reg.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		return &Collector{}
	}

	bookings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_total",
		Help:      "Appointment booking attempts by outcome.",
	}, []string{"outcome"})
	verifications := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "donation_verifications_total",
		Help:      "Donations transitioned to verified.",
	})
	txRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tx_retries_total",
		Help:      "Transactions retried after a serialization failure or deadlock.",
	})
	candidates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extracted_candidates_total",
		Help:      "Requirement candidates recovered from uploaded documents by confidence.",
	}, []string{"confidence"})

	reg.MustRegister(bookings, verifications, txRetries, candidates)

	return &Collector{
		bookings:      bookings,
		verifications: verifications,
		txRetries:     txRetries,
		candidates:    candidates,
	}
}

func (c *Collector) IncBooking(outcome string) {
	if c == nil || c.bookings == nil {
		return
	}
	c.bookings.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (c *Collector) IncVerification() {
	if c == nil || c.verifications == nil {
		return
	}
	c.verifications.Inc()
}

func (c *Collector) IncTxRetry() {
	if c == nil || c.txRetries == nil {
		return
	}
	c.txRetries.Inc()
}

func (c *Collector) AddCandidates(confidence string, n int) {
	if c == nil || c.candidates == nil || n <= 0 {
		return
	}
	c.candidates.WithLabelValues(normalizeLabel(confidence)).Add(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
