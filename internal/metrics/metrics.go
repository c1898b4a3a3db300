package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegistrationMetrics holds the counters for the registration workflow and
// the alias request/reply channel.
type RegistrationMetrics struct {
	TransitionsTotal       *prometheus.CounterVec
	AliasRequestsTotal     *prometheus.CounterVec
	AliasRepliesTotal      *prometheus.CounterVec
	AliasRoundTripDuration prometheus.Histogram
}

// New registers the workflow metrics on the given registerer. Pass
// prometheus.DefaultRegisterer in main, a fresh registry in tests.
func New(reg prometheus.Registerer) *RegistrationMetrics {
	factory := promauto.With(reg)

	return &RegistrationMetrics{
		TransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "merchant_transitions_total",
				Help: "Merchant registration transitions by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		AliasRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alias_requests_total",
				Help: "Alias generation requests by publish outcome (accepted/rejected)",
			},
			[]string{"outcome"},
		),

		AliasRepliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alias_replies_total",
				Help: "Registry replies by dispatch outcome (matched/unmatched/expired)",
			},
			[]string{"outcome"},
		),

		AliasRoundTripDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "alias_round_trip_duration_seconds",
				Help:    "Time between publishing an alias request and dispatching its reply",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms .. ~3.4min
			},
		),
	}
}

// RecordTransition counts one transition attempt.
func (m *RegistrationMetrics) RecordTransition(kind, outcome string) {
	m.TransitionsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordAliasRequest counts one publish attempt.
func (m *RegistrationMetrics) RecordAliasRequest(outcome string) {
	m.AliasRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordAliasReply counts one reply dispatch attempt.
func (m *RegistrationMetrics) RecordAliasReply(outcome string) {
	m.AliasRepliesTotal.WithLabelValues(outcome).Inc()
}

// RecordAliasRoundTrip observes a completed request/reply round trip.
func (m *RegistrationMetrics) RecordAliasRoundTrip(seconds float64) {
	m.AliasRoundTripDuration.Observe(seconds)
}
