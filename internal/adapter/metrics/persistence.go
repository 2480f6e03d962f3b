package metrics

import "github.com/prometheus/client_golang/prometheus"

// PersistenceMetrics holds Prometheus metrics for the durable poll store.
type PersistenceMetrics struct {
	VoteWrites          *prometheus.CounterVec
	VoteWriteDuration   prometheus.Histogram
	StaleCompletions    prometheus.Counter
	CircuitBreakerState prometheus.Gauge
}

// NewPersistenceMetrics creates and registers persistence metrics on the given registry.
func NewPersistenceMetrics(reg prometheus.Registerer) *PersistenceMetrics {
	m := &PersistenceMetrics{
		VoteWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "vote_writes_total",
			Help:      "Total number of asynchronous vote writes, by result.",
		}, []string{"result"}),
		VoteWriteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "vote_write_duration_seconds",
			Help:      "Duration of asynchronous vote writes in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		StaleCompletions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "stale_vote_completions_total",
			Help:      "Vote writes that completed after their poll was superseded.",
		}),
		CircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "circuit_breaker_state",
			Help:      "Vote write circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
	}

	reg.MustRegister(m.VoteWrites, m.VoteWriteDuration, m.StaleCompletions, m.CircuitBreakerState)
	return m
}
