package metrics

import "github.com/prometheus/client_golang/prometheus"

// ClassroomMetrics holds Prometheus metrics for the session coordination core.
type ClassroomMetrics struct {
	Participants  prometheus.Gauge
	PollsCreated  *prometheus.CounterVec
	VotesRecorded *prometheus.CounterVec
	Kicks         *prometheus.CounterVec
	ChatRelays    prometheus.Counter
	EventErrors   *prometheus.CounterVec
}

// NewClassroomMetrics creates and registers classroom metrics on the given registry.
func NewClassroomMetrics(reg prometheus.Registerer) *ClassroomMetrics {
	m := &ClassroomMetrics{
		Participants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "classroom",
			Name:      "participants",
			Help:      "Number of identified participants in the registry.",
		}),
		PollsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classroom",
			Name:      "polls_created_total",
			Help:      "Total number of poll creation requests, by result.",
		}, []string{"result"}),
		VotesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classroom",
			Name:      "votes_total",
			Help:      "Total number of submitted answers, by result.",
		}, []string{"result"}),
		Kicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classroom",
			Name:      "kicks_total",
			Help:      "Total number of kick-out requests, by outcome.",
		}, []string{"outcome"}),
		ChatRelays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classroom",
			Name:      "chat_relays_total",
			Help:      "Total number of chat messages relayed to all connections.",
		}),
		EventErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classroom",
			Name:      "event_errors_total",
			Help:      "Total number of inbound events answered with an error event, by event and error type.",
		}, []string{"event", "type"}),
	}

	reg.MustRegister(m.Participants, m.PollsCreated, m.VotesRecorded, m.Kicks, m.ChatRelays, m.EventErrors)
	return m
}
