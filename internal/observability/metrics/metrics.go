package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReminderMetrics exposes counters for reminder planning and intake flows.
type ReminderMetrics struct {
	scheduledTotal   *prometheus.CounterVec
	skippedTotal     *prometheus.CounterVec
	planningFailures prometheus.Counter
	intakesTotal     prometheus.Counter
}

func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	m := &ReminderMetrics{
		scheduledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medreminder",
			Subsystem: "reminders",
			Name:      "scheduled_total",
			Help:      "Reminder notifications enqueued with the push subsystem",
		}, []string{"kind"}),
		skippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medreminder",
			Subsystem: "reminders",
			Name:      "skipped_total",
			Help:      "Candidate triggers dropped (already past, enqueue failed)",
		}, []string{"reason"}),
		planningFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medreminder",
			Subsystem: "reminders",
			Name:      "planning_failures_total",
			Help:      "Records whose due triggers all failed to enqueue",
		}),
		intakesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medreminder",
			Subsystem: "intakes",
			Name:      "confirmations_total",
			Help:      "Intake confirmations logged by patients",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.scheduledTotal, m.skippedTotal, m.planningFailures, m.intakesTotal)
	return m
}

func (m *ReminderMetrics) ObserveScheduled(kind string) {
	if m == nil {
		return
	}
	m.scheduledTotal.WithLabelValues(kind).Inc()
}

func (m *ReminderMetrics) ObserveSkipped(reason string) {
	if m == nil {
		return
	}
	m.skippedTotal.WithLabelValues(reason).Inc()
}

func (m *ReminderMetrics) ObservePlanningFailure() {
	if m == nil {
		return
	}
	m.planningFailures.Inc()
}

func (m *ReminderMetrics) ObserveIntake() {
	if m == nil {
		return
	}
	m.intakesTotal.Inc()
}
