package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReminderMetrics(reg)

	m.ObserveScheduled("medication")
	m.ObserveScheduled("medication")
	m.ObserveScheduled("appointment")
	m.ObserveSkipped("past")
	m.ObservePlanningFailure()
	m.ObserveIntake()

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]*dto.MetricFamily{}
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	sched := byName["medreminder_reminders_scheduled_total"]
	require.NotNil(t, sched)
	var total float64
	for _, metric := range sched.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	assert.Equal(t, 3.0, total)

	require.NotNil(t, byName["medreminder_reminders_skipped_total"])
	require.NotNil(t, byName["medreminder_reminders_planning_failures_total"])
	require.NotNil(t, byName["medreminder_intakes_confirmations_total"])
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *ReminderMetrics
	m.ObserveScheduled("medication")
	m.ObserveSkipped("past")
	m.ObservePlanningFailure()
	m.ObserveIntake()
}
