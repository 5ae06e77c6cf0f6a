package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/careloop/medreminder/internal/observability/metrics"
	"github.com/careloop/medreminder/internal/records"
	"github.com/careloop/medreminder/pkg/logging"
)

// Appointments get a heads-up and a final call; doses a single short lead.
var appointmentLeads = []time.Duration{2 * time.Hour, time.Hour}

const doseLead = 10 * time.Minute

// PushScheduler enqueues one notification with the delivery subsystem.
type PushScheduler interface {
	Schedule(ctx context.Context, patientID, title, body string, at time.Time) error
}

// MedicationResolver looks up medication catalog entries.
type MedicationResolver interface {
	GetByID(ctx context.Context, id string) (*records.Medication, error)
}

// medicationFallback labels reminders when the catalog lookup fails.
// Lookup failure is recovered locally, never surfaced to the patient.
const medicationFallback = "your medication"

// Planner decides which reminders a record still needs and enqueues them.
// Idempotence is a coarse per-record marker: once any planning pass
// completes for a record, the whole record is done, even if doses are
// added later. Concurrent passes may race the marker write; the bounded
// duplicate that can produce is acceptable.
type Planner struct {
	markers MarkerStore
	push    PushScheduler
	meds    MedicationResolver
	loc     *time.Location
	logger  *logging.Logger
	metrics *metrics.ReminderMetrics
}

// NewPlanner creates a reminder planner.
func NewPlanner(markers MarkerStore, push PushScheduler, meds MedicationResolver, loc *time.Location, logger *logging.Logger, m *metrics.ReminderMetrics) *Planner {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Planner{
		markers: markers,
		push:    push,
		meds:    meds,
		loc:     loc,
		logger:  logger,
		metrics: m,
	}
}

// PlanAppointmentReminders enqueues the T-2h and T-1h triggers for an
// appointment, dropping any already in the past. Returns the instants that
// were enqueued. A marked record enqueues nothing.
func (p *Planner) PlanAppointmentReminders(ctx context.Context, appt records.Appointment, now time.Time) ([]time.Time, error) {
	key := AppointmentMarkerKey(appt.ID)
	done, err := p.markers.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reminders: check marker: %w", err)
	}
	if done {
		return nil, nil
	}

	at, err := composeLocal(appt.ID, appt.Date, appt.Time, p.loc)
	if err != nil {
		return nil, err
	}

	var triggers []trigger
	for _, lead := range appointmentLeads {
		body := fmt.Sprintf("You have an appointment at %s", appt.Time)
		if lead == appointmentLeads[len(appointmentLeads)-1] {
			body = fmt.Sprintf("Your appointment is about to start at %s", appt.Time)
		}
		triggers = append(triggers, trigger{
			at:    at.Add(-lead),
			title: "Medical appointment",
			body:  body,
		})
	}

	return p.enqueue(ctx, key, "appointment", appt.PatientID, triggers, now)
}

// PlanMedicationReminders expands the prescription and enqueues one trigger
// per dose, 10 minutes ahead, dropping past triggers. A marked record
// enqueues nothing; a structurally invalid one aborts with
// InvalidScheduleError without touching siblings.
func (p *Planner) PlanMedicationReminders(ctx context.Context, rx records.Prescription, now time.Time) ([]time.Time, error) {
	key := PrescriptionMarkerKey(rx.ID)
	done, err := p.markers.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reminders: check marker: %w", err)
	}
	if done {
		return nil, nil
	}

	doses, err := Expand(rx, p.loc)
	if err != nil {
		return nil, err
	}

	name := p.resolveMedication(ctx, rx.MedicationID)

	triggers := make([]trigger, 0, len(doses))
	for _, dose := range doses {
		triggers = append(triggers, trigger{
			at:    dose.ScheduledAt.Add(-doseLead),
			title: "Medication reminder",
			body:  fmt.Sprintf("In 10 minutes take %s, scheduled for %s", name, rx.TimeOfDay),
		})
	}

	return p.enqueue(ctx, key, "medication", rx.PatientID, triggers, now)
}

type trigger struct {
	at    time.Time
	title string
	body  string
}

// enqueue pushes every strictly-future trigger, then writes the marker.
// One rejected trigger is logged and skipped; only when every due trigger
// fails is the failure reported, once, with the marker left unset so a
// later pass retries.
func (p *Planner) enqueue(ctx context.Context, key, kind, patientID string, triggers []trigger, now time.Time) ([]time.Time, error) {
	var scheduled []time.Time
	var failures int
	var lastErr error

	for _, t := range triggers {
		if !t.at.After(now) {
			p.metrics.ObserveSkipped("past")
			continue
		}
		if err := p.push.Schedule(ctx, patientID, t.title, t.body, t.at); err != nil {
			failures++
			lastErr = err
			p.metrics.ObserveSkipped("enqueue_failed")
			p.logger.Warn("reminders: trigger enqueue failed",
				"marker", key, "at", t.at.Format(time.RFC3339), "error", err)
			continue
		}
		scheduled = append(scheduled, t.at)
		p.metrics.ObserveScheduled(kind)
	}

	if failures > 0 && len(scheduled) == 0 {
		p.metrics.ObservePlanningFailure()
		return nil, &NotificationSchedulingError{MarkerKey: key, Failed: failures, Last: lastErr}
	}

	if err := p.markers.Set(ctx, key); err != nil {
		return scheduled, fmt.Errorf("reminders: set marker: %w", err)
	}

	if len(scheduled) > 0 {
		p.logger.Info("reminders: planned",
			"marker", key, "kind", kind, "patient_id", patientID,
			"enqueued", len(scheduled), "dropped_past", len(triggers)-len(scheduled)-failures)
	}
	return scheduled, nil
}

func (p *Planner) resolveMedication(ctx context.Context, medicationID string) string {
	if p.meds == nil || medicationID == "" {
		return medicationFallback
	}
	med, err := p.meds.GetByID(ctx, medicationID)
	if err != nil || med == nil || med.Name == "" {
		p.logger.Warn("reminders: medication lookup failed, using placeholder",
			"medication_id", medicationID, "error", err)
		return medicationFallback
	}
	return med.Name
}
