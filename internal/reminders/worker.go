package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/careloop/medreminder/internal/records"
	"github.com/careloop/medreminder/pkg/logging"
)

// PatientLister enumerates patients to plan for.
type PatientLister interface {
	List(ctx context.Context) ([]records.Patient, error)
}

// PrescriptionLister fetches a patient's prescriptions.
type PrescriptionLister interface {
	ListByPatient(ctx context.Context, patientID string) ([]records.Prescription, error)
}

// AppointmentLister fetches a patient's appointments.
type AppointmentLister interface {
	ListByPatient(ctx context.Context, patientID string) ([]records.Appointment, error)
}

// PermissionChecker reports whether a patient granted push notifications.
type PermissionChecker interface {
	Granted(ctx context.Context, patientID string) (bool, error)
}

// Worker periodically re-plans reminders for every patient, replacing the
// mobile app's on-focus replanning. Passes are idempotent through the
// per-record markers, so overlapping or repeated invocations are harmless.
type Worker struct {
	patients      PatientLister
	prescriptions PrescriptionLister
	appointments  AppointmentLister
	permissions   PermissionChecker
	planner       *Planner
	logger        *logging.Logger
	tracer        trace.Tracer
	interval      time.Duration
	now           func() time.Time
}

// NewWorker creates a reminder planning worker.
func NewWorker(patients PatientLister, prescriptions PrescriptionLister, appointments AppointmentLister, permissions PermissionChecker, planner *Planner, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		patients:      patients,
		prescriptions: prescriptions,
		appointments:  appointments,
		permissions:   permissions,
		planner:       planner,
		logger:        logger,
		tracer:        otel.Tracer("medreminder/reminders"),
		interval:      5 * time.Minute,
		now:           time.Now,
	}
}

// WithInterval overrides the planning pass interval.
func (w *Worker) WithInterval(d time.Duration) *Worker {
	if d > 0 {
		w.interval = d
	}
	return w
}

// WithClock overrides the wall clock, for tests.
func (w *Worker) WithClock(now func() time.Time) *Worker {
	if now != nil {
		w.now = now
	}
	return w
}

// Run executes planning passes until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pass(ctx)
		}
	}
}

func (w *Worker) pass(ctx context.Context) {
	if planned, err := w.PlanAll(ctx); err != nil {
		w.logger.Error("reminders: planning pass failed", "error", err)
	} else if planned > 0 {
		w.logger.Info("reminders: planning pass complete", "planned", planned)
	}
}

// PlanAll runs one planning pass over every patient. Returns the number of
// records that had reminders enqueued. Per-patient failures are logged and
// do not abort the pass.
func (w *Worker) PlanAll(ctx context.Context) (int, error) {
	ctx, span := w.tracer.Start(ctx, "reminders.PlanAll")
	defer span.End()

	patients, err := w.patients.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("reminders: list patients: %w", err)
	}

	planned := 0
	for _, p := range patients {
		n, err := w.PlanForPatient(ctx, p.ID)
		if errors.Is(err, ErrPermissionDenied) {
			continue
		}
		if err != nil {
			w.logger.Error("reminders: patient planning failed",
				"patient_id", p.ID, "error", err)
			continue
		}
		planned += n
	}
	span.SetAttributes(
		attribute.Int("patients", len(patients)),
		attribute.Int("planned", planned),
	)
	return planned, nil
}

// PlanForPatient plans all of one patient's appointment and medication
// reminders. Errors local to one record never abort the siblings; only a
// failure to read the collections is returned. A patient without granted
// notification permission is skipped entirely.
func (w *Worker) PlanForPatient(ctx context.Context, patientID string) (int, error) {
	ctx, span := w.tracer.Start(ctx, "reminders.PlanForPatient",
		trace.WithAttributes(attribute.String("patient_id", patientID)))
	defer span.End()

	if w.permissions != nil {
		granted, err := w.permissions.Granted(ctx, patientID)
		if err != nil {
			return 0, fmt.Errorf("reminders: check permission: %w", err)
		}
		if !granted {
			w.logger.Debug("reminders: permission not granted, skipping",
				"patient_id", patientID)
			return 0, ErrPermissionDenied
		}
	}

	now := w.now()
	planned := 0

	appts, err := w.appointments.ListByPatient(ctx, patientID)
	if err != nil {
		return 0, fmt.Errorf("reminders: list appointments: %w", err)
	}
	for _, appt := range appts {
		scheduled, err := w.planner.PlanAppointmentReminders(ctx, appt, now)
		if err != nil {
			w.logRecordError("appointment", appt.ID, err)
			continue
		}
		if len(scheduled) > 0 {
			planned++
		}
	}

	rxs, err := w.prescriptions.ListByPatient(ctx, patientID)
	if err != nil {
		return 0, fmt.Errorf("reminders: list prescriptions: %w", err)
	}
	for _, rx := range rxs {
		scheduled, err := w.planner.PlanMedicationReminders(ctx, rx, now)
		if err != nil {
			w.logRecordError("prescription", rx.ID, err)
			continue
		}
		if len(scheduled) > 0 {
			planned++
		}
	}

	span.SetAttributes(attribute.Int("planned", planned))
	return planned, nil
}

func (w *Worker) logRecordError(kind, id string, err error) {
	var invalid *InvalidScheduleError
	if errors.As(err, &invalid) {
		w.logger.Warn("reminders: skipping malformed record",
			"kind", kind, "id", id, "error", err)
		return
	}
	w.logger.Error("reminders: record planning failed",
		"kind", kind, "id", id, "error", err)
}
