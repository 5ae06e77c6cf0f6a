package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/careloop/medreminder/internal/records"
)

type fakeCollections struct {
	patients      []records.Patient
	prescriptions map[string][]records.Prescription
	appointments  map[string][]records.Appointment
	listErr       error
}

func (f *fakeCollections) List(context.Context) ([]records.Patient, error) {
	return f.patients, f.listErr
}

func (f *fakeCollections) ListByPatient(_ context.Context, patientID string) ([]records.Prescription, error) {
	return f.prescriptions[patientID], nil
}

type fakeAppointments struct {
	byPatient map[string][]records.Appointment
}

func (f *fakeAppointments) ListByPatient(_ context.Context, patientID string) ([]records.Appointment, error) {
	return f.byPatient[patientID], nil
}

type fakePermissions struct {
	granted map[string]bool
	err     error
}

func (f *fakePermissions) Granted(_ context.Context, patientID string) (bool, error) {
	return f.granted[patientID], f.err
}

func newTestWorker(cols *fakeCollections, appts *fakeAppointments, perms *fakePermissions, push PushScheduler, markers MarkerStore, now time.Time) *Worker {
	planner := NewPlanner(markers, push, nil, time.UTC, nil, nil)
	return NewWorker(cols, cols, appts, perms, planner, nil).
		WithClock(func() time.Time { return now })
}

func TestPlanForPatientPermissionDenied(t *testing.T) {
	cols := &fakeCollections{
		prescriptions: map[string][]records.Prescription{
			"pat-1": {{ID: "rx-1", PatientID: "pat-1", StartDate: "2024-01-10", DurationDays: "3", TimeOfDay: "08:00"}},
		},
	}
	push := &fakePush{}
	w := newTestWorker(cols, &fakeAppointments{}, &fakePermissions{granted: map[string]bool{}},
		push, newFakeMarkerStore(), time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC))

	_, err := w.PlanForPatient(context.Background(), "pat-1")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if len(push.calls) != 0 {
		t.Errorf("denied patient must not get reminders, got %d", len(push.calls))
	}
}

func TestPlanForPatientPlansBothKinds(t *testing.T) {
	now := time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC)
	cols := &fakeCollections{
		prescriptions: map[string][]records.Prescription{
			"pat-1": {{ID: "rx-1", PatientID: "pat-1", StartDate: "2024-01-10", DurationDays: "2", TimeOfDay: "08:00"}},
		},
	}
	appts := &fakeAppointments{byPatient: map[string][]records.Appointment{
		"pat-1": {{ID: "appt-1", PatientID: "pat-1", Date: "2024-01-10", Time: "15:00"}},
	}}
	push := &fakePush{}
	markers := newFakeMarkerStore()
	w := newTestWorker(cols, appts, &fakePermissions{granted: map[string]bool{"pat-1": true}}, push, markers, now)

	planned, err := w.PlanForPatient(context.Background(), "pat-1")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if planned != 2 {
		t.Errorf("expected 2 records planned, got %d", planned)
	}
	// 2 dose triggers + 2 appointment leads.
	if len(push.calls) != 4 {
		t.Errorf("expected 4 notifications, got %d", len(push.calls))
	}
}

func TestPlanForPatientMalformedRecordDoesNotAbortSiblings(t *testing.T) {
	now := time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC)
	cols := &fakeCollections{
		prescriptions: map[string][]records.Prescription{
			"pat-1": {
				{ID: "rx-bad", PatientID: "pat-1", StartDate: "2024-01-10", DurationDays: "soon", TimeOfDay: "08:00"},
				{ID: "rx-ok", PatientID: "pat-1", StartDate: "2024-01-10", DurationDays: "1", TimeOfDay: "09:00"},
			},
		},
	}
	push := &fakePush{}
	markers := newFakeMarkerStore()
	w := newTestWorker(cols, &fakeAppointments{}, &fakePermissions{granted: map[string]bool{"pat-1": true}}, push, markers, now)

	planned, err := w.PlanForPatient(context.Background(), "pat-1")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if planned != 1 {
		t.Errorf("expected the valid sibling to plan, got %d", planned)
	}
	if markers.set[PrescriptionMarkerKey("rx-bad")] {
		t.Error("malformed record must not be marked")
	}
	if !markers.set[PrescriptionMarkerKey("rx-ok")] {
		t.Error("valid record must be marked")
	}
}

func TestPlanAllSkipsDeniedPatients(t *testing.T) {
	now := time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC)
	cols := &fakeCollections{
		patients: []records.Patient{{ID: "pat-1"}, {ID: "pat-2"}},
		prescriptions: map[string][]records.Prescription{
			"pat-1": {{ID: "rx-1", PatientID: "pat-1", StartDate: "2024-01-10", DurationDays: "1", TimeOfDay: "08:00"}},
			"pat-2": {{ID: "rx-2", PatientID: "pat-2", StartDate: "2024-01-10", DurationDays: "1", TimeOfDay: "08:00"}},
		},
	}
	push := &fakePush{}
	perms := &fakePermissions{granted: map[string]bool{"pat-1": true}}
	w := newTestWorker(cols, &fakeAppointments{}, perms, push, newFakeMarkerStore(), now)

	planned, err := w.PlanAll(context.Background())
	if err != nil {
		t.Fatalf("plan all: %v", err)
	}
	if planned != 1 {
		t.Errorf("expected 1 planned record, got %d", planned)
	}
	for _, c := range push.calls {
		if c.patientID != "pat-1" {
			t.Errorf("denied patient received notification: %+v", c)
		}
	}
}

func TestPlanAllListFailure(t *testing.T) {
	cols := &fakeCollections{listErr: errors.New("store down")}
	w := newTestWorker(cols, &fakeAppointments{}, &fakePermissions{}, &fakePush{}, newFakeMarkerStore(), time.Now())

	if _, err := w.PlanAll(context.Background()); err == nil {
		t.Fatal("expected error when patient listing fails")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cols := &fakeCollections{}
	w := newTestWorker(cols, &fakeAppointments{}, &fakePermissions{}, &fakePush{}, newFakeMarkerStore(), time.Now()).
		WithInterval(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
