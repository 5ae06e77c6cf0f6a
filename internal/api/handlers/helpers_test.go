package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/careloop/medreminder/internal/api/middleware"
	"github.com/careloop/medreminder/internal/records"
)

const testJWTSecret = "test-secret"

func patientToken(t *testing.T, patientID string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   patientID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// mountPatientRoute wires a handler under the authenticated patient subtree
// the way the real router does.
func mountPatientRoute(method, pattern string, h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1/patients/{patientID}", func(patient chi.Router) {
		patient.Use(middleware.PatientJWT(testJWTSecret))
		patient.MethodFunc(method, pattern, h)
	})
	return r
}

type fakePrescriptionReader struct {
	byID      map[string]*records.Prescription
	byPatient map[string][]records.Prescription
	err       error
}

func (f *fakePrescriptionReader) GetByID(_ context.Context, id string) (*records.Prescription, error) {
	if f.err != nil {
		return nil, f.err
	}
	rx, ok := f.byID[id]
	if !ok {
		return nil, records.ErrNotFound
	}
	return rx, nil
}

func (f *fakePrescriptionReader) ListByPatient(_ context.Context, patientID string) ([]records.Prescription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byPatient[patientID], nil
}

type fakeMedicationReader struct {
	byID map[string]*records.Medication
}

func (f *fakeMedicationReader) GetByID(_ context.Context, id string) (*records.Medication, error) {
	med, ok := f.byID[id]
	if !ok {
		return nil, records.ErrNotFound
	}
	return med, nil
}

type fakeIntakeStore struct {
	byPatient map[string][]records.IntakeConfirmation
	added     []*records.IntakeConfirmation
	addErr    error
}

func (f *fakeIntakeStore) Add(_ context.Context, c *records.IntakeConfirmation) error {
	if f.addErr != nil {
		return f.addErr
	}
	if c.ID == "" {
		c.ID = fmt.Sprintf("conf-%d", len(f.added)+1)
	}
	f.added = append(f.added, c)
	if f.byPatient == nil {
		f.byPatient = make(map[string][]records.IntakeConfirmation)
	}
	f.byPatient[c.PatientID] = append(f.byPatient[c.PatientID], *c)
	return nil
}

func (f *fakeIntakeStore) ListByPatient(_ context.Context, patientID string) ([]records.IntakeConfirmation, error) {
	return f.byPatient[patientID], nil
}

type fakeVitalStore struct {
	byPatient map[string][]records.VitalSign
	added     []*records.VitalSign
	err       error
}

func (f *fakeVitalStore) Add(_ context.Context, v *records.VitalSign) error {
	if f.err != nil {
		return f.err
	}
	if v.ID == "" {
		v.ID = fmt.Sprintf("vs-%d", len(f.added)+1)
	}
	f.added = append(f.added, v)
	if f.byPatient == nil {
		f.byPatient = make(map[string][]records.VitalSign)
	}
	f.byPatient[v.PatientID] = append(f.byPatient[v.PatientID], *v)
	return nil
}

func (f *fakeVitalStore) ListByPatient(_ context.Context, patientID string) ([]records.VitalSign, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byPatient[patientID], nil
}

type fakeAppointmentStore struct {
	byPatient map[string][]records.Appointment
	added     []*records.Appointment
	err       error
}

func (f *fakeAppointmentStore) Create(_ context.Context, appt *records.Appointment) error {
	if f.err != nil {
		return f.err
	}
	if appt.ID == "" {
		appt.ID = fmt.Sprintf("appt-%d", len(f.added)+1)
	}
	f.added = append(f.added, appt)
	if f.byPatient == nil {
		f.byPatient = make(map[string][]records.Appointment)
	}
	f.byPatient[appt.PatientID] = append(f.byPatient[appt.PatientID], *appt)
	return nil
}

func (f *fakeAppointmentStore) ListByPatient(_ context.Context, patientID string) ([]records.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byPatient[patientID], nil
}

type fakePatientReader struct {
	byID map[string]*records.Patient
}

func (f *fakePatientReader) GetByID(_ context.Context, id string) (*records.Patient, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, records.ErrNotFound
	}
	return p, nil
}
