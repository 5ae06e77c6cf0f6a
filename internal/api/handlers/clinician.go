package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careloop/medreminder/internal/records"
	"github.com/careloop/medreminder/internal/reminders"
	"github.com/careloop/medreminder/pkg/logging"
)

// PrescriptionStore persists prescriptions for the clinician dashboard.
type PrescriptionStore interface {
	Create(ctx context.Context, rx *records.Prescription) error
	ListByPatient(ctx context.Context, patientID string) ([]records.Prescription, error)
}

// AppointmentStore persists appointments.
type AppointmentStore interface {
	Create(ctx context.Context, appt *records.Appointment) error
	ListByPatient(ctx context.Context, patientID string) ([]records.Appointment, error)
}

// MedicationStore manages the medication catalog.
type MedicationStore interface {
	Create(ctx context.Context, med *records.Medication) error
	List(ctx context.Context) ([]records.Medication, error)
}

// PatientStore manages patient records.
type PatientStore interface {
	Create(ctx context.Context, p *records.Patient) error
	List(ctx context.Context) ([]records.Patient, error)
}

// ClinicianHandler covers the physician dashboard CRUD surface.
type ClinicianHandler struct {
	prescriptions PrescriptionStore
	appointments  AppointmentStore
	medications   MedicationStore
	patients      PatientStore
	loc           *time.Location
	logger        *logging.Logger
}

// NewClinicianHandler creates the handler.
func NewClinicianHandler(prescriptions PrescriptionStore, appointments AppointmentStore, medications MedicationStore, patients PatientStore, loc *time.Location, logger *logging.Logger) *ClinicianHandler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ClinicianHandler{
		prescriptions: prescriptions,
		appointments:  appointments,
		medications:   medications,
		patients:      patients,
		loc:           loc,
		logger:        logger,
	}
}

// CreatePrescription handles POST /admin/prescriptions. The schedule is
// validated through the expander so malformed durations or times are
// rejected at the edge instead of surfacing later as planning errors.
func (h *ClinicianHandler) CreatePrescription(w http.ResponseWriter, r *http.Request) {
	var rx records.Prescription
	if err := json.NewDecoder(r.Body).Decode(&rx); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if rx.PatientID == "" || rx.MedicationID == "" {
		respondError(w, http.StatusBadRequest, "patientId and medicationId are required")
		return
	}
	if _, err := reminders.Expand(rx, h.loc); err != nil {
		var invalid *reminders.InvalidScheduleError
		if errors.As(err, &invalid) {
			respondError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "invalid schedule")
		return
	}

	if err := h.prescriptions.Create(r.Context(), &rx); err != nil {
		h.logger.Error("clinician: create prescription failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create prescription")
		return
	}
	respondJSON(w, http.StatusCreated, rx)
}

// ListPrescriptions handles GET /admin/patients/{patientID}/prescriptions.
func (h *ClinicianHandler) ListPrescriptions(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	rxs, err := h.prescriptions.ListByPatient(r.Context(), patientID)
	if err != nil {
		h.logger.Error("clinician: list prescriptions failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list prescriptions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"prescriptions": rxs})
}

// CreateAppointment handles POST /admin/appointments.
func (h *ClinicianHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var appt records.Appointment
	if err := json.NewDecoder(r.Body).Decode(&appt); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if appt.PatientID == "" || appt.Date == "" || appt.Time == "" {
		respondError(w, http.StatusBadRequest, "patientId, date and time are required")
		return
	}

	if err := h.appointments.Create(r.Context(), &appt); err != nil {
		h.logger.Error("clinician: create appointment failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}
	respondJSON(w, http.StatusCreated, appt)
}

// ListAppointments handles GET /admin/patients/{patientID}/appointments.
func (h *ClinicianHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	appts, err := h.appointments.ListByPatient(r.Context(), patientID)
	if err != nil {
		h.logger.Error("clinician: list appointments failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

// CreateMedication handles POST /admin/medications.
func (h *ClinicianHandler) CreateMedication(w http.ResponseWriter, r *http.Request) {
	var med records.Medication
	if err := json.NewDecoder(r.Body).Decode(&med); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.medications.Create(r.Context(), &med); err != nil {
		h.logger.Error("clinician: create medication failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create medication")
		return
	}
	respondJSON(w, http.StatusCreated, med)
}

// ListMedications handles GET /admin/medications.
func (h *ClinicianHandler) ListMedications(w http.ResponseWriter, r *http.Request) {
	meds, err := h.medications.List(r.Context())
	if err != nil {
		h.logger.Error("clinician: list medications failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list medications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"medications": meds})
}

// CreatePatient handles POST /admin/patients.
func (h *ClinicianHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var p records.Patient
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.patients.Create(r.Context(), &p); err != nil {
		h.logger.Error("clinician: create patient failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create patient")
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// ListPatients handles GET /admin/patients.
func (h *ClinicianHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.patients.List(r.Context())
	if err != nil {
		h.logger.Error("clinician: list patients failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list patients")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"patients": patients})
}
