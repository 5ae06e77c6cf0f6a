package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careloop/medreminder/internal/api/middleware"
	"github.com/careloop/medreminder/internal/records"
	"github.com/careloop/medreminder/pkg/logging"
)

// AppointmentsHandler covers the patient-side appointment surface: browsing
// upcoming visits and requesting a new one with a chosen doctor.
type AppointmentsHandler struct {
	appointments AppointmentStore
	logger       *logging.Logger
}

// NewAppointmentsHandler creates the handler.
func NewAppointmentsHandler(appointments AppointmentStore, logger *logging.Logger) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{appointments: appointments, logger: logger}
}

// List handles GET /patients/{patientID}/appointments.
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if !middleware.SubjectMatches(r.Context(), patientID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	appts, err := h.appointments.ListByPatient(r.Context(), patientID)
	if err != nil {
		h.logger.Error("appointments: list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

type requestAppointmentRequest struct {
	DoctorID  string `json:"doctorId"`
	Specialty string `json:"specialty,omitempty"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// Request handles POST /patients/{patientID}/appointments. Date and time
// are validated at the edge so the reminder planner never sees a slot it
// cannot parse.
func (h *AppointmentsHandler) Request(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if !middleware.SubjectMatches(r.Context(), patientID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req requestAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.DoctorID == "" || req.Date == "" || req.Time == "" {
		respondError(w, http.StatusBadRequest, "doctorId, date and time are required")
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		respondError(w, http.StatusBadRequest, "time must be HH:MM")
		return
	}

	appt := &records.Appointment{
		PatientID: patientID,
		DoctorID:  req.DoctorID,
		Specialty: req.Specialty,
		Date:      req.Date,
		Time:      req.Time,
	}
	if err := h.appointments.Create(r.Context(), appt); err != nil {
		h.logger.Error("appointments: create failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to request appointment")
		return
	}

	h.logger.Info("appointments: visit requested",
		"patient_id", patientID, "doctor_id", req.DoctorID, "date", req.Date, "time", req.Time)
	respondJSON(w, http.StatusCreated, appt)
}
