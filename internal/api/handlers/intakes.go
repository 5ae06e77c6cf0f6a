package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careloop/medreminder/internal/api/middleware"
	"github.com/careloop/medreminder/internal/notify"
	"github.com/careloop/medreminder/internal/observability/metrics"
	"github.com/careloop/medreminder/internal/records"
	"github.com/careloop/medreminder/internal/reminders"
	"github.com/careloop/medreminder/pkg/logging"
)

// IntakeWriter appends and reads intake confirmations.
type IntakeWriter interface {
	Add(ctx context.Context, c *records.IntakeConfirmation) error
	ListByPatient(ctx context.Context, patientID string) ([]records.IntakeConfirmation, error)
}

// PatientReader fetches patient records.
type PatientReader interface {
	GetByID(ctx context.Context, id string) (*records.Patient, error)
}

// IntakesHandler logs dose intakes and serves the intake history.
type IntakesHandler struct {
	prescriptions PrescriptionReader
	medications   MedicationReader
	intakes       IntakeWriter
	patients      PatientReader
	receipts      *notify.Service
	metrics       *metrics.ReminderMetrics
	loc           *time.Location
	now           func() time.Time
	logger        *logging.Logger
}

// NewIntakesHandler creates the handler.
func NewIntakesHandler(prescriptions PrescriptionReader, medications MedicationReader, intakes IntakeWriter, patients PatientReader, receipts *notify.Service, m *metrics.ReminderMetrics, loc *time.Location, logger *logging.Logger) *IntakesHandler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IntakesHandler{
		prescriptions: prescriptions,
		medications:   medications,
		intakes:       intakes,
		patients:      patients,
		receipts:      receipts,
		metrics:       m,
		loc:           loc,
		now:           time.Now,
		logger:        logger,
	}
}

// WithClock overrides the wall clock, for tests.
func (h *IntakesHandler) WithClock(now func() time.Time) *IntakesHandler {
	if now != nil {
		h.now = now
	}
	return h
}

type confirmIntakeRequest struct {
	PrescriptionID string `json:"prescriptionId"`
}

// Confirm handles POST /patients/{patientID}/intakes. The gate is
// re-checked server-side: a dose may only be logged once per local day and
// not before its scheduled time.
func (h *IntakesHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if !middleware.SubjectMatches(r.Context(), patientID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req confirmIntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PrescriptionID == "" {
		respondError(w, http.StatusBadRequest, "prescriptionId is required")
		return
	}

	ctx := r.Context()
	now := h.now().In(h.loc)

	rx, err := h.prescriptions.GetByID(ctx, req.PrescriptionID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			respondError(w, http.StatusNotFound, "prescription not found")
			return
		}
		h.logger.Error("intakes: load prescription failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to confirm intake")
		return
	}
	if rx.PatientID != patientID {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	doses, err := reminders.Expand(*rx, h.loc)
	if err != nil {
		var invalid *reminders.InvalidScheduleError
		if errors.As(err, &invalid) {
			respondError(w, http.StatusUnprocessableEntity, invalid.Error())
			return
		}
		h.logger.Error("intakes: expand failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to confirm intake")
		return
	}

	confirmations, err := h.intakes.ListByPatient(ctx, patientID)
	if err != nil {
		h.logger.Error("intakes: list confirmations failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to confirm intake")
		return
	}

	dose, ok := reminders.TodayDose(doses, now)
	if !ok || !reminders.CanConfirm(dose, confirmations, now) {
		respondError(w, http.StatusConflict, "dose cannot be confirmed right now")
		return
	}

	medName := "your medication"
	if med, err := h.medications.GetByID(ctx, rx.MedicationID); err == nil && med.Name != "" {
		medName = med.Name
	}

	confirmation := &records.IntakeConfirmation{
		PatientID:      patientID,
		PrescriptionID: rx.ID,
		MedicationName: medName,
		TakenAt:        now.UTC().Format(time.RFC3339),
	}
	if err := h.intakes.Add(ctx, confirmation); err != nil {
		h.logger.Error("intakes: add confirmation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to confirm intake")
		return
	}
	h.metrics.ObserveIntake()

	h.sendReceipt(ctx, patientID, medName, now)

	respondJSON(w, http.StatusCreated, confirmation)
}

// History handles GET /patients/{patientID}/intakes, newest first.
func (h *IntakesHandler) History(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if !middleware.SubjectMatches(r.Context(), patientID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	confirmations, err := h.intakes.ListByPatient(r.Context(), patientID)
	if err != nil {
		h.logger.Error("intakes: list confirmations failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"intakes": confirmations})
}

// sendReceipt emails a confirmation, best-effort.
func (h *IntakesHandler) sendReceipt(ctx context.Context, patientID, medName string, takenAt time.Time) {
	if h.receipts == nil || h.patients == nil {
		return
	}
	patient, err := h.patients.GetByID(ctx, patientID)
	if err != nil {
		h.logger.Warn("intakes: patient lookup for receipt failed",
			"patient_id", patientID, "error", err)
		return
	}
	if err := h.receipts.SendIntakeReceipt(ctx, *patient, medName, takenAt); err != nil {
		h.logger.Warn("intakes: receipt email failed",
			"patient_id", patientID, "error", err)
	}
}
