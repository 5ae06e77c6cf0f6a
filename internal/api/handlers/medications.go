package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careloop/medreminder/internal/api/middleware"
	"github.com/careloop/medreminder/internal/records"
	"github.com/careloop/medreminder/internal/reminders"
	"github.com/careloop/medreminder/pkg/logging"
)

// PrescriptionReader fetches prescriptions.
type PrescriptionReader interface {
	GetByID(ctx context.Context, id string) (*records.Prescription, error)
	ListByPatient(ctx context.Context, patientID string) ([]records.Prescription, error)
}

// MedicationReader resolves medication catalog entries.
type MedicationReader interface {
	GetByID(ctx context.Context, id string) (*records.Medication, error)
}

// IntakeReader fetches intake confirmations.
type IntakeReader interface {
	ListByPatient(ctx context.Context, patientID string) ([]records.IntakeConfirmation, error)
}

// MedicationsHandler serves a patient's active medication list.
type MedicationsHandler struct {
	prescriptions PrescriptionReader
	medications   MedicationReader
	intakes       IntakeReader
	loc           *time.Location
	now           func() time.Time
	logger        *logging.Logger
}

// NewMedicationsHandler creates the handler.
func NewMedicationsHandler(prescriptions PrescriptionReader, medications MedicationReader, intakes IntakeReader, loc *time.Location, logger *logging.Logger) *MedicationsHandler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MedicationsHandler{
		prescriptions: prescriptions,
		medications:   medications,
		intakes:       intakes,
		loc:           loc,
		now:           time.Now,
		logger:        logger,
	}
}

// WithClock overrides the wall clock, for tests.
func (h *MedicationsHandler) WithClock(now func() time.Time) *MedicationsHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// ActiveMedication is one row of the patient's active medication list.
type ActiveMedication struct {
	PrescriptionID string `json:"prescriptionId"`
	Medication     string `json:"medication"`
	Instructions   string `json:"instructions,omitempty"`
	StartDate      string `json:"startDate"`
	DurationDays   string `json:"durationDays"`
	TimeOfDay      string `json:"timeOfDay"`
	CanConfirm     bool   `json:"canConfirm"`
}

// List handles GET /patients/{patientID}/medications. The can_confirm flag
// depends on the current instant, so clients re-fetch rather than cache.
func (h *MedicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if !middleware.SubjectMatches(r.Context(), patientID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	ctx := r.Context()
	now := h.now().In(h.loc)

	rxs, err := h.prescriptions.ListByPatient(ctx, patientID)
	if err != nil {
		h.logger.Error("medications: list prescriptions failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load medications")
		return
	}
	confirmations, err := h.intakes.ListByPatient(ctx, patientID)
	if err != nil {
		h.logger.Error("medications: list confirmations failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load medications")
		return
	}

	items := make([]ActiveMedication, 0, len(rxs))
	for _, rx := range rxs {
		active, err := reminders.Active(rx, now, h.loc)
		if err != nil {
			// Malformed records are a dashboard data problem; skip them
			// without hiding the rest of the list.
			h.logger.Warn("medications: skipping malformed prescription",
				"prescription_id", rx.ID, "error", err)
			continue
		}
		if !active {
			continue
		}

		doses, err := reminders.Expand(rx, h.loc)
		if err != nil {
			continue
		}
		canConfirm := false
		if dose, ok := reminders.TodayDose(doses, now); ok {
			canConfirm = reminders.CanConfirm(dose, confirmations, now)
		}

		name, instructions := h.resolveMedication(ctx, rx.MedicationID)
		items = append(items, ActiveMedication{
			PrescriptionID: rx.ID,
			Medication:     name,
			Instructions:   instructions,
			StartDate:      rx.StartDate,
			DurationDays:   rx.DurationDays,
			TimeOfDay:      rx.TimeOfDay,
			CanConfirm:     canConfirm,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].TimeOfDay < items[j].TimeOfDay
	})
	respondJSON(w, http.StatusOK, map[string]any{"medications": items})
}

func (h *MedicationsHandler) resolveMedication(ctx context.Context, id string) (name, instructions string) {
	med, err := h.medications.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, records.ErrNotFound) {
			h.logger.Warn("medications: lookup failed", "medication_id", id, "error", err)
		}
		return "Unknown medication", ""
	}
	instructions = med.Instructions
	if instructions == "" {
		instructions = "Take as directed"
	}
	return med.Name, instructions
}
