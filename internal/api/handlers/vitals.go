package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careloop/medreminder/internal/api/middleware"
	"github.com/careloop/medreminder/internal/records"
	"github.com/careloop/medreminder/pkg/logging"
)

// VitalSignStore appends and reads vital sign readings.
type VitalSignStore interface {
	Add(ctx context.Context, v *records.VitalSign) error
	ListByPatient(ctx context.Context, patientID string) ([]records.VitalSign, error)
}

// VitalSignReader reads vital sign readings.
type VitalSignReader interface {
	ListByPatient(ctx context.Context, patientID string) ([]records.VitalSign, error)
}

// VitalsHandler lets patients log vital signs and browse their history.
type VitalsHandler struct {
	vitals VitalSignStore
	loc    *time.Location
	now    func() time.Time
	logger *logging.Logger
}

// NewVitalsHandler creates the handler.
func NewVitalsHandler(vitals VitalSignStore, loc *time.Location, logger *logging.Logger) *VitalsHandler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &VitalsHandler{vitals: vitals, loc: loc, now: time.Now, logger: logger}
}

// WithClock overrides the wall clock, for tests.
func (h *VitalsHandler) WithClock(now func() time.Time) *VitalsHandler {
	if now != nil {
		h.now = now
	}
	return h
}

type logVitalRequest struct {
	Type       string `json:"type"`
	Value      string `json:"value"`
	RecordedAt string `json:"recordedAt,omitempty"`
}

// Log handles POST /patients/{patientID}/vitals. RecordedAt is optional
// RFC3339 and defaults to now; readings may be backdated.
func (h *VitalsHandler) Log(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if !middleware.SubjectMatches(r.Context(), patientID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req logVitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Type == "" || req.Value == "" {
		respondError(w, http.StatusBadRequest, "type and value are required")
		return
	}

	recordedAt := h.now().UTC().Format(time.RFC3339)
	if req.RecordedAt != "" {
		t, err := time.Parse(time.RFC3339, req.RecordedAt)
		if err != nil {
			respondError(w, http.StatusBadRequest, "recordedAt must be RFC3339")
			return
		}
		recordedAt = t.UTC().Format(time.RFC3339)
	}

	reading := &records.VitalSign{
		PatientID:  patientID,
		Type:       req.Type,
		Value:      req.Value,
		RecordedAt: recordedAt,
	}
	if err := h.vitals.Add(r.Context(), reading); err != nil {
		h.logger.Error("vitals: add reading failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to log vital sign")
		return
	}
	respondJSON(w, http.StatusCreated, reading)
}

// History handles GET /patients/{patientID}/vitals, newest first,
// optionally bounded by ?from=/?to= dates.
func (h *VitalsHandler) History(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if !middleware.SubjectMatches(r.Context(), patientID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	dr, err := parseDateRange(r.URL.Query(), h.loc)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	vitals, err := h.vitals.ListByPatient(r.Context(), patientID)
	if err != nil {
		h.logger.Error("vitals: list readings failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	filtered := vitals[:0:0]
	for _, v := range vitals {
		if dr.contains(v.RecordedAt) {
			filtered = append(filtered, v)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"vitals": filtered})
}
