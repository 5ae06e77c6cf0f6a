package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/careloop/medreminder/internal/api/middleware"
	"github.com/careloop/medreminder/internal/notify"
	"github.com/careloop/medreminder/internal/reminders"
	"github.com/careloop/medreminder/pkg/logging"
)

// PatientPlanner runs one reminder planning pass for a patient. The app
// calls this when a screen gains focus, matching the old on-focus flow.
type PatientPlanner interface {
	PlanForPatient(ctx context.Context, patientID string) (int, error)
}

// PermissionWriter records the notification permission a patient reported.
type PermissionWriter interface {
	Set(ctx context.Context, patientID string, status notify.PermissionStatus) error
}

// RemindersHandler exposes replanning and permission registration.
type RemindersHandler struct {
	planner     PatientPlanner
	permissions PermissionWriter
	logger      *logging.Logger
}

// NewRemindersHandler creates the handler.
func NewRemindersHandler(planner PatientPlanner, permissions PermissionWriter, logger *logging.Logger) *RemindersHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RemindersHandler{planner: planner, permissions: permissions, logger: logger}
}

// Plan handles POST /patients/{patientID}/reminders/plan. Planning is
// idempotent through the per-record markers, so repeated focus events are
// cheap. Denied permission is reported, not treated as a failure.
func (h *RemindersHandler) Plan(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if !middleware.SubjectMatches(r.Context(), patientID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	planned, err := h.planner.PlanForPatient(r.Context(), patientID)
	if errors.Is(err, reminders.ErrPermissionDenied) {
		respondJSON(w, http.StatusOK, map[string]any{
			"planned":           0,
			"permissionGranted": false,
		})
		return
	}
	if err != nil {
		h.logger.Error("reminders: plan failed", "patient_id", patientID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to plan reminders")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"planned":           planned,
		"permissionGranted": true,
	})
}

type permissionRequest struct {
	Status string `json:"status"`
}

// Permission handles PUT /patients/{patientID}/notifications/permission.
func (h *RemindersHandler) Permission(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if !middleware.SubjectMatches(r.Context(), patientID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req permissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	status := notify.PermissionStatus(req.Status)
	if !notify.ValidPermissionStatus(status) {
		respondError(w, http.StatusBadRequest, "status must be granted or denied")
		return
	}

	if err := h.permissions.Set(r.Context(), patientID, status); err != nil {
		h.logger.Error("reminders: set permission failed", "patient_id", patientID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save permission")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}
