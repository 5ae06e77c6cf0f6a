package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careloop/medreminder/internal/api/middleware"
	"github.com/careloop/medreminder/internal/reports"
	"github.com/careloop/medreminder/pkg/logging"
)

// ReportsHandler serves intake and vital-sign history exports.
type ReportsHandler struct {
	intakes  IntakeReader
	vitals   VitalSignReader
	exporter *reports.Exporter
	loc      *time.Location
	logger   *logging.Logger
}

// NewReportsHandler creates the handler.
func NewReportsHandler(intakes IntakeReader, vitals VitalSignReader, exporter *reports.Exporter, loc *time.Location, logger *logging.Logger) *ReportsHandler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ReportsHandler{intakes: intakes, vitals: vitals, exporter: exporter, loc: loc, logger: logger}
}

// dateRange bounds a report query. Zero fields mean unbounded.
type dateRange struct {
	from time.Time
	to   time.Time
}

// parseDateRange reads optional from/to query params as "2006-01-02" dates
// in the clinic timezone. The to bound is inclusive through end of day.
func parseDateRange(q url.Values, loc *time.Location) (dateRange, error) {
	var dr dateRange
	if v := q.Get("from"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			return dr, fmt.Errorf("invalid from date %q", v)
		}
		dr.from = d
	}
	if v := q.Get("to"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			return dr, fmt.Errorf("invalid to date %q", v)
		}
		dr.to = d.AddDate(0, 0, 1)
	}
	return dr, nil
}

// contains reports whether the RFC3339 timestamp falls inside the range.
// With no bounds set everything passes; with bounds set, rows whose
// timestamp does not parse are dropped.
func (dr dateRange) contains(ts string) bool {
	if dr.from.IsZero() && dr.to.IsZero() {
		return true
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return false
	}
	if !dr.from.IsZero() && t.Before(dr.from) {
		return false
	}
	if !dr.to.IsZero() && !t.Before(dr.to) {
		return false
	}
	return true
}

// IntakeHistory handles GET /patients/{patientID}/reports/intakes.
// Responds with CSV, optionally bounded by ?from=/?to= dates; ?archive=1
// also stores a copy in the reports bucket.
func (h *ReportsHandler) IntakeHistory(w http.ResponseWriter, r *http.Request) {
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

	confirmations, err := h.intakes.ListByPatient(r.Context(), patientID)
	if err != nil {
		h.logger.Error("reports: list confirmations failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	filtered := confirmations[:0:0]
	for _, c := range confirmations {
		if dr.contains(c.TakenAt) {
			filtered = append(filtered, c)
		}
	}

	csvData, err := reports.IntakeHistoryCSV(filtered)
	if err != nil {
		h.logger.Error("reports: render csv failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	h.archive(w, r, "intakes", patientID, csvData)
	writeCSV(w, "intake-history-"+patientID+".csv", csvData)
}

// VitalSigns handles GET /patients/{patientID}/reports/vitals, the readings
// half of the patient history report. Same query params as IntakeHistory.
func (h *ReportsHandler) VitalSigns(w http.ResponseWriter, r *http.Request) {
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
		h.logger.Error("reports: list vital signs failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	filtered := vitals[:0:0]
	for _, v := range vitals {
		if dr.contains(v.RecordedAt) {
			filtered = append(filtered, v)
		}
	}

	csvData, err := reports.VitalSignsCSV(filtered)
	if err != nil {
		h.logger.Error("reports: render csv failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	h.archive(w, r, "vitals", patientID, csvData)
	writeCSV(w, "vital-signs-"+patientID+".csv", csvData)
}

// archive stores a copy when ?archive=1 and a bucket is configured.
// Failures are logged, the report still goes out.
func (h *ReportsHandler) archive(w http.ResponseWriter, r *http.Request, kind, patientID string, csvData []byte) {
	if r.URL.Query().Get("archive") != "1" || !h.exporter.Enabled() {
		return
	}
	if key, err := h.exporter.Archive(r.Context(), kind, patientID, csvData); err != nil {
		h.logger.Warn("reports: archive failed", "kind", kind, "patient_id", patientID, "error", err)
	} else {
		w.Header().Set("X-Archive-Key", key)
	}
}

func writeCSV(w http.ResponseWriter, filename string, csvData []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(csvData)
}
