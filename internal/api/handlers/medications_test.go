package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/medreminder/internal/records"
)

func getMedications(t *testing.T, h *MedicationsHandler, patientID, token string) *httptest.ResponseRecorder {
	t.Helper()
	router := mountPatientRoute(http.MethodGet, "/medications", h.List)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+patientID+"/medications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeMedications(t *testing.T, rec *httptest.ResponseRecorder) []ActiveMedication {
	t.Helper()
	var body struct {
		Medications []ActiveMedication `json:"medications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Medications
}

func TestListMedicationsFiltersAndSorts(t *testing.T) {
	now := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)
	prescriptions := &fakePrescriptionReader{byPatient: map[string][]records.Prescription{
		"pat-1": {
			{ID: "rx-evening", PatientID: "pat-1", MedicationID: "med-2",
				StartDate: "2024-01-10", DurationDays: "5", TimeOfDay: "20:00"},
			{ID: "rx-morning", PatientID: "pat-1", MedicationID: "med-1",
				StartDate: "2024-01-10", DurationDays: "3", TimeOfDay: "08:00"},
			// Course ended on 2024-01-05.
			{ID: "rx-expired", PatientID: "pat-1", MedicationID: "med-1",
				StartDate: "2024-01-01", DurationDays: "5", TimeOfDay: "08:00"},
			// Dashboard typo; skipped, not fatal.
			{ID: "rx-bad", PatientID: "pat-1", MedicationID: "med-1",
				StartDate: "2024-01-10", DurationDays: "week", TimeOfDay: "08:00"},
		},
	}}
	medications := &fakeMedicationReader{byID: map[string]*records.Medication{
		"med-1": {ID: "med-1", Name: "Amoxicillin", Instructions: "With food"},
		"med-2": {ID: "med-2", Name: "Ibuprofen"},
	}}
	intakes := &fakeIntakeStore{}

	h := NewMedicationsHandler(prescriptions, medications, intakes, time.UTC, nil).
		WithClock(func() time.Time { return now })

	rec := getMedications(t, h, "pat-1", patientToken(t, "pat-1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	items := decodeMedications(t, rec)
	require.Len(t, items, 2)
	// Sorted by time of day.
	assert.Equal(t, "rx-morning", items[0].PrescriptionID)
	assert.Equal(t, "Amoxicillin", items[0].Medication)
	assert.Equal(t, "With food", items[0].Instructions)
	assert.Equal(t, "rx-evening", items[1].PrescriptionID)
	assert.Equal(t, "Take as directed", items[1].Instructions)

	// 09:00 is past the 08:00 dose and nothing is logged today.
	assert.True(t, items[0].CanConfirm)
	// The 20:00 dose has not arrived yet.
	assert.False(t, items[1].CanConfirm)
}

func TestListMedicationsUnknownCatalogEntry(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	prescriptions := &fakePrescriptionReader{byPatient: map[string][]records.Prescription{
		"pat-1": {{ID: "rx-1", PatientID: "pat-1", MedicationID: "med-missing",
			StartDate: "2024-01-10", DurationDays: "3", TimeOfDay: "08:00"}},
	}}
	h := NewMedicationsHandler(prescriptions, &fakeMedicationReader{}, &fakeIntakeStore{}, time.UTC, nil).
		WithClock(func() time.Time { return now })

	rec := getMedications(t, h, "pat-1", patientToken(t, "pat-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeMedications(t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "Unknown medication", items[0].Medication)
}

func TestListMedicationsCanConfirmReflectsTodayIntake(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	prescriptions := &fakePrescriptionReader{byPatient: map[string][]records.Prescription{
		"pat-1": {{ID: "rx-1", PatientID: "pat-1", MedicationID: "med-1",
			StartDate: "2024-01-10", DurationDays: "3", TimeOfDay: "08:00"}},
	}}
	intakes := &fakeIntakeStore{byPatient: map[string][]records.IntakeConfirmation{
		"pat-1": {{PatientID: "pat-1", PrescriptionID: "rx-1", TakenAt: "2024-01-10T08:05:00Z"}},
	}}
	h := NewMedicationsHandler(prescriptions, &fakeMedicationReader{}, intakes, time.UTC, nil).
		WithClock(func() time.Time { return now })

	rec := getMedications(t, h, "pat-1", patientToken(t, "pat-1"))
	items := decodeMedications(t, rec)
	require.Len(t, items, 1)
	assert.False(t, items[0].CanConfirm, "already taken today")
}

func TestListMedicationsForbiddenForOtherPatient(t *testing.T) {
	h := NewMedicationsHandler(&fakePrescriptionReader{}, &fakeMedicationReader{}, &fakeIntakeStore{}, time.UTC, nil)
	rec := getMedications(t, h, "pat-1", patientToken(t, "pat-2"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
