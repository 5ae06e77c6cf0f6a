package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/medreminder/internal/records"
)

func TestListOwnAppointments(t *testing.T) {
	store := &fakeAppointmentStore{byPatient: map[string][]records.Appointment{
		"pat-1": {
			{ID: "appt-1", PatientID: "pat-1", DoctorID: "doc-1", Date: "2024-02-01", Time: "14:00"},
		},
		"pat-2": {
			{ID: "appt-2", PatientID: "pat-2", DoctorID: "doc-1", Date: "2024-02-02", Time: "10:00"},
		},
	}}
	h := NewAppointmentsHandler(store, nil)

	router := mountPatientRoute(http.MethodGet, "/appointments", h.List)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/pat-1/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+patientToken(t, "pat-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Appointments []records.Appointment `json:"appointments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, "appt-1", resp.Appointments[0].ID)
}

func TestListAppointmentsForbiddenForOtherPatients(t *testing.T) {
	h := NewAppointmentsHandler(&fakeAppointmentStore{}, nil)

	router := mountPatientRoute(http.MethodGet, "/appointments", h.List)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/pat-1/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+patientToken(t, "pat-2"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestAppointment(t *testing.T) {
	store := &fakeAppointmentStore{}
	h := NewAppointmentsHandler(store, nil)

	router := mountPatientRoute(http.MethodPost, "/appointments", h.Request)
	body := `{"doctorId":"doc-1","specialty":"Cardiology","date":"2024-02-01","time":"14:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/pat-1/appointments", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+patientToken(t, "pat-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, store.added, 1)

	created := store.added[0]
	assert.Equal(t, "pat-1", created.PatientID, "patient comes from the route, not the body")
	assert.Equal(t, "doc-1", created.DoctorID)
	assert.Equal(t, "Cardiology", created.Specialty)
	assert.Equal(t, "2024-02-01", created.Date)
	assert.Equal(t, "14:00", created.Time)
}

func TestRequestAppointmentValidation(t *testing.T) {
	store := &fakeAppointmentStore{}
	h := NewAppointmentsHandler(store, nil)
	router := mountPatientRoute(http.MethodPost, "/appointments", h.Request)

	tests := []struct {
		name string
		body string
	}{
		{"missing doctor", `{"date":"2024-02-01","time":"14:00"}`},
		{"missing date", `{"doctorId":"doc-1","time":"14:00"}`},
		{"missing time", `{"doctorId":"doc-1","date":"2024-02-01"}`},
		{"bad date", `{"doctorId":"doc-1","date":"Feb 1st","time":"14:00"}`},
		{"bad time", `{"doctorId":"doc-1","date":"2024-02-01","time":"2pm"}`},
		{"malformed json", `{`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/pat-1/appointments", strings.NewReader(tc.body))
			req.Header.Set("Authorization", "Bearer "+patientToken(t, "pat-1"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
	assert.Empty(t, store.added, "rejected requests must not be stored")
}
