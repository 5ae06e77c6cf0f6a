package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/careloop/medreminder/internal/api/handlers"
	apimiddleware "github.com/careloop/medreminder/internal/api/middleware"
	"github.com/careloop/medreminder/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	MedicationsHandler  *handlers.MedicationsHandler
	IntakesHandler      *handlers.IntakesHandler
	RemindersHandler    *handlers.RemindersHandler
	AppointmentsHandler *handlers.AppointmentsHandler
	VitalsHandler       *handlers.VitalsHandler
	ReportsHandler      *handlers.ReportsHandler
	StreamHandler       *handlers.StreamHandler
	ClinicianHandler    *handlers.ClinicianHandler

	MetricsHandler http.Handler

	// PatientJWTSecret signs the patient app tokens.
	PatientJWTSecret string
	// AdminToken gates the clinician dashboard routes.
	AdminToken string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(apimiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Patient app routes, scoped to the authenticated subject.
	r.Route("/api/v1/patients/{patientID}", func(patient chi.Router) {
		patient.Use(apimiddleware.PatientJWT(cfg.PatientJWTSecret))

		patient.Get("/medications", cfg.MedicationsHandler.List)
		patient.Post("/intakes", cfg.IntakesHandler.Confirm)
		patient.Get("/intakes", cfg.IntakesHandler.History)
		patient.Get("/appointments", cfg.AppointmentsHandler.List)
		patient.Post("/appointments", cfg.AppointmentsHandler.Request)
		patient.Post("/vitals", cfg.VitalsHandler.Log)
		patient.Get("/vitals", cfg.VitalsHandler.History)
		patient.Post("/reminders/plan", cfg.RemindersHandler.Plan)
		patient.Put("/notifications/permission", cfg.RemindersHandler.Permission)
		patient.Get("/reports/intakes", cfg.ReportsHandler.IntakeHistory)
		patient.Get("/reports/vitals", cfg.ReportsHandler.VitalSigns)
		patient.Get("/stream", cfg.StreamHandler.Serve)
	})

	// Clinician dashboard routes.
	r.Route("/api/v1/admin", func(admin chi.Router) {
		admin.Use(requireAdminToken(cfg.AdminToken))

		admin.Post("/patients", cfg.ClinicianHandler.CreatePatient)
		admin.Get("/patients", cfg.ClinicianHandler.ListPatients)
		admin.Post("/medications", cfg.ClinicianHandler.CreateMedication)
		admin.Get("/medications", cfg.ClinicianHandler.ListMedications)
		admin.Post("/prescriptions", cfg.ClinicianHandler.CreatePrescription)
		admin.Get("/patients/{patientID}/prescriptions", cfg.ClinicianHandler.ListPrescriptions)
		admin.Post("/appointments", cfg.ClinicianHandler.CreateAppointment)
		admin.Get("/patients/{patientID}/appointments", cfg.ClinicianHandler.ListAppointments)
	})

	return r
}

// requireAdminToken checks the X-Admin-Token header against the configured
// token. An empty configured token disables the admin surface entirely.
func requireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || r.Header.Get("X-Admin-Token") != token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
