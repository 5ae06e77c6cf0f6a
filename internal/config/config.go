package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// ClinicTimezone is the IANA timezone prescriptions and appointments are
	// entered in, e.g. "America/Guayaquil". Dose times are wall-clock local.
	ClinicTimezone string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	PatientsTable      string
	MedicationsTable   string
	PrescriptionsTable string
	AppointmentsTable  string
	IntakesTable       string
	VitalsTable        string

	PushQueueURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	SESFromEmail      string
	SESFromName       string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	ReportsBucket string

	PatientJWTSecret string
	AdminAPIToken    string

	PlanInterval       time.Duration
	StreamPollInterval time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ClinicTimezone: getEnv("CLINIC_TIMEZONE", "UTC"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		PatientsTable:      getEnv("PATIENTS_TABLE", "patients"),
		MedicationsTable:   getEnv("MEDICATIONS_TABLE", "medications"),
		PrescriptionsTable: getEnv("PRESCRIPTIONS_TABLE", "prescriptions"),
		AppointmentsTable:  getEnv("APPOINTMENTS_TABLE", "appointments"),
		IntakesTable:       getEnv("INTAKES_TABLE", "intake_confirmations"),
		VitalsTable:        getEnv("VITALS_TABLE", "vital_signs"),

		PushQueueURL: getEnv("PUSH_QUEUE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "CareLoop Reminders"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "CareLoop Reminders"),

		ReportsBucket: getEnv("REPORTS_BUCKET", ""),

		PatientJWTSecret: getEnv("PATIENT_JWT_SECRET", ""),
		AdminAPIToken:    getEnv("ADMIN_API_TOKEN", ""),

		PlanInterval:       getEnvAsDuration("PLAN_INTERVAL", 5*time.Minute),
		StreamPollInterval: getEnvAsDuration("STREAM_POLL_INTERVAL", 5*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
