package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "UTC", cfg.ClinicTimezone)
	assert.Equal(t, "prescriptions", cfg.PrescriptionsTable)
	assert.Equal(t, "intake_confirmations", cfg.IntakesTable)
	assert.Equal(t, "vital_signs", cfg.VitalsTable)
	assert.Equal(t, 5*time.Minute, cfg.PlanInterval)
	assert.Equal(t, 5*time.Second, cfg.StreamPollInterval)
	assert.False(t, cfg.RedisTLS)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CLINIC_TIMEZONE", "America/Guayaquil")
	t.Setenv("PRESCRIPTIONS_TABLE", "rx")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("PLAN_INTERVAL", "90s")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "America/Guayaquil", cfg.ClinicTimezone)
	assert.Equal(t, "rx", cfg.PrescriptionsTable)
	assert.True(t, cfg.RedisTLS)
	assert.Equal(t, 90*time.Second, cfg.PlanInterval)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("REDIS_TLS", "definitely")
	t.Setenv("PLAN_INTERVAL", "soon")

	cfg := Load()

	assert.False(t, cfg.RedisTLS)
	assert.Equal(t, 5*time.Minute, cfg.PlanInterval)
}
