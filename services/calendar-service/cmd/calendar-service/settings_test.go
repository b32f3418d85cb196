package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	for _, k := range []string{"SOURCE", "PORT", "GRPC_PORT", "DATABASE_URL", "KAFKA_TOPICS", "CALENDAR_START_HOUR", "CLINIC_TIMEZONE", "RATE_LIMIT_FAIL_OPEN"} {
		t.Setenv(k, "")
	}
	s, err := loadSettings()
	require.NoError(t, err)
	require.Equal(t, "backend", s.Source)
	require.Equal(t, "8090", s.HTTPPort)
	require.Equal(t, 5*time.Second, s.BackendTimeout)
	require.Equal(t, []string{"booking.appointment.changed.v1", "clinic.schedule.changed.v1"}, s.KafkaTopics)
	require.Equal(t, 9, s.Grid.StartHour)
	require.Equal(t, 17, s.Grid.EndHour)
	require.Equal(t, 60, s.Grid.PixelsPerHour)
	require.Equal(t, time.UTC, s.Location)
	require.True(t, s.RateFailOpen)
}

func TestLoadSettingsRateLimitFailClosed(t *testing.T) {
	t.Setenv("SOURCE", "")
	t.Setenv("RATE_LIMIT_FAIL_OPEN", "false")
	s, err := loadSettings()
	require.NoError(t, err)
	require.False(t, s.RateFailOpen)
}

func TestLoadSettingsPostgresNeedsDatabase(t *testing.T) {
	t.Setenv("SOURCE", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := loadSettings()
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://clinic@localhost/clinic")
	s, err := loadSettings()
	require.NoError(t, err)
	require.Equal(t, "postgres://clinic@localhost/clinic", s.DatabaseURL)
}

func TestLoadSettingsRejectsBadValues(t *testing.T) {
	t.Setenv("SOURCE", "csv")
	_, err := loadSettings()
	require.Error(t, err)

	t.Setenv("SOURCE", "")
	t.Setenv("CALENDAR_START_HOUR", "18")
	_, err = loadSettings()
	require.Error(t, err)

	t.Setenv("CALENDAR_START_HOUR", "")
	t.Setenv("CLINIC_TIMEZONE", "Mars/Olympus")
	_, err = loadSettings()
	require.Error(t, err)
}
