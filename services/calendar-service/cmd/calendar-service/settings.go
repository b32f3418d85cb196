package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/dentalcare/libs/config"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/consumer"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/layout"
)

const (
	sourceBackend  = "backend"
	sourcePostgres = "postgres"
)

type settings struct {
	Service        string
	HTTPPort       string
	GRPCPort       string
	Source         string
	BackendURL     string
	BackendTimeout time.Duration
	DatabaseURL    string
	RedisURL       string
	CacheTTL       time.Duration
	KafkaBrokers   string
	KafkaGroupID   string
	KafkaTopics    []string
	JWTSecret      string
	CORSOrigins    []string
	RatePerMinute  int
	RateFailOpen   bool
	Grid           layout.Grid
	Location       *time.Location
}

func loadSettings() (settings, error) {
	var (
		s   settings
		err error
	)
	s.Service = config.String("SERVICE_NAME", "calendar-service")
	if s.HTTPPort, err = config.Port("PORT", "8090"); err != nil {
		return s, err
	}
	if s.GRPCPort, err = config.Port("GRPC_PORT", "9090"); err != nil {
		return s, err
	}

	s.Source = strings.ToLower(config.String("SOURCE", sourceBackend))
	switch s.Source {
	case sourceBackend:
		s.BackendURL = config.String("BACKEND_URL", "http://127.0.0.1:8000")
	case sourcePostgres:
		if s.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
			return s, err
		}
	default:
		return s, fmt.Errorf("SOURCE must be %q or %q (got %q)", sourceBackend, sourcePostgres, s.Source)
	}
	if s.DatabaseURL == "" {
		s.DatabaseURL = config.String("DATABASE_URL", "")
	}
	if s.BackendTimeout, err = config.Duration("BACKEND_TIMEOUT", 5*time.Second); err != nil {
		return s, err
	}

	s.RedisURL = config.String("REDIS_URL", "")
	if s.CacheTTL, err = config.Duration("CACHE_TTL", 60*time.Second); err != nil {
		return s, err
	}

	s.KafkaBrokers = config.String("KAFKA_BROKERS", "")
	s.KafkaGroupID = config.String("KAFKA_GROUP_ID", s.Service)
	s.KafkaTopics = config.List("KAFKA_TOPICS", consumer.TopicAppointmentChanged+","+consumer.TopicScheduleChanged)

	s.JWTSecret = config.String("JWT_SECRET", "")
	s.CORSOrigins = config.List("CORS_ORIGINS", "")
	if s.RatePerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return s, err
	}
	s.RateFailOpen = config.Bool("RATE_LIMIT_FAIL_OPEN", true)

	s.Grid = layout.DefaultGrid()
	if s.Grid.StartHour, err = config.Int("CALENDAR_START_HOUR", layout.DefaultStartHour); err != nil {
		return s, err
	}
	if s.Grid.EndHour, err = config.Int("CALENDAR_END_HOUR", layout.DefaultEndHour); err != nil {
		return s, err
	}
	if s.Grid.PixelsPerHour, err = config.Int("CALENDAR_PIXELS_PER_HOUR", layout.DefaultPixelsPerHour); err != nil {
		return s, err
	}
	if err := s.Grid.Validate(); err != nil {
		return s, err
	}

	tz := config.String("CLINIC_TIMEZONE", "UTC")
	if s.Location, err = time.LoadLocation(tz); err != nil {
		return s, fmt.Errorf("CLINIC_TIMEZONE: %w", err)
	}
	return s, nil
}
