package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robertarktes/tennis-court-reservations/internal/domain"
)

type Config struct {
	PostgresDSN  string
	MongoURI     string
	RedisAddr    string
	RabbitURL    string
	JWTSecret    string
	HTTPAddr     string
	OTLPEndpoint string

	// Booking window limits; the grace window is deliberately configurable.
	GraceWindow time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		MongoURI:     os.Getenv("MONGO_URI"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RabbitURL:    os.Getenv("RABBIT_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		HTTPAddr:     os.Getenv("HTTP_ADDR"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		GraceWindow:  duration(os.Getenv("BOOKING_GRACE_WINDOW"), domain.DefaultGraceWindow),
		MinDuration:  duration(os.Getenv("BOOKING_MIN_DURATION"), domain.DefaultMinDuration),
		MaxDuration:  duration(os.Getenv("BOOKING_MAX_DURATION"), domain.DefaultMaxDuration),
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	return cfg, nil
}

// BookingRules builds the domain interval rules from the configured limits.
func (c *Config) BookingRules() domain.BookingRules {
	return domain.BookingRules{
		GraceWindow: c.GraceWindow,
		MinDuration: c.MinDuration,
		MaxDuration: c.MaxDuration,
	}
}

func duration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
