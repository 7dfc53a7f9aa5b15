// Package config loads service configuration from environment variables.
// Values are parsed once in main and threaded into constructors; nothing in
// the core reads ambient globals (in particular the assessment cycle year and
// the round caps travel through explicit structs).
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the top-level service configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Rounds   Rounds
	Deadline Deadline
	Log      Log
}

// Server captures the operational HTTP surface (health and metrics only; the
// assessment API transport lives outside this service).
type Server struct {
	Addr            string        `env:"SGLGB_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SGLGB_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Postgres holds database connection settings.
type Postgres struct {
	URL          string        `env:"SGLGB_POSTGRES_URL"`
	MaxOpenConns int           `env:"SGLGB_POSTGRES_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int           `env:"SGLGB_POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	ConnLifetime time.Duration `env:"SGLGB_POSTGRES_CONN_LIFETIME" envDefault:"30m"`
}

// Redis holds settings for the per-assessment lock backend. An empty URL
// disables Redis and falls back to in-process locking.
type Redis struct {
	URL          string        `env:"SGLGB_REDIS_URL"`
	PoolSize     int           `env:"SGLGB_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"SGLGB_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"SGLGB_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"SGLGB_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"SGLGB_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	LockTTL      time.Duration `env:"SGLGB_REDIS_LOCK_TTL" envDefault:"15s"`
}

// Kafka holds settings for the audit event relay. An empty broker list
// disables the relay; audit events are still persisted locally.
type Kafka struct {
	Brokers []string `env:"SGLGB_KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"SGLGB_KAFKA_AUDIT_TOPIC" envDefault:"sglgb.audit.events"`
}

// Rounds configures the correction-cycle caps enforced by the round limiter.
// Rework is fixed at one round by invariant and is not configurable.
type Rounds struct {
	MaxRecalibrations int `env:"SGLGB_MAX_RECALIBRATIONS" envDefault:"3"`
}

// Deadline configures the default per-cycle deadline window. The window is
// passed explicitly into every deadline computation.
type Deadline struct {
	CycleYear       int `env:"SGLGB_CYCLE_YEAR"`
	SubmissionDays  int `env:"SGLGB_SUBMISSION_DAYS" envDefault:"30"`
	ReworkDays      int `env:"SGLGB_REWORK_DAYS" envDefault:"7"`
	CalibrationDays int `env:"SGLGB_CALIBRATION_DAYS" envDefault:"5"`
	GraceDays       int `env:"SGLGB_GRACE_DAYS" envDefault:"3"`
}

// Log configures the root logger.
type Log struct {
	Format string `env:"SGLGB_LOG_FORMAT" envDefault:"json"`
	Level  string `env:"SGLGB_LOG_LEVEL" envDefault:"info"`
}

// Load parses the full configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured level string to a slog.Level.
func (l Log) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
