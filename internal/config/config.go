// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RedisAddr, RedisPassword and RedisDB configure the coordination store.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// DBPath locates the sqlite database file holding durable event state.
	DBPath string `koanf:"db_path"`

	// CountdownHorizon is how long before start time the status flips to countdown.
	CountdownHorizon time.Duration `koanf:"countdown_horizon"`

	// ProgressHorizon is how long after start time an event accepts participation.
	ProgressHorizon time.Duration `koanf:"progress_horizon"`

	// ReconcileMargin is the safety margin past the progress horizon before
	// winners are migrated to durable storage.
	ReconcileMargin time.Duration `koanf:"reconcile_margin"`

	// MaterializeWindow is how far ahead upcoming events are loaded into the
	// coordination store.
	MaterializeWindow time.Duration `koanf:"materialize_window"`

	// MaterializeInterval and ReconcileInterval pace the background jobs.
	// Both jobs are idempotent, so short intervals are safe.
	MaterializeInterval time.Duration `koanf:"materialize_interval"`
	ReconcileInterval   time.Duration `koanf:"reconcile_interval"`

	// AnswerAlphabet and AnswerLength shape the generated trivia answer token.
	AnswerAlphabet string `koanf:"answer_alphabet"`
	AnswerLength   int    `koanf:"answer_length"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		RedisAddr:           "localhost:6379",
		RedisDB:             0,
		DBPath:              "rushgate.db",
		CountdownHorizon:    3 * time.Hour,
		ProgressHorizon:     7 * time.Hour,
		ReconcileMargin:     10 * time.Minute,
		MaterializeWindow:   24 * time.Hour,
		MaterializeInterval: time.Hour,
		ReconcileInterval:   time.Hour,
		AnswerAlphabet:      "1234",
		AnswerLength:        1,
	}
	return c
}
