package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RUSHGATE_CONFIG is set
//  3. env (prefix RUSHGATE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("RUSHGATE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: RUSHGATE_ADDR, RUSHGATE_REDIS_ADDR, ...
	// Map env keys like RUSHGATE_REDIS_ADDR -> redis_addr (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("RUSHGATE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "rushgate_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RedisAddr == "":
		return fmt.Errorf("%w: redis_addr must not be empty", ErrInvalidConfig)
	case c.CountdownHorizon <= 0:
		return fmt.Errorf("%w: countdown_horizon must be positive", ErrInvalidConfig)
	case c.ProgressHorizon <= 0:
		return fmt.Errorf("%w: progress_horizon must be positive", ErrInvalidConfig)
	case c.ReconcileMargin < 0:
		return fmt.Errorf("%w: reconcile_margin must not be negative", ErrInvalidConfig)
	case c.MaterializeWindow <= 0:
		return fmt.Errorf("%w: materialize_window must be positive", ErrInvalidConfig)
	case c.AnswerAlphabet == "":
		return fmt.Errorf("%w: answer_alphabet must not be empty", ErrInvalidConfig)
	case c.AnswerLength <= 0:
		return fmt.Errorf("%w: answer_length must be positive", ErrInvalidConfig)
	}
	return nil
}
