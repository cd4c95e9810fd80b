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
//  2. file (YAML) if EQL_CONFIG is set
//  3. env (prefix EQL_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("EQL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: EQL_ADDR, EQL_QUEUE_SIZE, ...
	// Underscores are preserved so keys match the koanf struct tags.
	envProvider := env.Provider("EQL_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "eql_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
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
	case c.BattleGapThreshold <= 0:
		return fmt.Errorf("%w: battle_gap_threshold must be positive", ErrInvalidConfig)
	case c.TrailingWindowHours <= 0:
		return fmt.Errorf("%w: trailing_window_hours must be positive", ErrInvalidConfig)
	case c.SnapshotRefreshMS < 0:
		return fmt.Errorf("%w: snapshot_refresh_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}
