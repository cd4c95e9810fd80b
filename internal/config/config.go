// Package config defines service configuration structures and loading
// hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load() layers defaults, an optional YAML file, and EQL_* env vars.
// - External errors are wrapped via this package's sentinel kinds.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory ingest queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingest workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// BattleGapThreshold is the largest point gap announced as a close
	// battle.
	BattleGapThreshold float64 `koanf:"battle_gap_threshold"`

	// TrailingWindowHours sizes the rolling window behind the catch-up
	// percentile.
	TrailingWindowHours int `koanf:"trailing_window_hours"`

	// SnapshotRefreshMS is how long a computed scoreboard snapshot is
	// served before the next read triggers a rebuild.
	SnapshotRefreshMS int `koanf:"snapshot_refresh_ms"`

	// DBPath selects the SQLite observation store. Empty keeps
	// observations in memory only.
	DBPath string `koanf:"db_path"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           100_000,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          500_000,
		MaxLeaderboardLimit: 100,
		BattleGapThreshold:  1.5,
		TrailingWindowHours: 24,
		SnapshotRefreshMS:   2000,
		DBPath:              "",
	}
}
