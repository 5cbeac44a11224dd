// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver selects where family state lives: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// EventQueueSize bounds the in-memory comparison queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingest workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the event id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ScoreCacheTTLMS and ScoreCacheSize configure the balance score cache.
	ScoreCacheTTLMS int `koanf:"score_cache_ttl_ms"`
	ScoreCacheSize  int `koanf:"score_cache_size"`

	// SignalTimeoutMS bounds every call to a signal service.
	SignalTimeoutMS int `koanf:"signal_timeout_ms"`

	// Signal service base URLs. Empty leaves the signal unconnected.
	CognitiveLoadURL string `koanf:"cognitive_load_url"`
	HarmonyURL       string `koanf:"harmony_url"`
	HabitsURL        string `koanf:"habits_url"`

	// CompetitorALabel and CompetitorBLabel name the two partners.
	CompetitorALabel string `koanf:"competitor_a_label"`
	CompetitorBLabel string `koanf:"competitor_b_label"`

	// HistoryLimit is the default number of weekly scores returned.
	HistoryLimit int `koanf:"history_limit"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		StoreDriver:      StoreMemory,
		SQLitePath:       "balance.db",
		EventQueueSize:   10_000,
		WorkerCount:      runtime.NumCPU(),
		DedupeSize:       50_000,
		ScoreCacheTTLMS:  300_000,
		ScoreCacheSize:   1024,
		SignalTimeoutMS:  2000,
		CompetitorALabel: "Mama",
		CompetitorBLabel: "Papa",
		HistoryLimit:     12,
	}
}

// ScoreCacheTTL returns the score cache TTL as a duration.
func (c *Config) ScoreCacheTTL() time.Duration {
	return time.Duration(c.ScoreCacheTTLMS) * time.Millisecond
}

// SignalTimeout returns the signal timeout as a duration.
func (c *Config) SignalTimeout() time.Duration {
	return time.Duration(c.SignalTimeoutMS) * time.Millisecond
}

// Validate checks the configuration. Zero sizes and timeouts select the
// service defaults; negative ones are rejected.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json", "":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: store_driver must be memory or sqlite, got %q", ErrInvalidConfig, c.StoreDriver)
	}
	for name, v := range map[string]int{
		"queue_size":         c.EventQueueSize,
		"worker_count":       c.WorkerCount,
		"dedupe_size":        c.DedupeSize,
		"score_cache_ttl_ms": c.ScoreCacheTTLMS,
		"score_cache_size":   c.ScoreCacheSize,
		"signal_timeout_ms":  c.SignalTimeoutMS,
		"history_limit":      c.HistoryLimit,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
		}
	}
	a, b := strings.TrimSpace(c.CompetitorALabel), strings.TrimSpace(c.CompetitorBLabel)
	if a == "" || b == "" || strings.EqualFold(a, b) {
		return fmt.Errorf("%w: competitor labels must be non-empty and distinct", ErrInvalidConfig)
	}
	return nil
}
