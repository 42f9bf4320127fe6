// Package config loads and validates the venue's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the root configuration document.
type Config struct {
	Venue    VenueConfig    `json:"venue" yaml:"venue"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Matching MatchingConfig `json:"matching" yaml:"matching"`
}

// VenueConfig carries the venue-wide settings spec.md §6 calls out: the
// IANA timezone used for Day/GTD evaluation, the snapshot file, and the
// instrument seed file the registry (§4.2) loads at startup.
type VenueConfig struct {
	VenueId         string `json:"venue_id" yaml:"venue_id"`
	Timezone        string `json:"timezone" yaml:"timezone"`
	SnapshotPath    string `json:"snapshot_path" yaml:"snapshot_path"`
	InstrumentsFile string `json:"instruments_file" yaml:"instruments_file"`

	// ChannelQueueSize bounds each middleware channel's async delivery
	// queue (§5).
	ChannelQueueSize int `json:"channel_queue_size" yaml:"channel_queue_size"`

	// RuntimeTick is the runtime loop's tick period (§4.7 fixes this at
	// 1 Hz; configurable here so a different period can be used).
	RuntimeTick time.Duration `json:"runtime_tick" yaml:"runtime_tick"`
}

// LoggingConfig controls the zap logger built at startup.
type LoggingConfig struct {
	Level            string `json:"level" yaml:"level"`
	Format           string `json:"format" yaml:"format"`
	Output           string `json:"output" yaml:"output"`
	EnableCaller     bool   `json:"enable_caller" yaml:"enable_caller"`
	EnableStacktrace bool   `json:"enable_stacktrace" yaml:"enable_stacktrace"`
}

// MatchingConfig controls engine-wide defaults not carried per-instrument.
type MatchingConfig struct {
	// MaxDepthLevels bounds market-data snapshots (§4.3); 0 means all levels.
	MaxDepthLevels int `json:"max_depth_levels" yaml:"max_depth_levels"`

	// AsyncWorkerPoolSize bounds the ants pool backing async reply delivery (§5).
	AsyncWorkerPoolSize int `json:"async_worker_pool_size" yaml:"async_worker_pool_size"`
}

// Configuration errors.
var (
	ErrMissingVenueId         = errors.New("config: missing venue_id")
	ErrMissingTimezone        = errors.New("config: missing venue timezone")
	ErrMissingInstrumentsFile = errors.New("config: missing instruments_file")
	ErrInvalidChannelQueue    = errors.New("config: channel_queue_size must be positive")
	ErrInvalidMatchingConfig  = errors.New("config: max_depth_levels must be >= 0")
)

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Venue: VenueConfig{
			VenueId:          "SIM",
			Timezone:         "UTC",
			SnapshotPath:     "./venue-snapshot.json",
			InstrumentsFile:  "./instruments.yaml",
			ChannelQueueSize: 1024,
			RuntimeTick:      1 * time.Second,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "json",
			Output:       "stdout",
			EnableCaller: true,
		},
		Matching: MatchingConfig{
			MaxDepthLevels:      0,
			AsyncWorkerPoolSize: 64,
		},
	}
}

// LoadConfig reads and parses a YAML configuration file, filling absent
// fields from DefaultConfig, then validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency. It does not
// verify the timezone loads (the caller does that via time.LoadLocation at
// startup, per spec.md §6's "startup fails with a configuration error").
func (c *Config) Validate() error {
	if c.Venue.VenueId == "" {
		return ErrMissingVenueId
	}
	if c.Venue.Timezone == "" {
		return ErrMissingTimezone
	}
	if c.Venue.InstrumentsFile == "" {
		return ErrMissingInstrumentsFile
	}
	if c.Venue.ChannelQueueSize <= 0 {
		return ErrInvalidChannelQueue
	}
	if c.Matching.MaxDepthLevels < 0 {
		return ErrInvalidMatchingConfig
	}
	return nil
}

// Location loads the venue's configured IANA timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Venue.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: unknown timezone %q: %w", c.Venue.Timezone, err)
	}
	return loc, nil
}
