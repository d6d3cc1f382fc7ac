// Package config loads and validates the aggregator configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

// Configuration validation errors.
var (
	ErrNoSources            = errors.New("at least one source is required")
	ErrNoEnabledSources     = errors.New("at least one source must be enabled")
	ErrSourceMissingID      = errors.New("source id is required")
	ErrSourceMissingURL     = errors.New("source url is required")
	ErrSourceMissingRink    = errors.New("source rink_id is required")
	ErrSourceUnknownType    = errors.New("source type must be one of: icalendar, rss, embedded-json, html-table")
	ErrNoRinks              = errors.New("at least one rink is required")
	ErrRinkMissingFacility  = errors.New("rink facility_id is required")
	ErrInvalidMaxAttempts   = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay  = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoff       = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout       = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidPollInterval  = errors.New("polling.interval_minutes must be at least 5")
	ErrInvalidWindowDays    = errors.New("source window_days must be non-negative")
	ErrInvalidLogLevel      = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrMissingDatabasePath  = errors.New("database.path is required")
	ErrMissingServerAddress = errors.New("server.addr is required")
)

// SourceTypes recognized by the parser selection. The parser variant is
// picked by this configuration tag, never by sniffing the payload.
var SourceTypes = map[string]bool{
	"icalendar":     true,
	"rss":           true,
	"embedded-json": true,
	"html-table":    true,
}

// Config is the complete aggregator configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Polling    PollingConfig    `yaml:"polling"`
	Retry      RetryPolicy      `yaml:"retry"`
	Logging    LoggingConfig    `yaml:"logging"`
	Facilities []FacilityConfig `yaml:"facilities"`
	Rinks      []RinkConfig     `yaml:"rinks"`
	Sources    []SourceConfig   `yaml:"sources"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds event store settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// PollingConfig controls the background poll loop.
type PollingConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

// RetryPolicy defines fetch retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// RetryDelay returns the backoff delay before the given attempt
// (1-based), capped at MaxDelayMs.
func (p RetryPolicy) RetryDelay(attempt int) time.Duration {
	delay := float64(p.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delay *= p.BackoffMultiplier
	}
	if p.MaxDelayMs > 0 && delay > float64(p.MaxDelayMs) {
		delay = float64(p.MaxDelayMs)
	}
	return time.Duration(delay) * time.Millisecond
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// FacilityConfig declares one venue.
type FacilityConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// RinkConfig declares one sheet of ice.
type RinkConfig struct {
	ID         string `yaml:"id"`
	FacilityID string `yaml:"facility_id"`
	Name       string `yaml:"name"`
	SourceURL  string `yaml:"source_url"`
}

// SourceConfig declares one schedule publisher.
type SourceConfig struct {
	ID      string `yaml:"id"`
	RinkID  string `yaml:"rink_id"`
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
	// WindowDays widens the forward retention window for sources whose
	// schedules legitimately run further out. Zero means the default.
	WindowDays int `yaml:"window_days"`
}

// Default returns the configuration defaults applied before unmarshal.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "rink-schedule.db"},
		Polling:  PollingConfig{IntervalMinutes: 60},
		Retry: RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    500,
			MaxDelayMs:        30000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        30,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return ErrMissingServerAddress
	}
	if c.Database.Path == "" {
		return ErrMissingDatabasePath
	}
	if c.Polling.IntervalMinutes < 5 {
		return ErrInvalidPollInterval
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}
	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoff
	}
	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if len(c.Rinks) == 0 {
		return ErrNoRinks
	}
	for i, r := range c.Rinks {
		if r.FacilityID == "" {
			return fmt.Errorf("%w: rink[%d]", ErrRinkMissingFacility, i)
		}
	}

	if len(c.Sources) == 0 {
		return ErrNoSources
	}
	enabled := 0
	rinkIDs := make(map[string]bool, len(c.Rinks))
	for _, r := range c.Rinks {
		rinkIDs[r.ID] = true
	}
	for i, s := range c.Sources {
		if s.ID == "" {
			return fmt.Errorf("%w: source[%d]", ErrSourceMissingID, i)
		}
		if s.URL == "" {
			return fmt.Errorf("%w: source[%d]", ErrSourceMissingURL, i)
		}
		if s.RinkID == "" || !rinkIDs[s.RinkID] {
			return fmt.Errorf("%w: source[%d]", ErrSourceMissingRink, i)
		}
		if !SourceTypes[s.Type] {
			return fmt.Errorf("%w: source[%d] has type %q", ErrSourceUnknownType, i, s.Type)
		}
		if s.WindowDays < 0 {
			return fmt.Errorf("%w: source[%d]", ErrInvalidWindowDays, i)
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return ErrNoEnabledSources
	}
	return nil
}

// EnabledSources returns the sources that should be polled.
func (c *Config) EnabledSources() []SourceConfig {
	out := make([]SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// FacilityModels converts the facility declarations to model values.
func (c *Config) FacilityModels() []model.Facility {
	out := make([]model.Facility, 0, len(c.Facilities))
	for _, f := range c.Facilities {
		out = append(out, model.Facility{ID: f.ID, DisplayName: f.Name})
	}
	return out
}

// RinkModels converts the rink declarations to model values.
func (c *Config) RinkModels() []model.Rink {
	out := make([]model.Rink, 0, len(c.Rinks))
	for _, r := range c.Rinks {
		out = append(out, model.Rink{
			ID:          r.ID,
			FacilityID:  r.FacilityID,
			DisplayName: r.Name,
			SourceURL:   r.SourceURL,
		})
	}
	return out
}
