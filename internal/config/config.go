// Package config manages the uwbd daemon configuration using koanf/v2.
//
// Supports YAML files, environment variables, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete uwbd configuration.
type Config struct {
	API        APIConfig        `koanf:"api"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Log        LogConfig        `koanf:"log"`
	Policy     PolicyConfig     `koanf:"policy"`
	Dispatcher DispatcherConfig `koanf:"dispatcher"`
}

// APIConfig holds the admin HTTP API server configuration.
type APIConfig struct {
	// Addr is the HTTP listen address (e.g., ":8080").
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// PolicyConfig holds the Policy Engine's admission and behaviour tunables
// (session-manager spec §4.3-§4.5).
type PolicyConfig struct {
	// MaxFiraSessions bounds concurrently-open FiRa (and radar) sessions.
	MaxFiraSessions int `koanf:"max_fira_sessions"`
	// MaxCccSessions bounds concurrently-open CCC sessions.
	MaxCccSessions int `koanf:"max_ccc_sessions"`
	// BackgroundRangingEnabled allows third-party background sessions to
	// remain active instead of being stopped after the background-app grace
	// period.
	BackgroundRangingEnabled bool `koanf:"background_ranging_enabled"`
	// RangingErrorStreakTimerEnabled arms the error-streak alarm on
	// consecutive non-OK range-data notifications.
	RangingErrorStreakTimerEnabled bool `koanf:"ranging_error_streak_timer_enabled"`
	// CccAbsoluteInitiationTimeEnabled enables the CCC absolute
	// initiation-time computation at open/start time. FiRa sessions do not
	// consult it.
	CccAbsoluteInitiationTimeEnabled bool `koanf:"ccc_absolute_initiation_time_enabled"`
	// ErrorStreakDefaultMultiplier scales the ranging interval when no
	// blockStride has been configured for the error-streak alarm duration.
	ErrorStreakDefaultMultiplier uint32 `koanf:"error_streak_default_multiplier"`
	// RxQueueMaxDepth bounds the per-peer OwR-AoA inbound queue.
	RxQueueMaxDepth int `koanf:"rx_queue_max_depth"`
}

// DispatcherConfig holds the Command Dispatcher's per-operation timeout
// budget (session-manager spec §4.2).
type DispatcherConfig struct {
	OpenTimeout        time.Duration `koanf:"open_timeout"`
	StartTimeout       time.Duration `koanf:"start_timeout"`
	StopTimeout        time.Duration `koanf:"stop_timeout"`
	ReconfigureTimeout time.Duration `koanf:"reconfigure_timeout"`
	SendDataTimeout    time.Duration `koanf:"send_data_timeout"`
	MulticastTimeout   time.Duration `koanf:"multicast_timeout"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults, matching
// the session manager's own DefaultConfig (internal/uwb.DefaultConfig).
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Addr: ":8080",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Policy: PolicyConfig{
			MaxFiraSessions:                  5,
			MaxCccSessions:                   1,
			BackgroundRangingEnabled:         false,
			RangingErrorStreakTimerEnabled:   true,
			CccAbsoluteInitiationTimeEnabled: true,
			ErrorStreakDefaultMultiplier:     2,
			RxQueueMaxDepth:                  10,
		},
		Dispatcher: DispatcherConfig{
			OpenTimeout:        time.Second,
			StartTimeout:       time.Second,
			StopTimeout:        time.Second,
			ReconfigureTimeout: time.Second,
			SendDataTimeout:    time.Second,
			MulticastTimeout:   time.Second,
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for uwbd configuration.
// Variables are named UWBD_<section>_<key>, e.g., UWBD_API_ADDR.
const envPrefix = "UWBD_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (UWBD_ prefix), and merges on top of DefaultConfig().
// Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	UWBD_API_ADDR       -> api.addr
//	UWBD_METRICS_ADDR   -> metrics.addr
//	UWBD_METRICS_PATH   -> metrics.path
//	UWBD_LOG_LEVEL      -> log.level
//	UWBD_LOG_FORMAT     -> log.format
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms UWBD_API_ADDR -> api.addr.
// Strips the UWBD_ prefix, lowercases, and replaces _ with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"api.addr":                                   defaults.API.Addr,
		"metrics.addr":                                defaults.Metrics.Addr,
		"metrics.path":                                defaults.Metrics.Path,
		"log.level":                                   defaults.Log.Level,
		"log.format":                                   defaults.Log.Format,
		"policy.max_fira_sessions":                     defaults.Policy.MaxFiraSessions,
		"policy.max_ccc_sessions":                      defaults.Policy.MaxCccSessions,
		"policy.background_ranging_enabled":            defaults.Policy.BackgroundRangingEnabled,
		"policy.ranging_error_streak_timer_enabled":     defaults.Policy.RangingErrorStreakTimerEnabled,
		"policy.ccc_absolute_initiation_time_enabled":   defaults.Policy.CccAbsoluteInitiationTimeEnabled,
		"policy.error_streak_default_multiplier":        defaults.Policy.ErrorStreakDefaultMultiplier,
		"policy.rx_queue_max_depth":                     defaults.Policy.RxQueueMaxDepth,
		"dispatcher.open_timeout":                       defaults.Dispatcher.OpenTimeout.String(),
		"dispatcher.start_timeout":                      defaults.Dispatcher.StartTimeout.String(),
		"dispatcher.stop_timeout":                       defaults.Dispatcher.StopTimeout.String(),
		"dispatcher.reconfigure_timeout":                defaults.Dispatcher.ReconfigureTimeout.String(),
		"dispatcher.send_data_timeout":                  defaults.Dispatcher.SendDataTimeout.String(),
		"dispatcher.multicast_timeout":                  defaults.Dispatcher.MulticastTimeout.String(),
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyAPIAddr indicates the admin HTTP API listen address is empty.
	ErrEmptyAPIAddr = errors.New("api.addr must not be empty")

	// ErrInvalidMaxFiraSessions indicates the FiRa session bound is non-positive.
	ErrInvalidMaxFiraSessions = errors.New("policy.max_fira_sessions must be >= 1")

	// ErrInvalidMaxCccSessions indicates the CCC session bound is non-positive.
	ErrInvalidMaxCccSessions = errors.New("policy.max_ccc_sessions must be >= 1")

	// ErrInvalidRxQueueMaxDepth indicates the OwR-AoA rx queue depth is non-positive.
	ErrInvalidRxQueueMaxDepth = errors.New("policy.rx_queue_max_depth must be >= 1")

	// ErrInvalidDispatcherTimeout indicates one of the dispatcher's
	// operation timeouts is non-positive.
	ErrInvalidDispatcherTimeout = errors.New("dispatcher timeouts must all be > 0")
)

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.API.Addr == "" {
		return ErrEmptyAPIAddr
	}

	if cfg.Policy.MaxFiraSessions < 1 {
		return ErrInvalidMaxFiraSessions
	}

	if cfg.Policy.MaxCccSessions < 1 {
		return ErrInvalidMaxCccSessions
	}

	if cfg.Policy.RxQueueMaxDepth < 1 {
		return ErrInvalidRxQueueMaxDepth
	}

	d := cfg.Dispatcher
	if d.OpenTimeout <= 0 || d.StartTimeout <= 0 || d.StopTimeout <= 0 ||
		d.ReconfigureTimeout <= 0 || d.SendDataTimeout <= 0 || d.MulticastTimeout <= 0 {
		return ErrInvalidDispatcherTimeout
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
