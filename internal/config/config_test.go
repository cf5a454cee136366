package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/uwbd/uwbd/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if cfg.API.Addr != ":8080" {
		t.Errorf("API.Addr = %q, want %q", cfg.API.Addr, ":8080")
	}

	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}

	if cfg.Policy.MaxFiraSessions != 5 {
		t.Errorf("Policy.MaxFiraSessions = %d, want 5", cfg.Policy.MaxFiraSessions)
	}

	if cfg.Policy.MaxCccSessions != 1 {
		t.Errorf("Policy.MaxCccSessions = %d, want 1", cfg.Policy.MaxCccSessions)
	}

	if cfg.Dispatcher.OpenTimeout != time.Second {
		t.Errorf("Dispatcher.OpenTimeout = %v, want %v", cfg.Dispatcher.OpenTimeout, time.Second)
	}

	if err := config.Validate(cfg); err != nil {
		t.Errorf("DefaultConfig() failed validation: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
api:
  addr: ":9999"
metrics:
  addr: ":9200"
  path: "/custom-metrics"
log:
  level: "debug"
  format: "text"
policy:
  max_fira_sessions: 8
  max_ccc_sessions: 2
  background_ranging_enabled: true
dispatcher:
  open_timeout: "2s"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.API.Addr != ":9999" {
		t.Errorf("API.Addr = %q, want %q", cfg.API.Addr, ":9999")
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}

	if cfg.Policy.MaxFiraSessions != 8 {
		t.Errorf("Policy.MaxFiraSessions = %d, want 8", cfg.Policy.MaxFiraSessions)
	}

	if !cfg.Policy.BackgroundRangingEnabled {
		t.Error("Policy.BackgroundRangingEnabled = false, want true")
	}

	if cfg.Dispatcher.OpenTimeout != 2*time.Second {
		t.Errorf("Dispatcher.OpenTimeout = %v, want %v", cfg.Dispatcher.OpenTimeout, 2*time.Second)
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	t.Parallel()

	yamlContent := `
api:
  addr: ":55555"
log:
  level: "warn"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.API.Addr != ":55555" {
		t.Errorf("API.Addr = %q, want %q", cfg.API.Addr, ":55555")
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}

	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want default %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Policy.MaxCccSessions != 1 {
		t.Errorf("Policy.MaxCccSessions = %d, want default 1", cfg.Policy.MaxCccSessions)
	}

	if cfg.Dispatcher.StopTimeout != time.Second {
		t.Errorf("Dispatcher.StopTimeout = %v, want default %v", cfg.Dispatcher.StopTimeout, time.Second)
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "empty api addr",
			modify: func(cfg *config.Config) {
				cfg.API.Addr = ""
			},
			wantErr: config.ErrEmptyAPIAddr,
		},
		{
			name: "zero max fira sessions",
			modify: func(cfg *config.Config) {
				cfg.Policy.MaxFiraSessions = 0
			},
			wantErr: config.ErrInvalidMaxFiraSessions,
		},
		{
			name: "zero max ccc sessions",
			modify: func(cfg *config.Config) {
				cfg.Policy.MaxCccSessions = 0
			},
			wantErr: config.ErrInvalidMaxCccSessions,
		},
		{
			name: "zero rx queue max depth",
			modify: func(cfg *config.Config) {
				cfg.Policy.RxQueueMaxDepth = 0
			},
			wantErr: config.ErrInvalidRxQueueMaxDepth,
		},
		{
			name: "zero open timeout",
			modify: func(cfg *config.Config) {
				cfg.Dispatcher.OpenTimeout = 0
			},
			wantErr: config.ErrInvalidDispatcherTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := config.ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/path/config.yml")
	if err == nil {
		t.Fatal("Load() returned nil error for nonexistent file")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	// Environment variable tests cannot be parallel because they modify
	// process-wide state (os.Setenv).

	yamlContent := `
api:
  addr: ":8080"
log:
  level: "info"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("UWBD_API_ADDR", ":6000")
	t.Setenv("UWBD_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.API.Addr != ":6000" {
		t.Errorf("API.Addr = %q, want %q (from env)", cfg.API.Addr, ":6000")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (from env)", cfg.Log.Level, "debug")
	}
}

func TestLoadEnvOverridesMetrics(t *testing.T) {
	yamlContent := `
api:
  addr: ":8080"
metrics:
  addr: ":9100"
  path: "/metrics"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("UWBD_METRICS_ADDR", ":9200")
	t.Setenv("UWBD_METRICS_PATH", "/custom")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q (from env)", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Metrics.Path != "/custom" {
		t.Errorf("Metrics.Path = %q, want %q (from env)", cfg.Metrics.Path, "/custom")
	}
}

// writeTemp creates a temporary YAML file and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "uwbd.yml")

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	return path
}
