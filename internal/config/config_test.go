package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/tmai-client/pkg/masa"
	"github.com/Sternrassler/tmai-client/pkg/tokenmetrics"
	"github.com/Sternrassler/tmai-client/pkg/tracing"
)

var allVars = []string{
	EnvTokenMetricsAPIKey, EnvTokenMetricsBaseURL, EnvMasaAPIKey, EnvMasaBaseURL,
	EnvRedisURL, EnvPort, EnvUserAgent, EnvRateLimit, EnvMaxRetries, EnvMaxDays,
	EnvLogLevel, EnvLogPretty, EnvTracingEnabled, EnvOTLPEndpoint,
}

// clearEnv blanks every variable; viper treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TokenMetrics.BaseURL != tokenmetrics.DefaultBaseURL {
		t.Errorf("TokenMetrics.BaseURL = %q", cfg.TokenMetrics.BaseURL)
	}
	if cfg.Masa.BaseURL != masa.DefaultBaseURL {
		t.Errorf("Masa.BaseURL = %q", cfg.Masa.BaseURL)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.RateLimit != 5 || cfg.MaxRetries != 0 || cfg.MaxDays != 29 {
		t.Errorf("RateLimit/MaxRetries/MaxDays = %v/%d/%d", cfg.RateLimit, cfg.MaxRetries, cfg.MaxDays)
	}
	if cfg.LogLevel != "info" || cfg.LogPretty {
		t.Errorf("LogLevel/LogPretty = %q/%v", cfg.LogLevel, cfg.LogPretty)
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %q, want empty", cfg.RedisURL)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.Tracing.Enabled || cfg.Tracing.Endpoint != tracing.DefaultEndpoint {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvTokenMetricsAPIKey, "  tm-key ")
	t.Setenv(EnvRateLimit, "2.5")
	t.Setenv(EnvMaxRetries, "3")
	t.Setenv(EnvMaxDays, "7")
	t.Setenv(EnvLogPretty, "true")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/1")

	cfg, err := Load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TokenMetrics.APIKey != "tm-key" {
		t.Errorf("APIKey = %q, want trimmed", cfg.TokenMetrics.APIKey)
	}
	if cfg.RateLimit != 2.5 || cfg.MaxRetries != 3 || cfg.MaxDays != 7 {
		t.Errorf("RateLimit/MaxRetries/MaxDays = %v/%d/%d", cfg.RateLimit, cfg.MaxRetries, cfg.MaxDays)
	}
	if !cfg.LogPretty {
		t.Error("LogPretty should be true")
	}
	if cfg.RedisURL != "redis://localhost:6379/1" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvMasaAPIKey)
	t.Cleanup(func() { os.Unsetenv(EnvMasaAPIKey) })

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("MASA_API_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Masa.APIKey != "from-file" {
		t.Errorf("Masa.APIKey = %q, want from-file", cfg.Masa.APIKey)
	}
	if !cfg.HasMasa() {
		t.Error("HasMasa() should be true")
	}
}

func TestLoad_MalformedEnvFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Error("expected error when the env file is a directory")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		TokenMetrics: Provider{APIKey: "tm"},
		Masa:         Provider{APIKey: "masa"},
		RateLimit:    5,
		MaxDays:      29,
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		requireMasa bool
		wantErr     string
		missing     bool
	}{
		{"valid", func(*Config) {}, true, "", false},
		{"missing tm key", func(c *Config) { c.TokenMetrics.APIKey = "" }, false, EnvTokenMetricsAPIKey, true},
		{"missing masa key required", func(c *Config) { c.Masa.APIKey = "" }, true, EnvMasaAPIKey, true},
		{"missing masa key optional", func(c *Config) { c.Masa.APIKey = "" }, false, "", false},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, false, EnvRateLimit, false},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, false, EnvMaxRetries, false},
		{"zero days", func(c *Config) { c.MaxDays = 0 }, false, EnvMaxDays, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate(tt.requireMasa)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
			if errors.Is(err, ErrMissingCredentials) != tt.missing {
				t.Errorf("errors.Is(ErrMissingCredentials) = %v, want %v", !tt.missing, tt.missing)
			}
		})
	}
}
