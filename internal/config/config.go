// Package config loads runtime settings for the tm-proxy and tm-mcp
// binaries from an optional .env file and the process environment.
//
// Precedence (lowest to highest): defaults, .env file, environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/Sternrassler/tmai-client/pkg/masa"
	"github.com/Sternrassler/tmai-client/pkg/pagination"
	"github.com/Sternrassler/tmai-client/pkg/tokenmetrics"
	"github.com/Sternrassler/tmai-client/pkg/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variable names.
const (
	EnvTokenMetricsAPIKey  = "TOKEN_METRICS_API_KEY"
	EnvTokenMetricsBaseURL = "TOKEN_METRICS_BASE_URL"
	EnvMasaAPIKey          = "MASA_API_KEY"
	EnvMasaBaseURL         = "MASA_BASE_URL"
	EnvRedisURL            = "REDIS_URL"
	EnvPort                = "PORT"
	EnvUserAgent           = "USER_AGENT"
	EnvRateLimit           = "RATE_LIMIT"
	EnvMaxRetries          = "MAX_RETRIES"
	EnvMaxDays             = "MAX_DAYS"
	EnvLogLevel            = "LOG_LEVEL"
	EnvLogPretty           = "LOG_PRETTY"
	EnvTracingEnabled      = "TRACING_ENABLED"
	EnvOTLPEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// DefaultUserAgent identifies the client to both providers.
const DefaultUserAgent = "tmai-client/1.0 (+https://github.com/Sternrassler/tmai-client)"

// ErrMissingCredentials is returned by Validate when an API key is unset.
var ErrMissingCredentials = errors.New("missing credentials")

// Config holds everything the binaries need.
type Config struct {
	TokenMetrics Provider
	Masa         Provider

	// RedisURL enables the shared cache and quota tracker when set.
	RedisURL string

	Port       string
	UserAgent  string
	RateLimit  float64
	MaxRetries int
	MaxDays    int

	LogLevel  string
	LogPretty bool

	Tracing tracing.Config
}

// Provider is the connection setting for one upstream API.
type Provider struct {
	APIKey  string
	BaseURL string
}

// Load reads envFiles (default ".env") into the environment, then resolves
// every setting through viper. Missing .env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		TokenMetrics: Provider{
			APIKey:  strings.TrimSpace(v.GetString(EnvTokenMetricsAPIKey)),
			BaseURL: v.GetString(EnvTokenMetricsBaseURL),
		},
		Masa: Provider{
			APIKey:  strings.TrimSpace(v.GetString(EnvMasaAPIKey)),
			BaseURL: v.GetString(EnvMasaBaseURL),
		},
		RedisURL:   v.GetString(EnvRedisURL),
		Port:       v.GetString(EnvPort),
		UserAgent:  v.GetString(EnvUserAgent),
		RateLimit:  v.GetFloat64(EnvRateLimit),
		MaxRetries: v.GetInt(EnvMaxRetries),
		MaxDays:    v.GetInt(EnvMaxDays),
		LogLevel:   v.GetString(EnvLogLevel),
		LogPretty:  v.GetBool(EnvLogPretty),
		Tracing: tracing.Config{
			Enabled:     v.GetBool(EnvTracingEnabled),
			Endpoint:    v.GetString(EnvOTLPEndpoint),
			ServiceName: "tmai-client",
		},
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(EnvTokenMetricsBaseURL, tokenmetrics.DefaultBaseURL)
	v.SetDefault(EnvMasaBaseURL, masa.DefaultBaseURL)
	v.SetDefault(EnvRedisURL, "")
	v.SetDefault(EnvPort, "8080")
	v.SetDefault(EnvUserAgent, DefaultUserAgent)
	v.SetDefault(EnvRateLimit, 5)
	v.SetDefault(EnvMaxRetries, 0)
	v.SetDefault(EnvMaxDays, pagination.DefaultMaxDays)
	v.SetDefault(EnvLogLevel, "info")
	v.SetDefault(EnvLogPretty, false)
	v.SetDefault(EnvTracingEnabled, false)
	v.SetDefault(EnvOTLPEndpoint, tracing.DefaultEndpoint)
}

// Validate checks the settings. requireMasa is false for binaries that do
// not run the sentiment pipeline.
func (c *Config) Validate(requireMasa bool) error {
	var missing []string
	if c.TokenMetrics.APIKey == "" {
		missing = append(missing, EnvTokenMetricsAPIKey)
	}
	if requireMasa && c.Masa.APIKey == "" {
		missing = append(missing, EnvMasaAPIKey)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("%s must be >= 0 (got %v)", EnvRateLimit, c.RateLimit)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%s must be >= 0 (got %d)", EnvMaxRetries, c.MaxRetries)
	}
	if c.MaxDays < 1 {
		return fmt.Errorf("%s must be >= 1 (got %d)", EnvMaxDays, c.MaxDays)
	}
	return nil
}

// HasMasa reports whether the sentiment pipeline can be enabled.
func (c *Config) HasMasa() bool {
	return c.Masa.APIKey != ""
}
