// Package app builds the provider clients shared by the binaries from a
// loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/tmai-client/internal/config"
	"github.com/Sternrassler/tmai-client/pkg/client"
	"github.com/Sternrassler/tmai-client/pkg/logging"
	"github.com/Sternrassler/tmai-client/pkg/masa"
	"github.com/Sternrassler/tmai-client/pkg/tokenmetrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache namespaces keep the two providers' entries and quotas apart.
const (
	NamespaceTokenMetrics = "tm"
	NamespaceMasa         = "masa"
)

// App holds the wired clients.
type App struct {
	TokenMetrics *tokenmetrics.API
	// Masa is nil when no Masa key is configured.
	Masa  *masa.Client
	Redis *redis.Client

	closers []func() error
}

// SetupLogging configures the global logger for a binary.
func SetupLogging(cfg *config.Config, service string) zerolog.Logger {
	lc := logging.DefaultConfig()
	lc.Level = logging.LogLevel(strings.ToLower(cfg.LogLevel))
	lc.Pretty = cfg.LogPretty
	lc.Service = service
	return logging.Setup(lc)
}

// New connects Redis (when configured) and creates the provider clients.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	if cfg.RedisURL != "" {
		rdb, err := OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.Redis = rdb
		a.closers = append(a.closers, rdb.Close)
	}

	tmCfg := client.DefaultConfig(cfg.TokenMetrics.BaseURL, cfg.TokenMetrics.APIKey)
	tmCfg.UserAgent = cfg.UserAgent
	tmCfg.RateLimit = cfg.RateLimit
	tmCfg.MaxRetries = cfg.MaxRetries
	tmCfg.Redis = a.Redis
	tmCfg.CacheNamespace = NamespaceTokenMetrics
	tm, err := client.New(tmCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("token metrics client: %w", err)
	}
	a.closers = append(a.closers, tm.Close)
	a.TokenMetrics = tokenmetrics.New(tm, tokenmetrics.WithMaxDays(cfg.MaxDays))

	if cfg.HasMasa() {
		mCfg := client.DefaultConfig(cfg.Masa.BaseURL, cfg.Masa.APIKey)
		mCfg.APIKeyHeader = client.HeaderAuthorization
		mCfg.APIKeyPrefix = client.BearerPrefix
		mCfg.UserAgent = cfg.UserAgent
		mCfg.RateLimit = cfg.RateLimit
		mCfg.MaxRetries = cfg.MaxRetries
		mCfg.Redis = a.Redis
		mCfg.CacheNamespace = NamespaceMasa
		mc, err := client.New(mCfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("masa client: %w", err)
		}
		a.closers = append(a.closers, mc.Close)
		a.Masa = masa.New(mc)
	}

	return a, nil
}

// OpenRedis connects to url, which is either a redis:// URL or host:port,
// and pings it.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts := &redis.Options{Addr: url}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// Close releases every client in reverse creation order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
