package app

import (
	"context"
	"testing"

	"github.com/Sternrassler/tmai-client/internal/config"
)

func TestNew_WithoutRedisOrMasa(t *testing.T) {
	cfg := &config.Config{
		TokenMetrics: config.Provider{APIKey: "tm", BaseURL: "http://127.0.0.1:1"},
		RateLimit:    5,
		MaxDays:      10,
	}

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if a.TokenMetrics == nil {
		t.Fatal("TokenMetrics should be set")
	}
	if a.TokenMetrics.MaxDays() != 10 {
		t.Errorf("MaxDays() = %d, want 10", a.TokenMetrics.MaxDays())
	}
	if a.Masa != nil {
		t.Error("Masa should be nil without a key")
	}
	if a.Redis != nil {
		t.Error("Redis should be nil without a url")
	}
}

func TestNew_WithMasa(t *testing.T) {
	cfg := &config.Config{
		TokenMetrics: config.Provider{APIKey: "tm", BaseURL: "http://127.0.0.1:1"},
		Masa:         config.Provider{APIKey: "masa", BaseURL: "http://127.0.0.1:2"},
		MaxDays:      29,
	}

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if a.Masa == nil {
		t.Error("Masa should be set")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := &config.Config{TokenMetrics: config.Provider{BaseURL: "http://127.0.0.1:1"}}
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for a missing api key")
	}
}

func TestOpenRedis_BadURL(t *testing.T) {
	if _, err := OpenRedis(context.Background(), "http://localhost:6379"); err == nil {
		t.Error("expected error for a non-redis scheme")
	}
}

func TestClose_Idempotent(t *testing.T) {
	calls := 0
	a := &App{closers: []func() error{func() error { calls++; return nil }}}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("closer calls = %d, want 1", calls)
	}
}
