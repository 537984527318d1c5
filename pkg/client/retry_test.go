package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryConfigForErrorClass(t *testing.T) {
	tests := []struct {
		class   ErrorClass
		initial time.Duration
		max     time.Duration
	}{
		{ErrorClassServer, time.Second, 10 * time.Second},
		{ErrorClassRateLimit, 5 * time.Second, time.Minute},
		{ErrorClassNetwork, 2 * time.Second, 30 * time.Second},
		{"", time.Second, 30 * time.Second},
	}

	for _, tt := range tests {
		cfg := RetryConfigForErrorClass(tt.class)
		if cfg.InitialBackoff != tt.initial || cfg.MaxBackoff != tt.max {
			t.Errorf("%q: backoff = %v..%v, want %v..%v", tt.class, cfg.InitialBackoff, cfg.MaxBackoff, tt.initial, tt.max)
		}
		if cfg.MaxAttempts != 3 || cfg.BackoffMultiplier != 2.0 {
			t.Errorf("%q: attempts/multiplier = %d/%v", tt.class, cfg.MaxAttempts, cfg.BackoffMultiplier)
		}
	}
}

// fastPolicy keeps the schedule in milliseconds so the loop runs quickly.
func fastPolicy(attempts int) retryPolicy {
	return retryPolicy{maxAttempts: attempts, initialBackoff: 5 * time.Millisecond}
}

func TestRetryWithBackoff(t *testing.T) {
	errUpstream := errors.New("upstream")

	tests := []struct {
		name      string
		policy    retryPolicy
		class     ErrorClass
		failFirst int // attempts that fail before success, -1 for always
		wantCalls int
		wantErr   error
		exhausted bool
	}{
		{"zero retries is one attempt", retryPolicy{}, ErrorClassServer, -1, 1, errUpstream, false},
		{"first attempt succeeds", fastPolicy(3), ErrorClassServer, 0, 1, nil, false},
		{"success after two failures", fastPolicy(3), ErrorClassServer, 2, 3, nil, false},
		{"server errors exhaust", fastPolicy(3), ErrorClassServer, -1, 3, errUpstream, true},
		{"rate limits exhaust", fastPolicy(2), ErrorClassRateLimit, -1, 2, errUpstream, true},
		{"client errors are final", fastPolicy(3), ErrorClassClient, -1, 1, errUpstream, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retryWithBackoff(context.Background(), tt.policy, func() error {
				calls++
				if tt.failFirst < 0 || calls <= tt.failFirst {
					return errUpstream
				}
				return nil
			}, func(error) ErrorClass { return tt.class })

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil {
				t.Fatalf("err = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want wrapping %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrRetryExhausted) != tt.exhausted {
				t.Errorf("exhausted = %v, want %v (err %v)", !tt.exhausted, tt.exhausted, err)
			}
		})
	}
}

func TestRetryWithBackoff_BackoffGrows(t *testing.T) {
	var stamps []time.Time
	_ = retryWithBackoff(context.Background(), retryPolicy{maxAttempts: 3, initialBackoff: 20 * time.Millisecond}, func() error {
		stamps = append(stamps, time.Now())
		return errors.New("boom")
	}, func(error) ErrorClass { return ErrorClassServer })

	if len(stamps) != 3 {
		t.Fatalf("attempts = %d, want 3", len(stamps))
	}
	first, second := stamps[1].Sub(stamps[0]), stamps[2].Sub(stamps[1])
	// 20ms then 40ms, each with 20% jitter.
	if first < 15*time.Millisecond || second < 30*time.Millisecond {
		t.Errorf("delays = %v, %v", first, second)
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := retryWithBackoff(ctx, retryPolicy{maxAttempts: 3, initialBackoff: time.Minute}, func() error {
		calls++
		cancel()
		return errors.New("boom")
	}, func(error) ErrorClass { return ErrorClassNetwork })

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("err = %v, want ErrContextCancelled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
