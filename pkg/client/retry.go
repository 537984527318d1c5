package client

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tmai_retries_total",
		Help: "Retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tmai_retry_backoff_seconds",
		Help:    "Backoff slept before a retry, by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tmai_retry_exhausted_total",
		Help: "Requests that failed after their last attempt, by error class",
	}, []string{"error_class"})
)

// RetryConfig is the backoff schedule of one error class.
type RetryConfig struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

var (
	defaultSchedule = RetryConfig{MaxAttempts: 3, InitialBackoff: time.Second, MaxBackoff: 30 * time.Second, BackoffMultiplier: 2}

	classSchedules = map[ErrorClass]RetryConfig{
		ErrorClassServer: {MaxAttempts: 3, InitialBackoff: time.Second, MaxBackoff: 10 * time.Second, BackoffMultiplier: 2},
		// 429: wait for the provider window to roll over.
		ErrorClassRateLimit: {MaxAttempts: 3, InitialBackoff: 5 * time.Second, MaxBackoff: time.Minute, BackoffMultiplier: 2},
		ErrorClassNetwork:   {MaxAttempts: 3, InitialBackoff: 2 * time.Second, MaxBackoff: 30 * time.Second, BackoffMultiplier: 2},
	}
)

// RetryConfigForErrorClass returns the schedule for class, or the default
// schedule for classes without their own.
func RetryConfigForErrorClass(class ErrorClass) RetryConfig {
	if cfg, ok := classSchedules[class]; ok {
		return cfg
	}
	return defaultSchedule
}

// retryPolicy bounds one request. The attempt count comes from
// Config.MaxRetries; initialBackoff, when set, overrides the class schedule.
type retryPolicy struct {
	maxAttempts    int
	initialBackoff time.Duration
	logger         zerolog.Logger
}

// jittered spreads d by ±20%.
func jittered(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.8 + rand.Float64()*0.4))
}

// retryWithBackoff runs fn until it succeeds, fails with a class that is not
// retried, or the policy runs out of attempts. With one attempt (the
// default) fn's error comes back untouched.
func retryWithBackoff(ctx context.Context, policy retryPolicy, fn func() error, classify func(error) ErrorClass) error {
	if policy.maxAttempts <= 1 {
		return fn()
	}

	var (
		lastErr error
		class   ErrorClass
		backoff time.Duration
	)
	for attempt := 1; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				policy.logger.Info().Str("error_class", string(class)).Int("attempt", attempt).Msg("Request succeeded after retry")
			}
			return nil
		}

		class = classify(lastErr)
		if !shouldRetry(class) {
			return lastErr
		}
		if attempt == policy.maxAttempts {
			break
		}

		schedule := RetryConfigForErrorClass(class)
		switch {
		case backoff > 0:
			backoff = min(time.Duration(float64(backoff)*schedule.BackoffMultiplier), schedule.MaxBackoff)
		case policy.initialBackoff > 0:
			backoff = policy.initialBackoff
		default:
			backoff = schedule.InitialBackoff
		}

		wait := jittered(backoff)
		retriesTotal.WithLabelValues(string(class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(wait.Seconds())
		policy.logger.Debug().Str("error_class", string(class)).Int("attempt", attempt).Dur("backoff", wait).Msg("Retrying request")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			policy.logger.Warn().Str("error_class", string(class)).Int("attempt", attempt).Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}

	retryExhaustedTotal.WithLabelValues(string(class)).Inc()
	policy.logger.Warn().Str("error_class", string(class)).Int("max_attempts", policy.maxAttempts).Msg("Retry attempts exhausted")
	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, policy.maxAttempts, lastErr)
}
