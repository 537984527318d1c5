// Package ratelimit tracks the provider request quota reported in
// X-RateLimit-Remaining and X-RateLimit-Reset response headers and gates
// requests when the quota runs low. State lives in Redis so every client
// sharing an API key sees the same budget.
package ratelimit

import (
	"fmt"
	"time"
)

// Redis key suffixes for quota state; keys are "tmai:<namespace>:quota:<suffix>".
const (
	keyRemaining  = "remaining"
	keyResetAt    = "reset_at"
	keyLastUpdate = "last_update"
)

// Header names read from provider responses.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Thresholds for quota decisions.
const (
	// QuotaThresholdCritical blocks requests when remaining quota falls below this value.
	QuotaThresholdCritical = 5

	// QuotaThresholdWarning throttles requests when remaining quota falls below this value.
	QuotaThresholdWarning = 20

	// QuotaThresholdHealthy indicates normal operation.
	QuotaThresholdHealthy = 50
)

// ThrottleDelay is the pause applied to each request in the warning band.
var ThrottleDelay = 1 * time.Second

// RedisKey returns the Redis key of a quota field for a namespace.
func RedisKey(namespace, field string) string {
	return fmt.Sprintf("tmai:%s:quota:%s", namespace, field)
}

// QuotaState is the current provider quota for one namespace.
type QuotaState struct {
	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last written.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= QuotaThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state is older than maxAge.
func (s *QuotaState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// WindowExpired reports whether the reset time has passed, after which the
// recorded Remaining no longer applies.
func (s *QuotaState) WindowExpired() bool {
	return !s.ResetAt.IsZero() && time.Now().After(s.ResetAt)
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *QuotaState) NeedsCriticalBlock() bool {
	return s.Remaining < QuotaThresholdCritical && !s.WindowExpired()
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *QuotaState) NeedsThrottling() bool {
	return s.Remaining < QuotaThresholdWarning && !s.WindowExpired() && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets, 0 if it already has.
func (s *QuotaState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates IsHealthy from Remaining.
func (s *QuotaState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= QuotaThresholdHealthy
}
