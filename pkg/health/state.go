// Package health implements Sherpa service health tracking and request
// gating. The Sherpa service publishes no rate limit headers, so the gate is
// fed by observed transport outcomes: consecutive failures accumulate a
// shared failure budget in Redis, and new page requests are throttled or
// blocked while the remote is misbehaving.
package health

import (
	"time"
)

// Redis keys for health state storage.
const (
	RedisKeyConsecutiveFailures = "sherpa:health:consecutive_failures"
	RedisKeyLastFailure         = "sherpa:health:last_failure"
	RedisKeyLastSuccess         = "sherpa:health:last_success"
)

// Thresholds for gating decisions.
const (
	// FailureThresholdWarning applies throttling once this many consecutive
	// failures have been observed.
	FailureThresholdWarning = 3

	// FailureThresholdCritical blocks all requests once this many consecutive
	// failures have been observed, until the cooldown window elapses.
	FailureThresholdCritical = 8

	// CooldownWindow is how long after the last failure a critical block
	// stays in effect.
	CooldownWindow = 2 * time.Minute

	// ThrottleDelay is the pause inserted before each request while in the
	// warning band.
	ThrottleDelay = 1 * time.Second
)

// ServiceState represents the current Sherpa service health.
// The state is shared across all client instances via Redis.
type ServiceState struct {
	// ConsecutiveFailures is the number of request failures observed since
	// the last success.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// LastFailure is when the most recent failure was recorded.
	LastFailure time.Time `json:"last_failure"`

	// LastSuccess is when the most recent success was recorded.
	LastSuccess time.Time `json:"last_success"`

	// IsHealthy indicates the failure budget is untouched.
	IsHealthy bool `json:"is_healthy"`
}

// NeedsCriticalBlock returns true if requests should be blocked: the failure
// budget is exhausted and the cooldown window since the last failure has not
// elapsed yet.
func (s *ServiceState) NeedsCriticalBlock() bool {
	if s.ConsecutiveFailures < FailureThresholdCritical {
		return false
	}
	return time.Since(s.LastFailure) < CooldownWindow
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *ServiceState) NeedsThrottling() bool {
	return s.ConsecutiveFailures >= FailureThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilRecovery returns the duration until a critical block lifts.
// Returns 0 if no block is in effect.
func (s *ServiceState) TimeUntilRecovery() time.Duration {
	if !s.NeedsCriticalBlock() {
		return 0
	}
	return CooldownWindow - time.Since(s.LastFailure)
}

// UpdateHealth updates the IsHealthy field from the current failure count.
func (s *ServiceState) UpdateHealth() {
	s.IsHealthy = s.ConsecutiveFailures < FailureThresholdWarning
}
