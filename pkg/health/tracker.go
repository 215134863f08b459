package health

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for health tracking.
var (
	sherpaConsecutiveFailures = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sherpa_consecutive_failures",
		Help: "Number of consecutive Sherpa request failures observed",
	})

	sherpaHealthBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sherpa_health_blocks_total",
		Help: "Total number of requests blocked due to critical service health",
	})

	sherpaHealthThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sherpa_health_throttles_total",
		Help: "Total number of requests throttled due to degraded service health",
	})
)

// Tracker monitors Sherpa service health and gates requests.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new health tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current service health state from Redis.
// Returns a default healthy state if no data exists in Redis.
func (t *Tracker) GetState(ctx context.Context) (*ServiceState, error) {
	failures, err := t.redis.Get(ctx, RedisKeyConsecutiveFailures).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get consecutive failures: %w", err)
	}
	if err == redis.Nil {
		t.logger.Debug().Msg("No health state in Redis, returning default healthy state")
		return &ServiceState{
			ConsecutiveFailures: 0,
			LastSuccess:         time.Now(),
			IsHealthy:           true,
		}, nil
	}

	lastFailureUnix, err := t.redis.Get(ctx, RedisKeyLastFailure).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last failure: %w", err)
	}

	lastSuccessUnix, err := t.redis.Get(ctx, RedisKeyLastSuccess).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last success: %w", err)
	}

	state := &ServiceState{
		ConsecutiveFailures: failures,
		LastFailure:         time.Unix(lastFailureUnix, 0),
		LastSuccess:         time.Unix(lastSuccessUnix, 0),
	}
	state.UpdateHealth()

	return state, nil
}

// RecordSuccess resets the failure budget after a successful request.
func (t *Tracker) RecordSuccess(ctx context.Context) error {
	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyConsecutiveFailures, 0, 0)
	pipe.Set(ctx, RedisKeyLastSuccess, time.Now().Unix(), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store health state in redis: %w", err)
	}

	sherpaConsecutiveFailures.Set(0)
	return nil
}

// RecordFailure increments the shared failure budget after a failed request.
func (t *Tracker) RecordFailure(ctx context.Context) error {
	failures, err := t.redis.Incr(ctx, RedisKeyConsecutiveFailures).Result()
	if err != nil {
		return fmt.Errorf("increment consecutive failures: %w", err)
	}

	if err := t.redis.Set(ctx, RedisKeyLastFailure, time.Now().Unix(), 0).Err(); err != nil {
		return fmt.Errorf("store last failure in redis: %w", err)
	}

	sherpaConsecutiveFailures.Set(float64(failures))

	state := &ServiceState{
		ConsecutiveFailures: int(failures),
		LastFailure:         time.Now(),
	}
	state.UpdateHealth()

	logEvent := t.logger.Warn().
		Int64("consecutive_failures", failures).
		Bool("is_healthy", state.IsHealthy)

	if state.NeedsCriticalBlock() {
		logEvent = t.logger.Error().Int64("consecutive_failures", failures)
		logEvent.Msg("Sherpa service health CRITICAL - requests will be blocked")
	} else if state.NeedsThrottling() {
		logEvent.Msg("Sherpa service health degraded - requests will be throttled")
	} else {
		logEvent.Msg("Sherpa request failure recorded")
	}

	return nil
}

// ShouldAllowRequest checks if a request should be allowed given the current
// service health. Returns false if requests are blocked during the cooldown
// window. Returns true but sleeps for ThrottleDelay while in the warning band.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get health state: %w", err)
	}

	// Critical: block all requests until the cooldown elapses
	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("consecutive_failures", state.ConsecutiveFailures).
			Dur("wait_duration", state.TimeUntilRecovery()).
			Msg("Sherpa service health critical - blocking request")

		sherpaHealthBlocksTotal.Inc()
		return false, nil
	}

	// Warning: slow down
	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("consecutive_failures", state.ConsecutiveFailures).
			Msg("Sherpa service health degraded - throttling request")

		sherpaHealthThrottlesTotal.Inc()

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(ThrottleDelay):
		}
	}

	return true, nil
}
