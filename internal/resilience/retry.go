// Package resilience retries store writes and connection setup that fail
// for transient reasons such as a database still starting, a dropped
// connection, SQLite lock contention or a serialization conflict.
package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig is the retry policy for one kind of store operation.
type RetryConfig struct {
	// MaxAttempts counts the first try. 1 disables retries.
	MaxAttempts int
	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration
	// MaxBackoff caps any single wait.
	MaxBackoff time.Duration
	// Multiplier grows the wait after each failed attempt.
	Multiplier float64
	// JitterFraction spreads waits by up to this fraction either way so
	// concurrent batch writers do not retry in lockstep.
	JitterFraction float64
	// ShouldRetry replaces IsTransient when set.
	ShouldRetry func(err error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig is the policy for estimate and override writes.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2,
		JitterFraction: 0.25,
	}
}

// Do runs a store operation until it succeeds or fails permanently. Only
// idempotent or transactional writes should be passed here. The error from
// the last attempt is returned as is so callers can still match store
// sentinels.
func Do(ctx context.Context, cfg RetryConfig, op func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoVal is Do for operations that produce a value, such as opening a pool.
func DoVal[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()
	retryable := cfg.ShouldRetry
	if retryable == nil {
		retryable = IsTransient
	}

	wait := cfg.InitialBackoff
	for attempt := 1; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}
		if attempt == cfg.MaxAttempts || ctx.Err() != nil || !retryable(err) {
			return val, err
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		timer := time.NewTimer(jitter(wait, cfg.JitterFraction))
		select {
		case <-ctx.Done():
			timer.Stop()
			return val, err
		case <-timer.C:
		}
		wait = nextBackoff(wait, cfg)
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if c.MaxAttempts < 1 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = def.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	if c.Multiplier <= 0 {
		c.Multiplier = def.Multiplier
	}
	c.JitterFraction = max(c.JitterFraction, 0)
	return c
}

// nextBackoff grows wait by the multiplier, capped at MaxBackoff.
func nextBackoff(wait time.Duration, cfg RetryConfig) time.Duration {
	next := time.Duration(float64(wait) * cfg.Multiplier)
	return min(next, cfg.MaxBackoff)
}

// jitter shifts d by a random amount within ±fraction of d.
func jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	spread := float64(d) * fraction
	return max(time.Duration(float64(d)+(rand.Float64()*2-1)*spread), 0)
}

// RetryLogger logs each retried store operation at warn level.
func RetryLogger(operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("store: retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
