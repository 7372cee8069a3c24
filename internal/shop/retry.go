package shop

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// RetryPolicy controls Retry.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
	defaultMultiplier  = 2
)

// DefaultRetryPolicy returns 3 attempts starting at 1s, doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		Multiplier:  defaultMultiplier,
	}
}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = defaultMultiplier
	}
	return p
}

// Delay returns the wait before the given 1-based attempt. The first attempt
// never waits; attempt k waits BaseDelay × Multiplier^(k-2).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 2 {
		return 0
	}
	p = p.normalize()
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-2)))
}

// sleep waits for d or until ctx is done.
var sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry runs op until it succeeds, returns a non-retryable error, or the
// policy's attempts are spent. Only client errors with status 0, 408, 429 or
// >= 500 are retried. The last error is returned unchanged. Cancelling ctx
// stops the wait between attempts.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	return retry(ctx, policy, slog.Default(), op)
}

func retry[T any](ctx context.Context, policy RetryPolicy, logger *slog.Logger, op func(context.Context) (T, error)) (T, error) {
	if logger == nil {
		logger = slog.Default()
	}
	policy = policy.normalize()
	var (
		zero    T
		lastErr error
	)
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, policy.Delay(attempt)); err != nil {
				return zero, lastErr
			}
		}
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return zero, err
		}
		if attempt < policy.MaxAttempts {
			logger.Debug("retrying request",
				"attempt", attempt+1,
				"max_attempts", policy.MaxAttempts,
				"delay", policy.Delay(attempt+1),
				"status", StatusOf(err),
			)
		}
	}
	return zero, lastErr
}
