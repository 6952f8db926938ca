package resilience

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = time.Second
)

// DelayPolicy returns the wait before the attempt that follows attempt n (1-based).
type DelayPolicy interface {
	Delay(attempt int) time.Duration
}

type fixedDelay time.Duration

func (d fixedDelay) Delay(int) time.Duration { return time.Duration(d) }

// Fixed waits the same duration between every pair of attempts.
func Fixed(d time.Duration) DelayPolicy {
	return fixedDelay(d)
}

type exponentialDelay struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64
}

func (e exponentialDelay) Delay(attempt int) time.Duration {
	wait := float64(e.initial)
	for i := 1; i < attempt; i++ {
		wait *= e.multiplier
		if time.Duration(wait) >= e.max {
			return e.max
		}
	}
	if time.Duration(wait) > e.max {
		return e.max
	}
	return time.Duration(wait)
}

// Exponential multiplies the wait after every failed attempt, capped at max.
func Exponential(initial, max time.Duration, multiplier float64) DelayPolicy {
	if multiplier < 1 {
		multiplier = 1
	}
	if max < initial {
		max = initial
	}
	return exponentialDelay{initial: initial, max: max, multiplier: multiplier}
}

// Policy bounds a retried operation. The zero value means 3 attempts, 1s apart,
// every error retried.
type Policy struct {
	MaxAttempts int
	Delay       DelayPolicy
	// Retryable reports whether another attempt may follow err. Nil retries everything.
	Retryable func(err error) bool
	// OnRetry runs after a failed attempt that will be followed by another one.
	OnRetry func(attempt int, wait time.Duration, err error)
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Delay: Fixed(DefaultDelay)}
}

func (p Policy) normalize() Policy {
	out := p
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = DefaultMaxAttempts
	}
	if out.Delay == nil {
		out.Delay = Fixed(DefaultDelay)
	}
	return out
}

// Retry runs op until it succeeds or the policy is exhausted and returns the
// error of the last attempt. Attempts never overlap.
func Retry[T any](ctx context.Context, op func(context.Context) (T, error), policy Policy) (T, error) {
	var zero T
	if op == nil {
		return zero, fmt.Errorf("resilience: operation callback is nil")
	}
	policy = policy.normalize()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == policy.MaxAttempts {
			break
		}
		if policy.Retryable != nil && !policy.Retryable(err) {
			break
		}

		wait := policy.Delay.Delay(attempt)
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, wait, err)
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, lastErr
			case <-timer.C:
			}
		}
	}
	return zero, lastErr
}

// Do is Retry for operations without a result.
func Do(ctx context.Context, op func(context.Context) error, policy Policy) error {
	_, err := Retry(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, policy)
	return err
}
