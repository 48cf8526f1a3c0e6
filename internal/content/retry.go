package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aparasochka/greektutor/internal/domain"
)

// RetryPolicy describes how generation calls are retried and how long one
// whole pipeline attempt may take. The zero value disables retries;
// DefaultRetryPolicy matches the configuration defaults.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
	// OverallTimeout bounds a full Pipeline.Generate attempt: the initial
	// call, retries, backoff and repair rounds together. Distinct from the
	// generator's per-call network timeout. Zero means unbounded.
	OverallTimeout time.Duration
}

// DefaultRetryPolicy retries twice after the first failure with doubling
// backoff, within a three-minute overall budget.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:    3,
	InitialBackoff: 500 * time.Millisecond,
	Multiplier:     2.0,
	OverallTimeout: 3 * time.Minute,
}

// backoff returns the pause before the given retry attempt (1-based).
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return d
}

// callWithRetry invokes fn up to MaxAttempts times, sleeping between attempts
// per the policy. A timed-out call is a failed attempt like any other and is
// retried; only ctx itself being done stops retrying early. Once retrying
// stops, a deadline failure surfaces as domain.ErrGenerationTimeout and a
// cancellation as ctx.Err().
func callWithRetry[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := max(policy.MaxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			select {
			case <-time.After(policy.backoff(attempt)):
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return zero, ctx.Err()
	}
	if errors.Is(lastErr, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return zero, fmt.Errorf("%w: %v", domain.ErrGenerationTimeout, lastErr)
	}
	return zero, lastErr
}
