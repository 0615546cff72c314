package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryPolicy bounds attempts against the external model with exponential
// backoff. Sleep is injectable so tests run without real delay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       func(ctx context.Context, d time.Duration)
}

// DefaultRetryPolicy matches the production settings: 3 attempts total,
// backoff doubling from the base delay.
func DefaultRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		Sleep:       sleepContext,
	}
}

// Do runs fn until it succeeds, a permanent failure occurs, the context is
// cancelled, or attempts are exhausted. ErrClassificationFailed is
// permanent: validation failures are never retried.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrClassificationFailed) {
			return lastErr
		}

		if attempt < p.MaxAttempts && p.Sleep != nil {
			p.Sleep(ctx, delay)
			delay *= 2
		}
	}

	return fmt.Errorf("after %d attempts: %w", p.MaxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
