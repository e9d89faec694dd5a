package ai

import (
	"context"
	"time"
)

// RetryPolicy is a bounded retry with exponential backoff. Used only at the
// model-call boundary; every other collaborator fails fast.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetry retries 3 times with 1s/2s/4s delays.
var DefaultRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

// Do runs fn until it succeeds or attempts are exhausted, doubling the delay
// between attempts. Returns the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	delay := p.BaseDelay
	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
