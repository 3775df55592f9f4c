package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/giantswarm/mcp-toolpool/pkg/logging"
)

const (
	// DefaultMaxAttempts is the number of initialisation attempts per server.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the fixed delay between attempts.
	DefaultRetryDelay = time.Second
)

// RetryPolicy is a bounded retry with a fixed delay between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration

	// Sleep waits between attempts. Defaults to a timer that honours ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns 3 attempts with a 1s delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultRetryDelay}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

// Do calls fn until it succeeds or MaxAttempts calls have failed. Attempts
// are numbered from 1. cleanup, when not nil, runs after every failed
// attempt before the delay. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, name string, fn func(ctx context.Context, attempt int) error, cleanup func()) (int, error) {
	p = p.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}

		logging.Warn("ServerPool", "Error initializing server %s: %v. Attempt %d of %d.",
			name, lastErr, attempt, p.MaxAttempts)
		if cleanup != nil {
			cleanup()
		}

		if attempt == p.MaxAttempts {
			break
		}
		logging.Info("ServerPool", "Retrying %s in %s", name, p.Delay)
		if err := p.Sleep(ctx, p.Delay); err != nil {
			return attempt, fmt.Errorf("retry of %s interrupted: %w", name, err)
		}
	}

	logging.Error("ServerPool", lastErr, "Max retries reached for server %s", name)
	return p.MaxAttempts, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
