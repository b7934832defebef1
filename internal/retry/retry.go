// Package retry provides a generic retry policy with exponential backoff
// and jitter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/gupywatch/gupywatch/internal/model"
)

// Class tells the policy whether a failure is worth retrying.
type Class int

const (
	// Transient failures are retried until attempts run out.
	Transient Class = iota
	// Fatal failures are returned immediately.
	Fatal
)

// Policy retries a function on transient failures with exponential backoff
// and ±30% jitter. MaxAttempts counts the first call, so MaxAttempts of 3
// means at most two retries.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration // cap on a single backoff delay, zero for no cap
	Classify    func(error) Class
	Logger      *slog.Logger
}

// Do invokes fn until it succeeds, a fatal error occurs, attempts run out,
// or ctx is cancelled. The last error is returned on exhaustion.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	classify := p.Classify
	if classify == nil {
		classify = DefaultClassify
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := p.backoffDelay(attempt, lastErr)
			logger.Warn("retrying after transient error",
				"attempt", attempt+1,
				"max_attempts", p.MaxAttempts,
				"delay", delay,
				"error", lastErr,
			)

			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if classify(err) == Fatal {
			return err
		}
		lastErr = err
	}

	return lastErr
}

// backoffDelay computes the delay before the given attempt with ±30% jitter.
// Attempt 1 waits BaseDelay, attempt 2 waits 2*BaseDelay, and so on. If the
// previous error carries a Retry-After duration, that takes precedence.
func (p Policy) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// DefaultClassify treats context cancellation and HTTP 4xx (except 429) as
// fatal; 429, 5xx, and non-HTTP errors (network, DNS) are transient.
func DefaultClassify(err error) Class {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Fatal
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 429 || httpErr.StatusCode >= 500 {
			return Transient
		}
		return Fatal
	}

	return Transient
}
