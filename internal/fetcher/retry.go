package fetcher

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/quantmind-br/url2bibtex-go/internal/domain"
)

// Retrier drives the retry loop for a single fetch: exponential backoff for
// transient failures, Retry-After for rate limiting, extra jitter after a 403.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration

	// sleep and jitter are injectable for tests
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(min, max time.Duration) time.Duration
}

// RetrierOptions contains options for creating a Retrier
type RetrierOptions struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetrierOptions returns default retrier options
func DefaultRetrierOptions() RetrierOptions {
	return RetrierOptions{
		MaxRetries:      3,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
	}
}

// NewRetrier creates a new Retrier with the given options
func NewRetrier(opts RetrierOptions) *Retrier {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 1 * time.Second
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = 30 * time.Second
	}

	return &Retrier{
		maxRetries:      opts.MaxRetries,
		initialInterval: opts.InitialInterval,
		maxInterval:     opts.MaxInterval,
		sleep:           sleepContext,
		jitter:          RandomDelay,
	}
}

// newBackoff creates the base exponential schedule (1s, 2s, 4s, ...).
// Randomization is handled separately so Retry-After values stay exact.
func (r *Retrier) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.Multiplier = 2.0
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Do executes op with the retry policy, returning the last error once the
// retry budget is exhausted or a permanent error is hit.
func Do[T any](ctx context.Context, r *Retrier, op func() (T, error)) (T, error) {
	var zero T
	b := r.newBackoff()

	var lastErr error
	for attempt := 0; ; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !domain.IsRetryable(err) || attempt >= r.maxRetries {
			return zero, lastErr
		}

		delay := b.NextBackOff()
		if ra := retryAfter(err); ra > 0 {
			// Rate limited: the server told us how long to wait
			delay = ra
		} else if domain.StatusCode(err) == 403 {
			// Forbidden: back off with extra jitter to look less mechanical
			delay += r.jitter(1*time.Second, 3*time.Second)
		}
		if attempt >= 1 {
			// Avoid a uniform retry timing signature
			delay += r.jitter(500*time.Millisecond, 1500*time.Millisecond)
		}

		if err := r.sleep(ctx, delay); err != nil {
			return zero, lastErr
		}
	}
}

// retryAfter extracts a server-provided retry delay from err, if any.
func retryAfter(err error) time.Duration {
	var retryable *domain.RetryableError
	if errors.As(err, &retryable) && retryable.RetryAfter > 0 {
		return time.Duration(retryable.RetryAfter) * time.Second
	}
	return 0
}

// ParseRetryAfter parses the Retry-After header value as seconds.
func ParseRetryAfter(retryAfter string) time.Duration {
	if retryAfter == "" {
		return 0
	}
	seconds, err := strconv.Atoi(retryAfter)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// sleepContext sleeps for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
