package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable marks a remote backend (Redis, MongoDB) that did not answer.
var ErrUnavailable = errors.New("backend unavailable")

// retryable marks an error that a [Backoff] should retry.
type retryable struct{ err error }

func (e retryable) Error() string { return e.err.Error() }
func (e retryable) Unwrap() error { return e.err }

// Retryable marks err for retry. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return retryable{err}
}

// IsRetryable reports whether err, or an error it wraps, was marked with
// [Retryable].
func IsRetryable(err error) bool {
	var r retryable
	return errors.As(err, &r)
}

// Backoff is the retry schedule for reaching a remote backend. The delay
// doubles after each failed attempt, capped at Max.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultBackoff covers a backend container that is still starting.
var DefaultBackoff = Backoff{Attempts: 4, Initial: 250 * time.Millisecond, Max: 2 * time.Second}

// delay returns the wait after failed attempt i (zero-based).
func (b Backoff) delay(i int) time.Duration {
	d := b.Initial
	for ; i > 0 && (b.Max <= 0 || d < b.Max); i-- {
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	return d
}

// Retry calls fn until it succeeds, fails with an error not marked
// [Retryable], or Attempts run out. The last error is returned.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.delay(i)):
		}
	}
	return err
}

// Ping waits for a remote backend named name to answer ping, retrying with
// b. Failures are wrapped with [ErrUnavailable].
func (b Backoff) Ping(ctx context.Context, name string, ping func(context.Context) error) error {
	return b.Retry(ctx, func() error {
		if err := ping(ctx); err != nil {
			return Retryable(fmt.Errorf("%w: ping %s: %v", ErrUnavailable, name, err))
		}
		return nil
	})
}
