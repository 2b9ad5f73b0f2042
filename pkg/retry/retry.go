// Package retry re-runs operations that failed for transient reasons.
//
// Callers mark an error as transient with [Transient]; [Policy.Do] retries
// only those, doubling the delay after each attempt up to MaxDelay.
// Everything else, including context cancellation, ends the loop at once.
//
//	err := retry.Redis.Do(ctx, func() error {
//	    return retry.Transient(client.Ping(ctx).Err())
//	})
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy bounds a retry loop.
type Policy struct {
	Attempts int
	Delay    time.Duration
	// MaxDelay caps the doubled delay; zero means no cap.
	MaxDelay time.Duration
}

// Preset policies.
var (
	// Redis covers short network blips to the cache backend.
	Redis = Policy{Attempts: 3, Delay: 100 * time.Millisecond, MaxDelay: time.Second}
	// HTTP covers a restarting or overloaded flowplan server.
	HTTP = Policy{Attempts: 3, Delay: 250 * time.Millisecond, MaxDelay: 2 * time.Second}
)

// Error marks its cause as worth another attempt.
type Error struct{ Err error }

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Transient wraps err as retryable. Nil and context errors pass through
// unchanged, so a cancelled caller is never retried.
func Transient(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &Error{Err: err}
}

// IsTransient reports whether err was wrapped by [Transient].
func IsTransient(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// Do runs fn until it succeeds, returns a non-transient error, the
// attempts run out or ctx is done. It returns the last error seen, or
// ctx.Err() when cancelled while waiting.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var last error

	for i := range attempts {
		last = fn()
		if last == nil || !IsTransient(last) {
			return last
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return last
}
