package httputil

import (
	"context"
	stderrors "errors"
	"time"
)

// RetryableError marks a transient failure. [Retry] repeats an operation
// only while it fails with one.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Transient wraps err in a [RetryableError]. It returns nil for nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsTransient reports whether err carries a [RetryableError].
func IsTransient(err error) bool {
	var re *RetryableError
	return stderrors.As(err, &re)
}

// Retry calls fn until it succeeds, fails permanently, or has been called
// attempts times. The wait starts at delay and doubles after each
// transient failure. Cancelling ctx stops the waiting and returns
// ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsTransient(err) {
			return err
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
	}
	return err
}
