// Package retry runs operations against remote servers with exponential
// backoff. Errors marked Permanent stop the loop at once.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// Policy configures retries. The zero value is usable: it retries twice
// with DefaultPolicy delays.
type Policy struct {
	// Attempts is the total number of calls, including the first.
	Attempts int
	// Initial is the delay after the first failure.
	Initial time.Duration
	// Max caps a single delay.
	Max time.Duration
	// Jitter spreads each delay by up to this fraction in both directions.
	Jitter float64
	// Retryable overrides the default classification.
	Retryable func(error) bool
}

// DefaultPolicy returns the policy used for connection checks.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: 3,
		Initial:  200 * time.Millisecond,
		Max:      5 * time.Second,
		Jitter:   0.2,
	}
}

func (p Policy) normalize() Policy {
	d := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = d.Attempts
	}
	if p.Initial <= 0 {
		p.Initial = d.Initial
	}
	if p.Max < p.Initial {
		p.Max = max(d.Max, p.Initial)
	}
	p.Jitter = min(max(p.Jitter, 0), 1)
	if p.Retryable == nil {
		p.Retryable = IsRetryable
	}
	return p
}

// Delay returns the wait after the given failed attempt, counted from 1.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.normalize()
	d := p.Initial
	for i := 1; i < attempt && d < p.Max; i++ {
		d *= 2
	}
	d = min(d, p.Max)
	if p.Jitter > 0 {
		spread := float64(d) * p.Jitter
		d = time.Duration(float64(d) - spread + rand.Float64()*2*spread)
	}
	return d
}

// ErrExhausted is matched by the error Do returns after the last attempt.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Error reports a failed retry loop. It unwraps to the last error.
type Error struct {
	Attempts int
	Last     error
	// exhausted is false when the loop stopped on a permanent error or a
	// done context.
	exhausted bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("retry: gave up after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *Error) Unwrap() error { return e.Last }

// Is matches ErrExhausted when every attempt was used.
func (e *Error) Is(target error) bool {
	return target == ErrExhausted && e.exhausted
}

// Do calls fn until it succeeds, fails permanently, the attempts run out
// or ctx is done. A single failed attempt returns fn's error unwrapped.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := Value(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value is Do for functions returning a result.
func Value[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalize()
	var zero T
	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !p.Retryable(err) || ctx.Err() != nil {
			if attempt == 1 {
				return zero, err
			}
			return zero, &Error{Attempts: attempt, Last: err}
		}
		if attempt >= p.Attempts {
			return zero, &Error{Attempts: attempt, Last: err, exhausted: true}
		}

		t := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, &Error{Attempts: attempt, Last: err}
		case <-t.C:
		}
	}
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err}
}

type permanent struct{ err error }

func (p *permanent) Error() string   { return p.err.Error() }
func (p *permanent) Unwrap() error   { return p.err }
func (p *permanent) Retryable() bool { return false }

// IsRetryable is the default classification. Context errors and errors
// marked Permanent are final; an error with a Retryable() bool method
// decides for itself; everything else is retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}
