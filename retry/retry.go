// Package retry runs an operation until it succeeds, fails permanently, or
// runs out of attempts, waiting an exponentially growing delay in between.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Policy struct {
	// MaxAttempts includes the first call. Values below 1 are treated as 1.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration
	// Multiplier grows the delay after each failed attempt.
	Multiplier float64
	// Retryable reports whether err is worth another attempt. Nil retries every error.
	Retryable func(err error) bool
}

// Default is 3 attempts, waiting 1s then 2s.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2,
	}
}

type Option func(*options)

type options struct {
	notify func(attempt int, err error, delay time.Duration)
	timer  backoff.Timer
}

// WithNotify is called after each failed attempt that will be retried.
func WithNotify(f func(attempt int, err error, delay time.Duration)) Option {
	return func(o *options) {
		o.notify = f
	}
}

// WithTimer replaces the timer used to wait between attempts.
func WithTimer(t backoff.Timer) Option {
	return func(o *options) {
		o.timer = t
	}
}

func (p Policy) backOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.BaseDelay
	eb.Multiplier = p.Multiplier
	if eb.Multiplier < 1 {
		eb.Multiplier = 1
	}
	eb.RandomizationFactor = 0
	eb.MaxInterval = time.Duration(math.MaxInt64)
	eb.MaxElapsedTime = 0
	return eb
}

// Do calls op until it returns nil, returns a non-retryable error, or
// MaxAttempts is reached. It returns the number of attempts made and the
// last error.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) (attempts int, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	maxAttempts := max(p.MaxAttempts, 1)

	operation := func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		if o.notify != nil {
			o.notify(attempts, err, delay)
		}
	}

	if maxAttempts == 1 {
		err = operation()
		return attempts, unwrapPermanent(err)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(p.backOff(), uint64(maxAttempts-1)), ctx)
	err = backoff.RetryNotifyWithTimer(operation, b, notify, o.timer)
	return attempts, err
}

func unwrapPermanent(err error) error {
	if pe, ok := err.(*backoff.PermanentError); ok {
		return pe.Err
	}
	return err
}
