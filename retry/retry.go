// Package retry executes fallible operations with exponential backoff.
//
// Errors are considered transient and retryable by default. Callers wrap
// failures that retrying cannot fix (bad credentials, malformed input)
// with [MarkPermanent] so they propagate after a single attempt. When the
// attempt budget runs out, [Do] returns an [*ExhaustedError] wrapping the
// last transient error.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/metricmail-ai/metricmail/slogger"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseWait    = 1 * time.Second
	DefaultMaxWait     = 60 * time.Second
)

// Func is an operation that may be retried.
type Func func() error

// Option configures a single Do invocation.
type Option func(*executor)

// WithMaxAttempts sets the total number of attempts, including the first.
// Values below one are treated as one.
func WithMaxAttempts(n int) Option {
	return func(e *executor) {
		e.maxAttempts = n
	}
}

// WithBaseWait sets the wait before the second attempt. Subsequent waits
// double until they reach the maximum.
func WithBaseWait(d time.Duration) Option {
	return func(e *executor) {
		e.baseWait = d
	}
}

// WithMaxWait caps the backoff wait between attempts.
func WithMaxWait(d time.Duration) Option {
	return func(e *executor) {
		e.maxWait = d
	}
}

// WithJitter adds up to fraction*wait of random extra delay to each
// backoff. The jittered wait never exceeds the configured maximum.
func WithJitter(fraction float64) Option {
	return func(e *executor) {
		e.jitter = fraction
	}
}

// WithOnRetry registers an observational hook invoked after each failed
// attempt that will be retried. It must not affect control flow.
func WithOnRetry(fn func(attempt int, wait time.Duration, err error)) Option {
	return func(e *executor) {
		e.onRetry = fn
	}
}

// WithLogger sets a logger used to record each retried attempt.
func WithLogger(logger slogger.Logger) Option {
	return func(e *executor) {
		e.logger = logger
	}
}

// withSleep overrides how the executor waits between attempts. Used in tests.
func withSleep(fn func(context.Context, time.Duration) error) Option {
	return func(e *executor) {
		e.sleep = fn
	}
}

type executor struct {
	maxAttempts int
	baseWait    time.Duration
	maxWait     time.Duration
	jitter      float64
	onRetry     func(int, time.Duration, error)
	logger      slogger.Logger
	sleep       func(context.Context, time.Duration) error
}

// Do invokes fn until it succeeds, fails permanently, or the attempt
// budget is exhausted. Between attempts it sleeps
// min(baseWait * 2^(attempt-1), maxWait). The context is consulted
// before each attempt and during the backoff sleep; a running attempt is
// never interrupted, so attempt counting stays deterministic.
func Do(ctx context.Context, fn Func, opts ...Option) error {
	e := &executor{
		maxAttempts: DefaultMaxAttempts,
		baseWait:    DefaultBaseWait,
		maxWait:     DefaultMaxWait,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxAttempts < 1 {
		e.maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return err
		}
		lastErr = err
		if attempt == e.maxAttempts {
			break
		}
		wait := e.wait(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, wait, err)
		}
		if e.logger != nil {
			e.logger.Warn("operation failed, retrying",
				"attempt", attempt,
				"max_attempts", e.maxAttempts,
				"wait", wait.String(),
				"error", err)
		}
		if err := e.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return &ExhaustedError{Err: lastErr, Attempts: e.maxAttempts}
}

// wait returns the backoff that follows the given failed attempt.
func (e *executor) wait(attempt int) time.Duration {
	wait := time.Duration(float64(e.baseWait) * math.Pow(2, float64(attempt-1)))
	if wait > e.maxWait {
		wait = e.maxWait
	}
	if e.jitter > 0 {
		wait += time.Duration(rand.Float64() * e.jitter * float64(wait))
		if wait > e.maxWait {
			wait = e.maxWait
		}
	}
	return wait
}

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

// ExhaustedError reports that every attempt failed with a transient error.
type ExhaustedError struct {
	Err      error
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %s", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// MarkPermanent wraps err so that Do will not retry it. The wrapper
// preserves the error text and supports errors.Is and errors.As.
func MarkPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with MarkPermanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
