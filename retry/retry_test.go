package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noSleep records requested waits without sleeping.
func noSleep(waits *[]time.Duration) Option {
	return withSleep(func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	})
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	ctx := context.Background()
	var waits []time.Duration
	count := 0
	err := Do(ctx, func() error {
		count++
		return nil
	}, noSleep(&waits))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Empty(t, waits, "success must not delay")
}

func TestDoExhaustsAttempts(t *testing.T) {
	ctx := context.Background()
	var waits []time.Duration
	count := 0
	err := Do(ctx, func() error {
		count++
		return errors.New("connection reset")
	}, WithMaxAttempts(3), noSleep(&waits))

	require.Error(t, err)
	assert.Equal(t, 3, count)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, "connection reset", exhausted.Err.Error())
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, waits)
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	ctx := context.Background()
	var waits []time.Duration
	count := 0
	err := Do(ctx, func() error {
		count++
		if count < 3 {
			return errors.New("rate limited")
		}
		return nil
	}, WithMaxAttempts(5), noSleep(&waits))

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, waits, 2)
}

func TestDoPermanentErrorStopsImmediately(t *testing.T) {
	ctx := context.Background()
	var waits []time.Duration
	authErr := errors.New("authentication failed")
	count := 0
	err := Do(ctx, func() error {
		count++
		return MarkPermanent(authErr)
	}, WithMaxAttempts(5), noSleep(&waits))

	require.Error(t, err)
	assert.Equal(t, 1, count)
	assert.Empty(t, waits, "permanent failure must not delay")
	assert.ErrorIs(t, err, authErr)
	assert.Equal(t, "authentication failed", err.Error())
}

func TestDoBackoffSequence(t *testing.T) {
	ctx := context.Background()
	var waits []time.Duration
	err := Do(ctx, func() error {
		return errors.New("unavailable")
	},
		WithMaxAttempts(7),
		WithBaseWait(1*time.Second),
		WithMaxWait(10*time.Second),
		noSleep(&waits),
	)

	require.Error(t, err)
	expected := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	assert.Equal(t, expected, waits)
}

func TestDoJitterRespectsCeiling(t *testing.T) {
	ctx := context.Background()
	var waits []time.Duration
	err := Do(ctx, func() error {
		return errors.New("unavailable")
	},
		WithMaxAttempts(6),
		WithBaseWait(1*time.Second),
		WithMaxWait(4*time.Second),
		WithJitter(0.5),
		noSleep(&waits),
	)

	require.Error(t, err)
	require.Len(t, waits, 5)
	for i, w := range waits {
		assert.LessOrEqual(t, w, 4*time.Second, "wait %d exceeds ceiling", i)
	}
}

func TestDoOnRetryHook(t *testing.T) {
	ctx := context.Background()
	var attempts []int
	var hookWaits []time.Duration
	var waits []time.Duration
	err := Do(ctx, func() error {
		return errors.New("flaky")
	},
		WithMaxAttempts(3),
		WithOnRetry(func(attempt int, wait time.Duration, err error) {
			attempts = append(attempts, attempt)
			hookWaits = append(hookWaits, wait)
			assert.EqualError(t, err, "flaky")
		}),
		noSleep(&waits),
	)

	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
	assert.Equal(t, waits, hookWaits)
}

func TestDoContextCancellationDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	err := Do(ctx, func() error {
		count++
		cancel()
		return errors.New("flaky")
	}, WithMaxAttempts(5), WithBaseWait(10*time.Millisecond))

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, count)
}

func TestDoContextAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	count := 0
	err := Do(ctx, func() error {
		count++
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, count)
}

func TestDoIdempotentAcrossInvocations(t *testing.T) {
	ctx := context.Background()
	fn := func() error { return nil }
	require.NoError(t, Do(ctx, fn))
	require.NoError(t, Do(ctx, fn))
}

func TestDoDefaultsAndClamping(t *testing.T) {
	ctx := context.Background()
	var waits []time.Duration
	count := 0
	err := Do(ctx, func() error {
		count++
		return errors.New("flaky")
	}, WithMaxAttempts(0), noSleep(&waits))

	require.Error(t, err)
	assert.Equal(t, 1, count, "max attempts below one clamps to one")

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 1, exhausted.Attempts)
}

func TestMarkPermanent(t *testing.T) {
	assert.Nil(t, MarkPermanent(nil))
	assert.False(t, IsPermanent(nil))
	assert.False(t, IsPermanent(errors.New("plain")))

	inner := errors.New("forbidden")
	marked := MarkPermanent(inner)
	assert.True(t, IsPermanent(marked))
	assert.ErrorIs(t, marked, inner)
	assert.Equal(t, "forbidden", marked.Error())

	// Marking survives further wrapping.
	wrapped := errors.Join(errors.New("context"), marked)
	assert.True(t, IsPermanent(wrapped))
}

func TestExhaustedErrorMessage(t *testing.T) {
	err := &ExhaustedError{Err: errors.New("timeout"), Attempts: 4}
	assert.Equal(t, "retries exhausted after 4 attempts: timeout", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "timeout")
}
