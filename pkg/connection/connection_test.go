package connection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffSequence(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: time.Second, Max: 8 * time.Second, Jitter: -1})

	want := []time.Duration{1, 2, 4, 8, 8}
	for i, w := range want {
		assert.Equal(t, w*time.Second, b.Next(), "attempt %d", i)
	}
	assert.Equal(t, 5, b.Attempts())

	b.Reset()
	assert.Equal(t, time.Second, b.Current())
	assert.Zero(t, b.Attempts())
}

func TestBackoffJitter(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: 100 * time.Millisecond, Jitter: 0.5})
	for range 20 {
		d := b.Next()
		b.Reset()
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(BackoffConfig{})
	assert.Equal(t, InitialBackoff, b.Current())
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		Attempts: attempts,
		Backoff:  BackoffConfig{Initial: time.Millisecond, Max: 2 * time.Millisecond, Jitter: -1},
	}
}

func TestRetrySucceeds(t *testing.T) {
	calls := 0
	var retries []int
	cfg := fastRetry(5)
	cfg.OnRetry = func(attempt int, _ time.Duration, _ error) { retries = append(retries, attempt) }

	err := Retry(context.Background(), cfg, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	boom := errors.New("refused")
	err := Retry(context.Background(), fastRetry(3), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetrySingleAttempt(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), RetryConfig{}, func(context.Context) error {
		calls++
		return errors.New("refused")
	})
	assert.Equal(t, 1, calls)
}

func TestRetryPermanent(t *testing.T) {
	calls := 0
	boom := errors.New("bad address")
	err := Retry(context.Background(), fastRetry(5), func(context.Context) error {
		calls++
		return Permanent(boom)
	})
	assert.ErrorIs(t, err, ErrPermanent)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	boom := errors.New("refused")
	cfg := RetryConfig{Attempts: 10, Backoff: BackoffConfig{Initial: time.Hour}}

	err := Retry(ctx, cfg, func(context.Context) error {
		cancel()
		return boom
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, boom)
}

func TestRetryCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	boom := errors.New("refused")
	cfg := RetryConfig{Attempts: 10, Backoff: BackoffConfig{Initial: time.Hour}}

	err := Retry(ctx, cfg, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, boom)
}
