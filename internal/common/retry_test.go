package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	opts := RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return NewTransportError(503, nil)
			}
			return nil
		}, opts)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return ErrTimeout
		}, opts)
		require.ErrorIs(t, err, ErrMaxRetries)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error returns at once", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return ErrAuthRequired
		}, opts)
		require.ErrorIs(t, err, ErrAuthRequired)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WithRetry(ctx, func() error {
			return ErrTimeout
		}, RetryOptions{MaxAttempts: 2, InitialDelay: time.Second})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
