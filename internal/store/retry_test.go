package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	v, err := withRetry(context.Background(), "test", func() (int, error) {
		calls++
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RecoversAfterTransientFailure(t *testing.T) {
	old := retryBackoff
	retryBackoff = time.Millisecond
	defer func() { retryBackoff = old }()

	calls := 0
	v, err := withRetry(context.Background(), "test", func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection dropped")
		}
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	old := retryBackoff
	retryBackoff = time.Millisecond
	defer func() { retryBackoff = old }()

	calls := 0
	boom := errors.New("still down")
	_, err := withRetry(context.Background(), "test", func() (int, error) {
		calls++
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, retryAttempts, calls)
}

func TestWithRetry_StopsOnContextCancel(t *testing.T) {
	old := retryBackoff
	retryBackoff = time.Minute
	defer func() { retryBackoff = old }()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := withRetry(ctx, "test", func() (int, error) {
			calls++
			return 0, errors.New("down")
		})
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("withRetry did not honor context cancellation")
	}
}
