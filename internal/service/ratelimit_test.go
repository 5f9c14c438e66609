package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	limiter := NewMemoryRateLimiter(5, 15*time.Minute)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.CheckLogin(ctx, "a@example.com|1.2.3.4"), "attempt %d", i+1)
	}
	assert.ErrorIs(t, limiter.CheckLogin(ctx, "a@example.com|1.2.3.4"), ErrTooManyAttempts)

	// Other keys are counted separately.
	assert.NoError(t, limiter.CheckLogin(ctx, "a@example.com|5.6.7.8"))

	now = now.Add(15 * time.Minute)
	assert.NoError(t, limiter.CheckLogin(ctx, "a@example.com|1.2.3.4"))
}

func TestMemoryRateLimiter_Reset(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryRateLimiter(1, time.Minute)

	require.NoError(t, limiter.CheckLogin(ctx, "k"))
	require.ErrorIs(t, limiter.CheckLogin(ctx, "k"), ErrTooManyAttempts)

	require.NoError(t, limiter.ResetAttempts(ctx, "k"))
	assert.NoError(t, limiter.CheckLogin(ctx, "k"))
}

func TestNewLoginLimiter(t *testing.T) {
	limiter, client, err := NewLoginLimiter("", 5, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.IsType(t, &MemoryRateLimiter{}, limiter)

	limiter, client, err = NewLoginLimiter("redis://localhost:6379/0", 5, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()
	assert.IsType(t, &RateLimiter{}, limiter)

	_, _, err = NewLoginLimiter("not a url", 5, time.Minute)
	assert.Error(t, err)
}

func TestMemoryRateLimiter_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryRateLimiter(5, time.Minute)
	limiter.now = func() time.Time { return now }

	require.NoError(t, limiter.CheckLogin(ctx, "a"))
	now = now.Add(30 * time.Second)
	require.NoError(t, limiter.CheckLogin(ctx, "b"))
	assert.Equal(t, 2, limiter.Sweep())

	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, limiter.Sweep())

	now = now.Add(time.Minute)
	assert.Equal(t, 0, limiter.Sweep())
}
