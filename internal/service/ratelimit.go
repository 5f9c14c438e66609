package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrTooManyAttempts = errors.New("too many attempts")

// LoginLimiter counts login attempts per key inside a fixed window.
type LoginLimiter interface {
	CheckLogin(ctx context.Context, key string) error
	ResetAttempts(ctx context.Context, key string) error
}

type RateLimiter struct {
	redis       *redis.Client
	maxAttempts int
	window      time.Duration
}

func NewRateLimiter(redis *redis.Client, maxAttempts int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:       redis,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func (r *RateLimiter) CheckLogin(ctx context.Context, key string) error {
	redisKey := fmt.Sprintf("login_attempts:%s", key)

	count, err := r.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return err
	}

	if count == 1 {
		r.redis.Expire(ctx, redisKey, r.window)
	}

	if count > int64(r.maxAttempts) {
		return ErrTooManyAttempts
	}

	return nil
}

func (r *RateLimiter) ResetAttempts(ctx context.Context, key string) error {
	return r.redis.Del(ctx, fmt.Sprintf("login_attempts:%s", key)).Err()
}

// MemoryRateLimiter is the single-process fallback used when no Redis URL
// is configured.
type MemoryRateLimiter struct {
	mu          sync.Mutex
	attempts    map[string]attemptWindow
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

type attemptWindow struct {
	count   int
	expires time.Time
}

func NewMemoryRateLimiter(maxAttempts int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		attempts:    make(map[string]attemptWindow),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

func (r *MemoryRateLimiter) CheckLogin(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.attempts[key]
	if !ok || !now.Before(w.expires) {
		w = attemptWindow{expires: now.Add(r.window)}
	}
	w.count++
	r.attempts[key] = w

	if len(r.attempts) > 10000 {
		r.evict(now)
	}

	if w.count > r.maxAttempts {
		return ErrTooManyAttempts
	}
	return nil
}

func (r *MemoryRateLimiter) ResetAttempts(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.attempts, key)
	return nil
}

// Sweep drops every expired window and returns how many remain.
func (r *MemoryRateLimiter) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evict(r.now())
	return len(r.attempts)
}

func (r *MemoryRateLimiter) evict(now time.Time) {
	for key, w := range r.attempts {
		if !now.Before(w.expires) {
			delete(r.attempts, key)
		}
	}
}

// NewLoginLimiter returns the Redis limiter when a URL is configured.
func NewLoginLimiter(redisURL string, maxAttempts int, window time.Duration) (LoginLimiter, *redis.Client, error) {
	if redisURL == "" {
		return NewMemoryRateLimiter(maxAttempts, window), nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	return NewRateLimiter(client, maxAttempts, window), client, nil
}
