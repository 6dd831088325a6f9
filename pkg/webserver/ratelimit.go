package webserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/1mt4y/travelbuddy/pkg/config"
)

// RateLimiter decides whether the client identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

func newRateLimiter(cfg *config.SecurityConfig) (RateLimiter, error) {
	switch cfg.RateLimitDriver {
	case "", "memory":
		return newMemoryLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurstSize), nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		return newRedisLimiter(redis.NewClient(opts), cfg.RateLimitPerMinute+cfg.RateLimitBurstSize), nil
	default:
		return nil, fmt.Errorf("unsupported rate limit driver: %s", cfg.RateLimitDriver)
	}
}

// maxTrackedClients bounds the per-IP table; it is reset when exceeded.
const maxTrackedClients = 10000

// memoryLimiter keeps a token bucket per client in process memory.
type memoryLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newMemoryLimiter(perMinute, burst int) *memoryLimiter {
	return &memoryLimiter{
		limit:    rate.Limit(perMinute) / 60,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxTrackedClients {
			l.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter.Allow(), nil
}

// redisLimiter counts requests per client in fixed one-minute windows so
// that several API replicas share one budget.
type redisLimiter struct {
	client *redis.Client
	limit  int64
	now    func() time.Time
}

func newRedisLimiter(client *redis.Client, limit int) *redisLimiter {
	return &redisLimiter{client: client, limit: int64(limit), now: time.Now}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := l.now().Unix() / 60
	redisKey := fmt.Sprintf("travelbuddy:ratelimit:%s:%d", key, window)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}

	return incr.Val() <= l.limit, nil
}

func (l *redisLimiter) Close() error {
	return l.client.Close()
}
