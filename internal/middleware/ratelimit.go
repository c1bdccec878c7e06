package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimiter decides whether a keyed request may proceed
type RateLimiter interface {
	Allow(key string) bool
}

// RedisRateLimiter is a fixed-window counter backed by Redis. It fails open:
// if Redis is unreachable the request goes through.
type RedisRateLimiter struct {
	client  *redis.Client
	prefix  string
	limit   int
	window  time.Duration
	timeout time.Duration
}

// NewRedisRateLimiter constructs a Redis-backed rate limiter
func NewRedisRateLimiter(addr, password string, db, limit int, window time.Duration) (*RedisRateLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRateLimiter{
		client:  client,
		prefix:  "daylog:ratelimit:",
		limit:   limit,
		window:  window,
		timeout: 250 * time.Millisecond,
	}, nil
}

// Allow reports whether the key is inside its window budget
func (rl *RedisRateLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		log.Warn().Err(err).Msg("Rate limiter incr failed, allowing request")
		return true
	}
	if counter == 1 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			log.Warn().Err(err).Msg("Rate limiter expire failed")
		}
	}
	return int(counter) <= rl.limit
}

// Close releases the Redis connection
func (rl *RedisRateLimiter) Close() {
	_ = rl.client.Close()
}

// RateLimit limits authenticated requests per user. A nil limiter disables
// limiting entirely.
func RateLimit(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(userID) {
				respondError(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
