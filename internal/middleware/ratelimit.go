package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shotbook/shotbook-api/internal/pkg/logger"
	"github.com/shotbook/shotbook-api/internal/pkg/response"
)

// WindowCounter counts hits for a key inside a fixed window
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisWindowCounter is a WindowCounter backed by INCR + EXPIRE
type RedisWindowCounter struct {
	redis *redis.Client
}

// NewRedisWindowCounter returns nil when Redis is not configured
func NewRedisWindowCounter(client *redis.Client) WindowCounter {
	if client == nil {
		return nil
	}
	return &RedisWindowCounter{redis: client}
}

func (c *RedisWindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := c.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		c.redis.Expire(ctx, key, window)
	}
	return count, nil
}

// RateLimit limits requests per client IP, taken from r.RemoteAddr. Forwarded
// headers are only honored through TrustedRealIP. A nil counter disables it,
// and counter errors fail open.
func RateLimit(counter WindowCounter, scope string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if counter == nil || limit <= 0 {
			return next
		}
		if window < time.Second {
			window = time.Second
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket := time.Now().Unix() / int64(window.Seconds())
			key := fmt.Sprintf("ratelimit:%s:%s:%d", scope, PeerIP(r), bucket)

			count, err := counter.Hit(r.Context(), key, window)
			if err != nil {
				logger.LogWarn(r.Context(), "rate limiter unavailable", "scope", scope, "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				response.TooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
