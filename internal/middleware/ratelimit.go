package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"natours/internal/caching"
	"natours/internal/common"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const rateLimitTimeout = 500 * time.Millisecond

// RedisRateLimiterStore counts requests per identifier in fixed Redis windows.
// It implements echo's RateLimiterStore and lets traffic through when Redis
// is unreachable.
type RedisRateLimiterStore struct {
	cache  caching.CacheService
	limit  int
	window time.Duration
}

func NewRedisRateLimiterStore(cache caching.CacheService, limit int, window time.Duration) *RedisRateLimiterStore {
	return &RedisRateLimiterStore{cache: cache, limit: limit, window: window}
}

func (s *RedisRateLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rateLimitTimeout)
	defer cancel()

	limited, err := s.cache.IsRateLimited(ctx, identifier, s.limit, s.window)
	if err != nil {
		log.Printf("WARN: rate limiter unavailable, allowing request: %v", err)
		return true, nil
	}
	return !limited, nil
}

// RateLimit limits requests per client IP
func RateLimit(store echomw.RateLimiterStore) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return common.NewAppError("Too many request from this IP, please try again in an hour", http.StatusTooManyRequests)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return common.NewAppError("Too many request from this IP, please try again in an hour", http.StatusTooManyRequests)
		},
	})
}
