package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"natours/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "natours:"

// RedisClient is the subset of go-redis the cache relies on
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

type CacheService interface {
	// Tour aggregations
	GetTourStats(ctx context.Context) ([]models.TourStats, error)
	SetTourStats(ctx context.Context, stats []models.TourStats, ttl time.Duration) error
	GetMonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error)
	SetMonthlyPlan(ctx context.Context, year int, plan []models.MonthlyPlan, ttl time.Duration) error
	InvalidateTourCache(ctx context.Context) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Revoked access tokens
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client RedisClient
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

// NewCacheService wraps an existing client
func NewCacheService(client RedisClient) CacheService {
	return &redisCacheService{client: client}
}

func tourStatsKey() string {
	return keyPrefix + "tours:stats"
}

func monthlyPlanKey(year int) string {
	return fmt.Sprintf("%stours:plan:%d", keyPrefix, year)
}

func (r *redisCacheService) GetTourStats(ctx context.Context) ([]models.TourStats, error) {
	var stats []models.TourStats
	found, err := r.getJSON(ctx, tourStatsKey(), &stats)
	if err != nil || !found {
		return nil, err
	}
	return stats, nil
}

func (r *redisCacheService) SetTourStats(ctx context.Context, stats []models.TourStats, ttl time.Duration) error {
	return r.setJSON(ctx, tourStatsKey(), stats, ttl)
}

func (r *redisCacheService) GetMonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	var plan []models.MonthlyPlan
	found, err := r.getJSON(ctx, monthlyPlanKey(year), &plan)
	if err != nil || !found {
		return nil, err
	}
	return plan, nil
}

func (r *redisCacheService) SetMonthlyPlan(ctx context.Context, year int, plan []models.MonthlyPlan, ttl time.Duration) error {
	return r.setJSON(ctx, monthlyPlanKey(year), plan, ttl)
}

// InvalidateTourCache drops every cached tour aggregation
func (r *redisCacheService) InvalidateTourCache(ctx context.Context) error {
	keys, err := r.client.Keys(ctx, keyPrefix+"tours:*").Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

// IsRateLimited counts a hit for key and reports whether it exceeded limit within window
func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := keyPrefix + "ratelimit:" + key
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return false, err
	}

	// Set expiry on first request
	if count == 1 {
		if err := r.client.Expire(ctx, cacheKey, window).Err(); err != nil {
			return false, err
		}
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, keyPrefix+"revoked:"+tokenID, "1", ttl).Err()
}

func (r *redisCacheService) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+"revoked:"+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) getJSON(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}
