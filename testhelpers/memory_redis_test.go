package testhelpers

import (
	"context"
	"testing"
	"time"

	"natours/internal/caching"
	"natours/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRedis_ExpiresKeys(t *testing.T) {
	// Arrange
	ctx := context.Background()
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryRedis()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute).Err())

	// Act
	before, err := m.Get(ctx, "k").Result()
	require.NoError(t, err)
	now = now.Add(time.Minute)
	_, after := m.Get(ctx, "k").Result()

	// Assert
	assert.Equal(t, "v", before)
	assert.ErrorIs(t, after, redis.Nil)
}

func TestMemoryRedis_BacksCacheService(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := caching.NewCacheService(NewMemoryRedis())
	stats := []models.TourStats{{Difficulty: "EASY", NumTours: 4, AvgPrice: 1272}}

	// Act
	require.NoError(t, cache.SetTourStats(ctx, stats, time.Minute))
	cached, err := cache.GetTourStats(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.InvalidateTourCache(ctx))
	afterInvalidate, err := cache.GetTourStats(ctx)
	require.NoError(t, err)

	limited := make([]bool, 0, 3)
	for i := 0; i < 3; i++ {
		l, err := cache.IsRateLimited(ctx, "127.0.0.1", 2, time.Hour)
		require.NoError(t, err)
		limited = append(limited, l)
	}

	// Assert
	assert.Equal(t, stats, cached)
	assert.Nil(t, afterInvalidate)
	assert.Equal(t, []bool{false, false, true}, limited)
}
