package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCountCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCountCache(8)

	_, ok, err := cache.Get(ctx, "order_count:pending")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "order_count:pending", 3, time.Hour))
	value, ok, err := cache.Get(ctx, "order_count:pending")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), value)

	require.NoError(t, cache.Delete(ctx, "order_count:pending", "order_count:missing"))
	_, ok, _ = cache.Get(ctx, "order_count:pending")
	assert.False(t, ok)
}

func TestNoopCountCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	cache := NoopCountCache{}

	require.NoError(t, cache.Set(ctx, "k", 1, time.Hour))
	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewCountCacheSelectsDriver(t *testing.T) {
	assert.IsType(t, NoopCountCache{}, NewCountCache(CacheDriverNone, nil, "", 0))
	assert.IsType(t, &MemoryCountCache{}, NewCountCache(CacheDriverMemory, nil, "", 0))
	// Redis requested without a client degrades to memory.
	assert.IsType(t, &MemoryCountCache{}, NewCountCache(CacheDriverRedis, nil, "", 0))
}
