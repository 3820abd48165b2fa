package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shaj13/libcache"
	_ "github.com/shaj13/libcache/lru"
)

const (
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
	CacheDriverNone   = "none"
)

// NewCountCache builds the cache named by driver, falling back to memory when Redis is absent.
func NewCountCache(driver string, redisClient *redis.Client, prefix string, capacity int) CountCache {
	switch driver {
	case CacheDriverNone:
		return NoopCountCache{}
	case CacheDriverRedis:
		if redisClient != nil {
			return NewRedisCountCache(redisClient, prefix)
		}
	}
	return NewMemoryCountCache(capacity)
}

type RedisCountCache struct {
	redis  *redis.Client
	prefix string
}

func NewRedisCountCache(redisClient *redis.Client, prefix string) *RedisCountCache {
	return &RedisCountCache{redis: redisClient, prefix: prefix}
}

func (c *RedisCountCache) Get(ctx context.Context, key string) (int64, bool, error) {
	value, err := c.redis.Get(ctx, c.prefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

func (c *RedisCountCache) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	return c.redis.Set(ctx, c.prefix+key, value, ttl).Err()
}

func (c *RedisCountCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = c.prefix + key
	}
	return c.redis.Del(ctx, prefixed...).Err()
}

// MemoryCountCache is an in-process LRU used when Redis is not configured.
type MemoryCountCache struct {
	cache libcache.Cache
}

func NewMemoryCountCache(capacity int) *MemoryCountCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryCountCache{cache: libcache.LRU.New(capacity)}
}

func (c *MemoryCountCache) Get(_ context.Context, key string) (int64, bool, error) {
	value, ok := c.cache.Load(key)
	if !ok {
		return 0, false, nil
	}
	count, ok := value.(int64)
	return count, ok, nil
}

func (c *MemoryCountCache) Set(_ context.Context, key string, value int64, ttl time.Duration) error {
	c.cache.StoreWithTTL(key, value, ttl)
	return nil
}

func (c *MemoryCountCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.cache.Delete(key)
	}
	return nil
}

// NoopCountCache never stores anything.
type NoopCountCache struct{}

func (NoopCountCache) Get(context.Context, string) (int64, bool, error)        { return 0, false, nil }
func (NoopCountCache) Set(context.Context, string, int64, time.Duration) error { return nil }
func (NoopCountCache) Delete(context.Context, ...string) error                 { return nil }
