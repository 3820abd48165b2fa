package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"wccleanup/logger"
	"wccleanup/metrics"
	"wccleanup/repositories"
)

const orderCountKeyPrefix = "order_count:"

// extraStatusesKey holds how many unregistered statuses the last refresh found.
const extraStatusesKey = "_extras"

// orderCountCache wraps the injected CountCache with the keys order status counts live under.
// Cache failures are logged and treated as misses.
type orderCountCache struct {
	cache repositories.CountCache
	ttl   time.Duration

	mu   sync.Mutex
	seen map[string]struct{}
}

func newOrderCountCache(cache repositories.CountCache, ttl time.Duration) *orderCountCache {
	if cache == nil {
		cache = repositories.NoopCountCache{}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	seen := map[string]struct{}{extraStatusesKey: {}}
	for _, status := range registeredOrderStatuses {
		seen[status.id] = struct{}{}
	}
	return &orderCountCache{cache: cache, ttl: ttl, seen: seen}
}

func (c *orderCountCache) get(ctx context.Context, status string) (int64, bool) {
	value, ok, err := c.cache.Get(ctx, orderCountKeyPrefix+status)
	if err != nil {
		logger.Warnf("order count cache read failed for %s: %v", status, err)
		ok = false
	}
	if ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
	return value, ok
}

func (c *orderCountCache) set(ctx context.Context, status string, count int64) {
	c.mu.Lock()
	c.seen[status] = struct{}{}
	c.mu.Unlock()

	if err := c.cache.Set(ctx, orderCountKeyPrefix+status, count, c.ttl); err != nil {
		logger.Warnf("order count cache write failed for %s: %v", status, err)
	}
}

// evict drops every status count this process has cached or knows about.
func (c *orderCountCache) evict(ctx context.Context) {
	c.mu.Lock()
	keys := make([]string, 0, len(c.seen))
	for status := range c.seen {
		keys = append(keys, orderCountKeyPrefix+status)
	}
	c.mu.Unlock()

	if err := c.cache.Delete(ctx, keys...); err != nil {
		logger.Warnf("order count cache eviction failed: %v", err)
	}
}

// extraStatuses lists the unregistered statuses this process has cached, sorted.
func (c *orderCountCache) extraStatuses() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	extras := make([]string, 0)
	for status := range c.seen {
		if status == extraStatusesKey || isRegisteredOrderStatus(status) {
			continue
		}
		extras = append(extras, status)
	}
	sort.Strings(extras)
	return extras
}

// forget drops statuses that no longer exist in storage.
func (c *orderCountCache) forget(ctx context.Context, statuses []string) {
	if len(statuses) == 0 {
		return
	}
	keys := make([]string, 0, len(statuses))
	c.mu.Lock()
	for _, status := range statuses {
		delete(c.seen, status)
		keys = append(keys, orderCountKeyPrefix+status)
	}
	c.mu.Unlock()

	if err := c.cache.Delete(ctx, keys...); err != nil {
		logger.Warnf("order count cache eviction failed: %v", err)
	}
}
