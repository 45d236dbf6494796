package cache

import (
	"context"
	"sync"
	"time"

	"github.com/corebank/backend/internal/domain/dashboard"
)

// InMemoryAggregateCache caches branch-day point lookups in process memory.
// Suitable for single-instance deployments and tests; distributed
// deployments should use RedisAggregateCache so invalidations are shared.
type InMemoryAggregateCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
	ttl     time.Duration
}

type inMemoryEntry struct {
	aggregate dashboard.DailyBranchAggregate
	expiresAt time.Time
}

// NewInMemoryAggregateCache creates an in-process aggregate cache
func NewInMemoryAggregateCache(ttl time.Duration) *InMemoryAggregateCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &InMemoryAggregateCache{
		entries: make(map[string]inMemoryEntry),
		ttl:     ttl,
	}
}

// Get returns the cached aggregate for a branch and day, if present and fresh
func (c *InMemoryAggregateCache) Get(ctx context.Context, branchID string, date time.Time) (*dashboard.DailyBranchAggregate, bool) {
	c.mu.RLock()
	entry, ok := c.entries[c.key(branchID, date)]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}

	aggregate := entry.aggregate
	return &aggregate, true
}

// Set stores a copy of the aggregate under its branch and day
func (c *InMemoryAggregateCache) Set(ctx context.Context, agg *dashboard.DailyBranchAggregate) {
	if agg == nil {
		return
	}

	c.mu.Lock()
	c.entries[c.key(agg.BranchID.String(), agg.Date)] = inMemoryEntry{
		aggregate: *agg,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate removes the cached aggregate for a branch and day
func (c *InMemoryAggregateCache) Invalidate(ctx context.Context, branchID string, date time.Time) {
	c.mu.Lock()
	delete(c.entries, c.key(branchID, date))
	c.mu.Unlock()
}

func (c *InMemoryAggregateCache) key(branchID string, date time.Time) string {
	return branchID + ":" + dashboard.DayOf(date).Format("2006-01-02")
}
