package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corebank/backend/internal/domain/dashboard"
	"github.com/corebank/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "dashboard:branchday:"

// RedisAggregateCache caches branch-day point lookups in Redis.
// This is suitable for distributed deployments where multiple instances
// serve the dashboard read path. The cache is best-effort: every failure
// degrades to a database read, never to an error.
type RedisAggregateCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRedisAggregateCache creates a Redis-backed aggregate cache
func NewRedisAggregateCache(cfg config.RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisAggregateCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisAggregateCacheWithClient(client, ttl, logger), nil
}

// NewRedisAggregateCacheWithClient creates a cache with an existing Redis
// client. This is useful for testing or when sharing a client across
// components.
func NewRedisAggregateCacheWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisAggregateCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisAggregateCache{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

// Get returns the cached aggregate for a branch and day, if present
func (c *RedisAggregateCache) Get(ctx context.Context, branchID string, date time.Time) (*dashboard.DailyBranchAggregate, bool) {
	data, err := c.client.Get(ctx, c.key(branchID, date)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("aggregate cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var aggregate dashboard.DailyBranchAggregate
	if err := json.Unmarshal(data, &aggregate); err != nil {
		c.logger.Warn("aggregate cache entry is corrupt, treating as miss",
			zap.String("branch_id", branchID), zap.Error(err))
		return nil, false
	}
	return &aggregate, true
}

// Set stores an aggregate under its branch and day
func (c *RedisAggregateCache) Set(ctx context.Context, agg *dashboard.DailyBranchAggregate) {
	if agg == nil {
		return
	}

	data, err := json.Marshal(agg)
	if err != nil {
		c.logger.Warn("failed to encode aggregate for cache", zap.Error(err))
		return
	}

	key := c.key(agg.BranchID.String(), agg.Date)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("aggregate cache write failed", zap.Error(err))
	}
}

// Invalidate removes the cached aggregate for a branch and day
func (c *RedisAggregateCache) Invalidate(ctx context.Context, branchID string, date time.Time) {
	if err := c.client.Del(ctx, c.key(branchID, date)).Err(); err != nil {
		c.logger.Debug("aggregate cache invalidation failed", zap.Error(err))
	}
}

// Close closes the Redis client
func (c *RedisAggregateCache) Close() error {
	return c.client.Close()
}

func (c *RedisAggregateCache) key(branchID string, date time.Time) string {
	return c.keyPrefix + branchID + ":" + dashboard.DayOf(date).Format("2006-01-02")
}
