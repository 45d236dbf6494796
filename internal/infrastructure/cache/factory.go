package cache

import (
	dashboardapp "github.com/corebank/backend/internal/application/dashboard"
	"github.com/corebank/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewAggregateCache creates the branch-day cache for the configured
// deployment. Redis is tried first so invalidations are shared across
// instances; when Redis is unreachable the cache falls back to process
// memory rather than disabling the read path. A disabled cache returns the
// nop implementation.
//
// WARNING: the in-memory fallback does not share invalidations across
// process instances, which can serve stale aggregates for up to one TTL in
// distributed deployments.
func NewAggregateCache(cfg *config.Config, logger *zap.Logger) dashboardapp.AggregateCache {
	if !cfg.Dashboard.CacheEnabled {
		return dashboardapp.NopAggregateCache{}
	}

	redisCache, err := NewRedisAggregateCache(cfg.Redis, cfg.Dashboard.CacheTTL, logger)
	if err != nil {
		logger.Warn("redis unavailable, falling back to in-memory aggregate cache",
			zap.Error(err))
		return NewInMemoryAggregateCache(cfg.Dashboard.CacheTTL)
	}

	logger.Info("using redis aggregate cache",
		zap.String("addr", cfg.Redis.Addr()),
		zap.Duration("ttl", cfg.Dashboard.CacheTTL))
	return redisCache
}
