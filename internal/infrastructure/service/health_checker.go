package service

import (
	"context"
	"errors"

	"github.com/gamesphere/gamesphere-scoring/internal/infrastructure/persistence/postgres"
	"github.com/gamesphere/gamesphere-scoring/internal/infrastructure/persistence/redis"
)

// ErrCacheDisabled is reported when the health check runs without Redis.
var ErrCacheDisabled = errors.New("cache disabled")

// HealthChecker probes the backing services. The database is required
// for the service to function; the cache is optional.
type HealthChecker struct {
	db    *postgres.Connection
	cache *redis.Cache
}

// NewHealthChecker creates a HealthChecker. cache may be nil.
func NewHealthChecker(db *postgres.Connection, cache *redis.Cache) *HealthChecker {
	return &HealthChecker{db: db, cache: cache}
}

// CheckDatabase pings PostgreSQL.
func (h *HealthChecker) CheckDatabase(ctx context.Context) error {
	if h.db == nil {
		return errors.New("database not configured")
	}
	return h.db.Ping(ctx)
}

// CheckCache pings Redis.
func (h *HealthChecker) CheckCache(ctx context.Context) error {
	if h.cache == nil {
		return ErrCacheDisabled
	}
	return h.cache.Ping(ctx)
}
