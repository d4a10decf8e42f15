// Package redis implements Redis caching for the GameSphere scoring service:
// the leaderboard snapshot with its freshness flag, short-lived per-user
// stats snapshots, and the distributed lock the background jobs take.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned when the requested key is not in the cache.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection is returned when the initial ping fails.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization is returned when a payload fails to (de)serialize.
	ErrCacheSerialization = errors.New("cache: serialization failed")

	// ErrCacheKeyEmpty is returned when an empty key is provided.
	ErrCacheKeyEmpty = errors.New("cache: key cannot be empty")
)

// Key prefixes namespacing the service's Redis keys.
const (
	PrefixLeaderboard = "leaderboard:"
	PrefixStats       = "stats:"
	PrefixLock        = "lock:"
)

const (
	// TTLLeaderboardSnapshot bounds the snapshot payload. Deliberately
	// long: a stale payload is still useful as a rebuild hint.
	TTLLeaderboardSnapshot = 30 * time.Minute

	// TTLLeaderboardFresh bounds the freshness flag. After it expires the
	// snapshot is rebuilt from the database on the next read.
	TTLLeaderboardFresh = 5 * time.Minute

	// TTLStatsSnapshot bounds per-user stats snapshots.
	TTLStatsSnapshot = 2 * time.Minute

	// TTLDistributedLock is the default lock TTL for background rebuilds.
	TTLDistributedLock = 30 * time.Second
)

// Config holds Redis connection settings.
type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns production defaults for a local Redis.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the "host:port" form of the configured address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Cache wraps a Redis client with JSON serialization and the error
// vocabulary the rest of the service speaks.
type Cache struct {
	client *redis.Client
}

// NewCache connects to Redis and verifies the connection with a ping.
func NewCache(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return &Cache{client: client}, nil
}

// Ping checks that Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Set stores value as JSON under key with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// SetString stores a raw string value, no JSON round-trip.
func (c *Cache) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Get loads the JSON payload under key into dest. A missing key is
// ErrCacheMiss, not a transport error.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return nil
}

// Delete removes keys. Deleting absent keys is not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Exists reports whether key is present.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrCacheKeyEmpty
	}

	count, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetNX sets key only if absent. The distributed lock is built on it.
func (c *Cache) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrCacheKeyEmpty
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return c.client.SetNX(ctx, key, data, ttl).Result()
}

// LeaderboardSnapshotKey is the cache key for the leaderboard payload.
func LeaderboardSnapshotKey(version int) string {
	return fmt.Sprintf("%ssnapshot:v%d", PrefixLeaderboard, version)
}

// LeaderboardFreshKey derives the freshness flag key from a payload key.
func LeaderboardFreshKey(snapshotKey string) string {
	return snapshotKey + ":fresh"
}

// StatsKey is the cache key for a user's stats snapshot.
func StatsKey(userID string) string {
	return PrefixStats + userID
}

// LockKey is the cache key for a named distributed lock.
func LockKey(resource string) string {
	return PrefixLock + resource
}
