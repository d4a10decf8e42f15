package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNilSnapshot is returned when a nil snapshot is passed to SetSnapshot.
	ErrNilSnapshot = errors.New("leaderboard_cache: snapshot cannot be nil")
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache stores the full leaderboard snapshot in Redis.
//
// Architecture:
//   - String "leaderboard:snapshot:v{N}" holds the snapshot JSON payload
//   - String "leaderboard:snapshot:v{N}:fresh" is the freshness flag
//
// The two keys carry different TTLs. Invalidation deletes only the flag, so
// a stale payload survives and readers can tell FRESH from STALE from MISS.
// A rebuild writes the payload first and the flag second; if the process
// dies between the two writes the snapshot is simply treated as stale.
type LeaderboardCache struct {
	cache       *Cache
	snapshotTTL time.Duration
	freshTTL    time.Duration
}

// snapshotVersion bumps when the snapshot JSON layout changes, so old
// payloads from a previous deploy are never deserialized.
const snapshotVersion = 1

var _ leaderboard.Cache = (*LeaderboardCache)(nil)

// NewLeaderboardCacheWithTTL creates a LeaderboardCache with the given
// TTLs; non-positive values fall back to the package defaults.
func NewLeaderboardCacheWithTTL(cache *Cache, snapshotTTL, freshTTL time.Duration) *LeaderboardCache {
	if snapshotTTL <= 0 {
		snapshotTTL = TTLLeaderboardSnapshot
	}
	if freshTTL <= 0 {
		freshTTL = TTLLeaderboardFresh
	}
	return &LeaderboardCache{
		cache:       cache,
		snapshotTTL: snapshotTTL,
		freshTTL:    freshTTL,
	}
}

func (l *LeaderboardCache) snapshotKey() string {
	return LeaderboardSnapshotKey(snapshotVersion)
}

func (l *LeaderboardCache) freshKey() string {
	return LeaderboardFreshKey(l.snapshotKey())
}

// ══════════════════════════════════════════════════════════════════════════════
// READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetSnapshot returns the cached snapshot together with its freshness state.
//
// Returns:
//   - (snapshot, FreshnessFresh, nil) when the payload exists and the flag is set
//   - (snapshot, FreshnessStale, nil) when the payload exists without the flag
//   - (nil, FreshnessMiss, nil) when there is no payload at all
//   - (nil, FreshnessMiss, err) on a Redis or deserialization failure
func (l *LeaderboardCache) GetSnapshot(ctx context.Context) (*leaderboard.Snapshot, leaderboard.Freshness, error) {
	var snapshot leaderboard.Snapshot

	err := l.cache.Get(ctx, l.snapshotKey(), &snapshot)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, leaderboard.FreshnessMiss, nil
		}
		return nil, leaderboard.FreshnessMiss, fmt.Errorf("leaderboard_cache: get snapshot: %w", err)
	}

	fresh, err := l.cache.Exists(ctx, l.freshKey())
	if err != nil {
		// Payload is readable but the flag check failed: report the snapshot
		// as stale rather than losing it.
		return &snapshot, leaderboard.FreshnessStale, nil
	}

	if fresh {
		return &snapshot, leaderboard.FreshnessFresh, nil
	}
	return &snapshot, leaderboard.FreshnessStale, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// SetSnapshot stores a rebuilt snapshot and marks it fresh.
// The payload is written before the flag: partial writes degrade to STALE.
func (l *LeaderboardCache) SetSnapshot(ctx context.Context, snapshot *leaderboard.Snapshot, ttl time.Duration) error {
	if snapshot == nil {
		return ErrNilSnapshot
	}
	if ttl <= 0 {
		ttl = l.freshTTL
	}

	payloadTTL := l.snapshotTTL
	if payloadTTL < ttl {
		payloadTTL = ttl
	}

	if err := l.cache.Set(ctx, l.snapshotKey(), snapshot, payloadTTL); err != nil {
		return fmt.Errorf("leaderboard_cache: set snapshot: %w", err)
	}

	if err := l.cache.SetString(ctx, l.freshKey(), "1", ttl); err != nil {
		return fmt.Errorf("leaderboard_cache: set fresh flag: %w", err)
	}

	return nil
}

// Invalidate marks the cached snapshot stale by deleting the freshness flag.
// The payload is kept so readers can still inspect the previous ranking
// while a rebuild is in flight.
func (l *LeaderboardCache) Invalidate(ctx context.Context) error {
	if err := l.cache.Delete(ctx, l.freshKey()); err != nil {
		return fmt.Errorf("leaderboard_cache: invalidate: %w", err)
	}
	return nil
}

// Purge removes both the payload and the flag. Used by tests and by the
// admin rebuild endpoint when a full reset is requested.
func (l *LeaderboardCache) Purge(ctx context.Context) error {
	return l.cache.Delete(ctx, l.snapshotKey(), l.freshKey())
}
