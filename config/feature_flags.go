package config

import (
	"errors"
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Predefined feature flag names.
const (
	// FeatureLeaderboardCache gates serving leaderboard reads from the
	// cached snapshot. Disabled, every read goes straight to storage.
	FeatureLeaderboardCache = "leaderboard.cache"

	// FeatureStatsCache gates the per-user stats snapshot cache.
	FeatureStatsCache = "stats.cache"

	// FeatureAchievementSweep gates the nightly bulk achievement sweep.
	FeatureAchievementSweep = "scoring.sweep"

	// FeatureDispatchEndpoint gates the generic action dispatch endpoint.
	FeatureDispatchEndpoint = "api.dispatch"
)

var (
	ErrFeatureNotFound       = errors.New("feature not found")
	ErrInvalidRolloutPercent = errors.New("rollout percent must be 0-100")
)

// Feature is one toggle with optional gradual rollout.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// RolloutPercent (0-100) shards users into the feature by a
	// consistent hash of their ID.
	RolloutPercent int
}

// FeatureFlags manages feature toggles with gradual rollout support.
// Flags gate expensive or risky behavior (cache serving, background
// sweeps, the generic dispatch endpoint) so it can be shifted live
// without a redeploy.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// LoadFeatureFlags builds the flag set from defaults plus environment
// overrides. Accepted forms: FEATURE_LEADERBOARD_CACHE=true|false, or a
// bare percentage 0-100.
func LoadFeatureFlags() *FeatureFlags {
	defaults := []Feature{
		{Name: FeatureLeaderboardCache, Description: "Serve leaderboard reads from the cached snapshot"},
		{Name: FeatureStatsCache, Description: "Cache per-user stats snapshots"},
		{Name: FeatureAchievementSweep, Description: "Nightly bulk achievement sweep across all users"},
		{Name: FeatureDispatchEndpoint, Description: "Generic action dispatch endpoint"},
	}

	ff := &FeatureFlags{features: make(map[string]*Feature, len(defaults))}
	for _, def := range defaults {
		f := def
		f.Enabled = true
		f.RolloutPercent = 100
		applyEnvOverride(&f)
		ff.features[f.Name] = &f
	}
	return ff
}

func applyEnvOverride(f *Feature) {
	val := os.Getenv(envKeyFor(f.Name))
	if val == "" {
		return
	}

	if b, err := strconv.ParseBool(val); err == nil {
		f.Enabled = b
		f.RolloutPercent = 0
		if b {
			f.RolloutPercent = 100
		}
		return
	}

	if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
		f.Enabled = p > 0
		f.RolloutPercent = p
	}
}

// envKeyFor maps "leaderboard.cache" to "FEATURE_LEADERBOARD_CACHE".
func envKeyFor(name string) string {
	return "FEATURE_" + strings.ReplaceAll(strings.ToUpper(name), ".", "_")
}

// IsEnabled reports whether the feature is on for anyone at all.
func (ff *FeatureFlags) IsEnabled(featureName string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	f, ok := ff.features[featureName]
	return ok && f.Enabled && f.RolloutPercent > 0
}

// IsEnabledFor reports whether the feature is on for this user, honoring
// the rollout percentage. Users stay in their bucket across calls because
// the bucket is a consistent hash of user and feature.
func (ff *FeatureFlags) IsEnabledFor(featureName, userID string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	f, ok := ff.features[featureName]
	if !ok || !f.Enabled {
		return false
	}
	if f.RolloutPercent >= 100 {
		return true
	}
	if f.RolloutPercent <= 0 || userID == "" {
		return false
	}

	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	return int(h.Sum32()%100) < f.RolloutPercent
}

// SetRolloutPercent updates the rollout percentage live.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	ff.mu.Lock()
	defer ff.mu.Unlock()

	f, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	f.RolloutPercent = percent
	f.Enabled = percent > 0
	return nil
}

// EnableFeature turns a feature fully on.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature turns a feature fully off.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of every flag for the admin API.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for name, f := range ff.features {
		copied := *f
		result[name] = &copied
	}
	return result
}
