// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique platform user identifier.
type UserID string

// User IDs are opaque platform identifiers: letters, digits, dashes and
// underscores, 1-64 characters.
var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)

// IsValid checks if the user ID format is valid.
func (u UserID) IsValid() bool {
	return userIDRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.TrimSpace(id))
	if !uid.IsValid() {
		return "", ErrInvalidUserID
	}
	return uid, nil
}

// AchievementID represents a catalog achievement identifier.
type AchievementID string

// Achievement IDs follow the catalog convention: SCREAMING_SNAKE_CASE.
var achievementIDRegex = regexp.MustCompile(`^[A-Z][A-Z0-9_]{2,63}$`)

// IsValid checks if the achievement ID format is valid.
func (a AchievementID) IsValid() bool {
	return achievementIDRegex.MatchString(string(a))
}

// String returns the string representation.
func (a AchievementID) String() string {
	return string(a)
}

// NewAchievementID creates a new AchievementID with validation.
func NewAchievementID(id string) (AchievementID, error) {
	aid := AchievementID(strings.TrimSpace(id))
	if !aid.IsValid() {
		return "", NewDomainError("shared", "NewAchievementID", ErrInvalidID, "invalid achievement ID format")
	}
	return aid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Points Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Points represents the score value attached to a single achievement.
type Points int64

// IsValid checks that the points value is non-negative.
func (p Points) IsValid() bool {
	return p >= 0
}

// Int64 returns the underlying int64 value.
func (p Points) Int64() int64 {
	return int64(p)
}

// NewPoints creates a new Points value with validation.
func NewPoints(amount int64) (Points, error) {
	if amount < 0 {
		return 0, ErrNegativePoints
	}
	return Points(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Score Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Score represents a user's accumulated total score.
type Score int64

// IsValid checks that the score is non-negative.
// Scores only grow by non-negative achievement points, so a negative
// total indicates corrupted data.
func (s Score) IsValid() bool {
	return s >= 0
}

// Int64 returns the underlying int64 value.
func (s Score) Int64() int64 {
	return int64(s)
}

// Add returns the score increased by the given points.
func (s Score) Add(p Points) Score {
	return s + Score(p)
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rank represents a user's position in the leaderboard.
type Rank int

const (
	MinRank  Rank = 1
	Unranked Rank = 0 // Not yet ranked
)

// IsValid checks if the rank is valid.
func (r Rank) IsValid() bool {
	return r >= MinRank
}

// Int returns the underlying int value.
func (r Rank) Int() int {
	return int(r)
}

// IsUnranked checks if the user is not yet ranked.
func (r Rank) IsUnranked() bool {
	return r == Unranked
}

// IsTop returns true if the rank is in the top N.
func (r Rank) IsTop(n int) bool {
	return r.IsValid() && int(r) <= n
}

// NewRank creates a new Rank with validation.
func NewRank(position int) (Rank, error) {
	if position < 0 {
		return Unranked, NewDomainError("shared", "NewRank", ErrNegativeValue, "rank cannot be negative")
	}
	return Rank(position), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Limit Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Limit bounds the number of entries a leaderboard read returns.
type Limit int

const (
	// DefaultLimit is used when the caller does not specify a limit.
	DefaultLimit Limit = 100
)

// IsValid checks if the limit is positive.
func (l Limit) IsValid() bool {
	return l > 0
}

// Int returns the underlying int value.
func (l Limit) Int() int {
	return int(l)
}

// NewLimit creates a new Limit with validation. Zero and negative values
// are rejected rather than defaulted: an explicit bad limit is a caller bug.
func NewLimit(n int) (Limit, error) {
	if n <= 0 {
		return 0, ErrInvalidLimit
	}
	return Limit(n), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Genre Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Genre represents a game genre label.
type Genre string

// Normalize returns the canonical form used for uniqueness comparison:
// trimmed and lowercased.
func (g Genre) Normalize() Genre {
	return Genre(strings.ToLower(strings.TrimSpace(string(g))))
}

// IsBlank checks if the genre carries no information after normalization.
func (g Genre) IsBlank() bool {
	return g.Normalize() == ""
}

// String returns the string representation.
func (g Genre) String() string {
	return string(g)
}

// ═══════════════════════════════════════════════════════════════════════════
// Action Value Object (request surface)
// ═══════════════════════════════════════════════════════════════════════════

// Action identifies an operation on the request surface.
type Action string

const (
	ActionGetLeaderboard    Action = "GET_LEADERBOARD"
	ActionCheckAchievements Action = "CHECK_ACHIEVEMENTS"
	ActionGetUserStats      Action = "GET_USER_STATS"
)

// IsValid checks if the action is one of the supported operations.
func (a Action) IsValid() bool {
	switch a {
	case ActionGetLeaderboard, ActionCheckAchievements, ActionGetUserStats:
		return true
	}
	return false
}

// String returns the string representation.
func (a Action) String() string {
	return string(a)
}

// NewAction parses an action string. Unknown actions are rejected with
// an "unsupported action" validation error.
func NewAction(value string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(value)))
	if !a.IsValid() {
		return "", WrapError("dispatch", "NewAction", ErrInvalidInput, fmt.Sprintf("unsupported action %q", value), ErrUnsupportedAction)
	}
	return a, nil
}
