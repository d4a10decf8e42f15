// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds. Every DomainError carries one of these so callers
// can classify failures with errors.Is without knowing the domain.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrServiceUnavailable     = errors.New("service unavailable")
)

// DomainError carries the domain, the failed operation, and a base kind
// for classification.
type DomainError struct {
	Domain  string // "achievement", "leaderboard", "scoring"
	Op      string // operation that failed, "Evaluate", "IncrementScore"
	Kind    error  // base error kind for errors.Is
	Message string
	Err     error // underlying cause, optional
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches against both the kind and the underlying cause.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// NewDomainError creates a domain error without an underlying cause.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError attaches domain context to an existing error.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// Profile domain errors
var (
	ErrProfileNotFound = NewDomainError("profile", "Find", ErrNotFound, "user profile not found")
	ErrInvalidUserID   = NewDomainError("profile", "Validate", ErrInvalidID, "invalid user ID")
)

// Achievement domain errors
var (
	ErrAchievementNotFound = NewDomainError("achievement", "Find", ErrNotFound, "achievement not found")
	ErrDuplicateDefinition = NewDomainError("achievement", "BuildCatalog", ErrAlreadyExists, "duplicate achievement ID in catalog")
	ErrUnknownMetric       = NewDomainError("achievement", "Validate", ErrInvalidInput, "unknown threshold metric")
	ErrInvalidThreshold    = NewDomainError("achievement", "Validate", ErrValueOutOfRange, "threshold must be at least 1")
	ErrNegativePoints      = NewDomainError("achievement", "Validate", ErrNegativeValue, "points cannot be negative")
)

// Scoring domain errors
var (
	ErrNegativeDelta = NewDomainError("scoring", "IncrementScore", ErrNegativeValue, "score delta cannot be negative")
)

// Leaderboard domain errors
var (
	ErrInvalidLimit = NewDomainError("leaderboard", "Validate", ErrInvalidInput, "limit must be positive")
)

// Request surface errors
var (
	ErrUnsupportedAction = NewDomainError("dispatch", "Route", ErrInvalidInput, "unsupported action")
)

// IsNotFound reports whether err means the entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err stems from bad input. Validation
// failures are terminal, retrying cannot fix the request.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsConflict reports a concurrency conflict on a write.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsUnavailable reports a temporarily unreachable dependency.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsRetryable reports whether the operation may succeed on retry.
// Conflicts and unavailable dependencies are transient.
func IsRetryable(err error) bool {
	return IsConflict(err) || IsUnavailable(err)
}
