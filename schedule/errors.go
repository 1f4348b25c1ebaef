/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Activity stores wrap these errors with additional context.

ERROR CATEGORIES:
  1. Validation errors  - malformed input, rejected before any write
  2. Capacity errors    - attendance ceiling reached (hard block)
  3. Conflict errors    - overlapping room-assigned reservations
  4. Not-found          - reported as a boolean by store methods, not an error

There is no fatal error class: at worst a save is rejected and the prior
state is retained. Persistence failures are handled at the storage adapter
boundary and never surface here.

USAGE:
  if errors.Is(err, schedule.ErrCapacityExceeded) { ... }

  var capErr *schedule.CapacityError
  if errors.As(err, &capErr) { show(capErr.Result.Message) }
*/
package schedule

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the base of every synchronous input rejection.
	ErrValidation = errors.New("validation failed")

	// ErrCapacityExceeded is returned when an attendance save would reach
	// or exceed the section ceiling. Overnight capacity never returns this.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrConflict is returned when a room-assigned reservation overlaps
	// another reservation in the same room.
	ErrConflict = errors.New("reservation conflict")

	// ErrInvalidPeriod is returned when a stay period is malformed
	// (check-out not after check-in).
	ErrInvalidPeriod = errors.New("invalid period: end must be after start")

	// ErrRosterFull is returned when registering a user beyond the ceiling.
	ErrRosterFull = errors.New("roster full")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError collects the human-readable reasons a record was rejected.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError returns nil when there are no reasons.
func NewValidationError(reasons []string) error {
	if len(reasons) == 0 {
		return nil
	}
	return &ValidationError{Reasons: reasons}
}

// CapacityError reports a hard capacity rejection. The UI is expected to
// surface Result.Message verbatim.
type CapacityError struct {
	Date    Date
	Section Section
	Result  CapacityResult
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s on %s (%s)", e.Result.Message, e.Date, e.Section)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// ConflictError reports an overlapping room-assigned reservation.
type ConflictError struct {
	RoomID string
	Period Period
	WithID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room %s already reserved in %s (conflicts with %s)",
		e.RoomID, e.Period, e.WithID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid client input,
// as opposed to an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrRosterFull)
}
