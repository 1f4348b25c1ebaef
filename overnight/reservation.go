/*
Package overnight implements the overnight-stay ("tomari") reservation store.

PURPOSE:
  A reservation is a multi-night room stay: (user, room, check-in,
  check-out). Room assignment is optional - an unassigned reservation still
  counts toward the nightly ceiling of 9 but never conflicts with anything.

POLICY ASYMMETRY (kept deliberately):
  - Same-room overlap is a hard rejection: a physical room is exclusive.
  - The nightly ceiling is advisory: the save always proceeds, and every
    date at or above the ceiling is named in a warning. The ceiling is a
    staffing target, not a physical constraint.

SEE ALSO:
  - picker.go:  the calendar-picker period-edit state machine
  - reconcile:  stay-implied attendance defaults and cascade deletion
*/
package overnight

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/careops/roster-engine/schedule"
)

// Status tracks the reservation lifecycle.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
)

// DayStatus describes a single date's position within a stay.
type DayStatus string

const (
	DayNone     DayStatus = ""
	DayCheckIn  DayStatus = "check-in"
	DayStay     DayStatus = "stay"
	DayCheckOut DayStatus = "check-out"
)

// =============================================================================
// RESERVATION
// =============================================================================

// Reservation is one stay. RoomID == "" means booked but not yet assigned
// to a physical room.
type Reservation struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	RoomID    string        `json:"roomId,omitempty"`
	StartDate schedule.Date `json:"startDate"`
	EndDate   schedule.Date `json:"endDate"`
	Status    Status        `json:"status"`
	Note      string        `json:"note,omitempty"`
}

func NewReservation(userID, roomID string, start, end schedule.Date) Reservation {
	return Reservation{
		ID:        newReservationID(start),
		UserID:    userID,
		RoomID:    roomID,
		StartDate: start,
		EndDate:   end,
		Status:    StatusPlanned,
	}
}

func newReservationID(start schedule.Date) string {
	return fmt.Sprintf("tomari_%04d%02d%02d_%s",
		start.Year(), start.Month(), start.Day(), uuid.NewString()[:8])
}

func (r Reservation) Period() schedule.Period {
	return schedule.Period{Start: r.StartDate, End: r.EndDate}
}

// Includes reports whether date falls within the stay, endpoints included.
func (r Reservation) Includes(date schedule.Date) bool {
	return r.Period().Contains(date)
}

// StatusForDate returns the date's position within the stay.
func (r Reservation) StatusForDate(date schedule.Date) DayStatus {
	switch {
	case !r.Includes(date):
		return DayNone
	case date.Equal(r.StartDate):
		return DayCheckIn
	case date.Equal(r.EndDate):
		return DayCheckOut
	default:
		return DayStay
	}
}

// Validate rejects malformed reservations. A stay is at least one night:
// check-out must be strictly after check-in.
func (r Reservation) Validate() error {
	var reasons []string
	if r.UserID == "" {
		reasons = append(reasons, "userId is required")
	}
	if r.StartDate.IsZero() {
		reasons = append(reasons, "startDate is required")
	}
	if r.EndDate.IsZero() {
		reasons = append(reasons, "endDate is required")
	}
	if err := schedule.NewValidationError(reasons); err != nil {
		return err
	}
	if !r.StartDate.Before(r.EndDate) {
		return schedule.ErrInvalidPeriod
	}
	return nil
}
