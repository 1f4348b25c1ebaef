/*
Package attendance implements the day-attendance ("kayoi") schedule store.

PURPOSE:
  One entry per (user, date) holds the single-state section for that day:
  full-day, half-morning, half-afternoon, or the explicit-empty marker. This
  package owns all capacity-relevant data and answers the occupancy queries
  the capacity policy is defined over.

CAPACITY MODEL:
  Each half-day pool has a ceiling of 15. A full-day entry occupies a seat
  in BOTH pools but is charged against whichever pool is more constrained,
  never double-charged toward the headline count.

WRITE PATHS:
  - Save():        the dialog path. Validates, checks the user exists, and
                   hard-blocks at/over the ceiling. No partial write.
  - SetExplicit(): the quick-toggle path. Writes unconditionally, no
                   capacity gate. The asymmetry is deliberate and kept:
                   the toggle is used for rapid marking during roll call,
                   and the summary banding still surfaces any overage.
  - ClearExplicit(): records the explicit-empty marker.
  - Delete():      removes the record entirely (used by the overnight
                   cascade), restoring stay-implied defaults.

SEE ALSO:
  - reconcile: combines these entries with overnight stays for display
  - summary:   folds per-date counts into the daily summary
*/
package attendance

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careops/roster-engine/schedule"
)

// Transport identifies who handles a pickup or dropoff leg.
type Transport string

const (
	TransportStaff  Transport = "staff"
	TransportFamily Transport = "family"
)

func (t Transport) Valid() bool { return t == TransportStaff || t == TransportFamily }

// MaxNoteLength bounds the free-text note.
const MaxNoteLength = 100

// =============================================================================
// ENTRY
// =============================================================================

// Entry is the attendance record for one user on one day. Section ==
// schedule.SectionNone means the cell was explicitly cleared; the absence of
// an Entry altogether means "no record", which lets an overnight stay imply
// a full-day default.
type Entry struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Date      schedule.Date    `json:"date"`
	Section   schedule.Section `json:"section"`
	PickupBy  Transport        `json:"pickupBy"`
	DropoffBy Transport        `json:"dropoffBy"`
	Note      string           `json:"note,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// NewEntry builds an entry with defaults: staff transport both ways.
func NewEntry(userID string, date schedule.Date, section schedule.Section) Entry {
	return Entry{
		ID:        newEntryID(date),
		UserID:    userID,
		Date:      date,
		Section:   section,
		PickupBy:  TransportStaff,
		DropoffBy: TransportStaff,
		UpdatedAt: time.Now().UTC(),
	}
}

func newEntryID(date schedule.Date) string {
	return fmt.Sprintf("kayoi_%04d%02d%02d_%s",
		date.Year(), date.Month(), date.Day(), uuid.NewString()[:8])
}

// Validate rejects malformed entries with human-readable reasons.
func (e Entry) Validate() error {
	var reasons []string
	if e.UserID == "" {
		reasons = append(reasons, "userId is required")
	}
	if e.Date.IsZero() {
		reasons = append(reasons, "date is required")
	}
	if !e.Section.Known() {
		reasons = append(reasons, fmt.Sprintf("unknown section %q", e.Section))
	}
	if e.PickupBy != "" && !e.PickupBy.Valid() {
		reasons = append(reasons, `pickupBy must be "staff" or "family"`)
	}
	if e.DropoffBy != "" && !e.DropoffBy.Valid() {
		reasons = append(reasons, `dropoffBy must be "staff" or "family"`)
	}
	if len([]rune(e.Note)) > MaxNoteLength {
		reasons = append(reasons, fmt.Sprintf("note must be at most %d characters", MaxNoteLength))
	}
	return schedule.NewValidationError(reasons)
}
