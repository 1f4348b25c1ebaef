package overnight

import "github.com/careops/roster-engine/schedule"

// =============================================================================
// PICKER - Two-endpoint period selection on a calendar
// =============================================================================

// PickerMode distinguishes creating a new stay from editing an existing one.
type PickerMode string

const (
	ModeAdd  PickerMode = "add"
	ModeEdit PickerMode = "edit"
)

// Picker is the calendar-picker period-edit state machine. It starts
// anchored on the clicked origin date; clicks move it to ranged and then
// re-anchor whichever endpoint is nearer. The picker owns its state
// explicitly - nothing here touches the stores until the caller confirms.
type Picker struct {
	Mode   PickerMode
	UserID string
	Origin schedule.Date

	checkIn  schedule.Date
	checkOut schedule.Date

	// Prior endpoints, kept so a clear can be restored before confirming.
	originalIn  schedule.Date
	originalOut schedule.Date

	reservationID string
	cleared       bool
}

// NewPicker opens the picker in add mode, anchored on origin with no range.
func NewPicker(userID string, origin schedule.Date) *Picker {
	return &Picker{Mode: ModeAdd, UserID: userID, Origin: origin}
}

// EditPicker opens the picker in edit mode over an existing reservation,
// ranged from the start.
func EditPicker(r Reservation, origin schedule.Date) *Picker {
	return &Picker{
		Mode:          ModeEdit,
		UserID:        r.UserID,
		Origin:        origin,
		checkIn:       r.StartDate,
		checkOut:      r.EndDate,
		originalIn:    r.StartDate,
		originalOut:   r.EndDate,
		reservationID: r.ID,
	}
}

// Ranged reports whether both endpoints are set.
func (p *Picker) Ranged() bool { return !p.checkIn.IsZero() && !p.checkOut.IsZero() }

// Range returns the current endpoints; ok is false while still anchored.
func (p *Picker) Range() (checkIn, checkOut schedule.Date, ok bool) {
	return p.checkIn, p.checkOut, p.Ranged()
}

// ReservationID returns the reservation being edited, "" in add mode.
func (p *Picker) ReservationID() string { return p.reservationID }

// Cleared reports whether the selection is marked for deletion.
func (p *Picker) Cleared() bool { return p.cleared }

// Click applies one calendar click.
//
// First click while anchored:
//   - before the origin: origin becomes check-out, clicked becomes check-in
//   - after the origin:  origin becomes check-in, clicked becomes check-out
//   - on the origin:     a one-night stay, check-out = origin + 1 day
//
// Once ranged, the nearer endpoint (by absolute day distance, check-out on
// ties) moves to the clicked date; if the move inverts the order the
// endpoints swap.
func (p *Picker) Click(clicked schedule.Date) {
	if !p.Ranged() {
		switch {
		case clicked.Before(p.Origin):
			p.checkIn = clicked
			p.checkOut = p.Origin
		case clicked.After(p.Origin):
			p.checkIn = p.Origin
			p.checkOut = clicked
		default:
			p.checkIn = clicked
			p.checkOut = clicked.AddDays(1)
		}
		return
	}

	if schedule.AbsDays(clicked, p.checkIn) < schedule.AbsDays(clicked, p.checkOut) {
		p.checkIn = clicked
	} else {
		p.checkOut = clicked
	}
	if p.checkIn.After(p.checkOut) {
		p.checkIn, p.checkOut = p.checkOut, p.checkIn
	}
}

// ToggleClear flips the cleared mark. Clearing keeps the selection's values
// so it can be restored; restoring brings back the endpoints the picker
// opened with, discarding any in-progress moves.
func (p *Picker) ToggleClear() {
	if p.cleared {
		p.checkIn = p.originalIn
		p.checkOut = p.originalOut
		p.cleared = false
		return
	}
	p.cleared = true
}

// HasChanges reports whether confirming would alter anything.
func (p *Picker) HasChanges() bool {
	return p.cleared ||
		!p.checkIn.Equal(p.originalIn) ||
		!p.checkOut.Equal(p.originalOut)
}
