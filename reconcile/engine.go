/*
Package reconcile derives what a calendar cell displays for (user, date) by
combining explicit attendance entries with overnight context, without ever
conflating the two stores' persisted data.

PRECEDENCE (the crux):
  1. explicit section        -> that section's symbol
  2. explicit-empty marker   -> blank, even inside a stay
  3. date inside a stay      -> full-day default
  4. otherwise               -> blank

The explicit-empty marker is semantically distinct from "no record at all";
only the latter lets a stay imply its default.

This package also owns the operations that span both stores: the quick
toggle (which cycles the DISPLAYED state, not just the stored one) and the
period-edit confirmation with its cascade delete. The two stores never call
each other; this engine is the single point of coupling.
*/
package reconcile

import (
	"github.com/careops/roster-engine/attendance"
	"github.com/careops/roster-engine/overnight"
	"github.com/careops/roster-engine/schedule"
)

// Border is the visual period indicator for a cell. It renders the
// continuous bar across a multi-day stay and carries no capacity meaning.
type Border string

const (
	BorderNone     Border = "none"
	BorderStay     Border = "stay"     // check-in through the night before check-out
	BorderCheckout Border = "checkout" // departure day, lighter visual weight
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	Attendance *attendance.Store
	Overnight  *overnight.Store
}

func NewEngine(att *attendance.Store, ovn *overnight.Store) *Engine {
	return &Engine{Attendance: att, Overnight: ovn}
}

// DisplayState resolves the precedence chain to the section a cell shows.
func (e *Engine) DisplayState(userID string, date schedule.Date) schedule.Section {
	if entry, ok := e.Attendance.Get(userID, date); ok {
		// Explicit value or explicit-empty; either way the entry decides.
		return entry.Section
	}
	if _, ok := e.Overnight.FindCovering(userID, date); ok {
		return schedule.SectionFullDay
	}
	return schedule.SectionNone
}

// DisplaySymbol returns the cell symbol: "○", "◓", "◒", or "".
func (e *Engine) DisplaySymbol(userID string, date schedule.Date) string {
	return e.DisplayState(userID, date).Symbol()
}

// BorderState returns the period indicator for the cell.
func (e *Engine) BorderState(userID string, date schedule.Date) Border {
	r, ok := e.Overnight.FindCovering(userID, date)
	if !ok {
		return BorderNone
	}
	if date.Before(r.EndDate) {
		return BorderStay
	}
	return BorderCheckout
}

// Toggle advances the cell one step in the quick-toggle cycle and writes the
// explicit state immediately. The cycle starts from the DISPLAYED state, so
// toggling a stay-implied full-day cell moves to half-morning. There is no
// capacity gate on this path; only the dialog save enforces the ceiling.
func (e *Engine) Toggle(userID string, date schedule.Date) schedule.Section {
	next := e.DisplayState(userID, date).NextInCycle()
	if next == schedule.SectionNone {
		e.Attendance.ClearExplicit(userID, date)
	} else {
		e.Attendance.SetExplicit(userID, date, next)
	}
	return next
}

// =============================================================================
// PERIOD CONFIRMATION
// =============================================================================

// ClearStay deletes a reservation and cascades: every explicit attendance
// entry whose date falls inside the deleted range is removed too, manual
// overrides included. Returns false when the reservation does not exist.
func (e *Engine) ClearStay(reservationID string) bool {
	r, ok := e.Overnight.Get(reservationID)
	if !ok {
		return false
	}
	if !e.Overnight.Delete(reservationID) {
		return false
	}
	e.Attendance.DeleteRange(r.UserID, r.Period())
	return true
}

// ConfirmPicker applies a finished picker interaction.
//
// Cleared selection: the underlying reservation is deleted with the cascade.
// Changed range: the reservation is upserted (advisory capacity warnings
// may accompany success). A picker with no range and no clear is a no-op.
func (e *Engine) ConfirmPicker(p *overnight.Picker, roomID string) (overnight.SaveResult, error) {
	if p.Cleared() {
		if id := p.ReservationID(); id != "" {
			e.ClearStay(id)
		}
		return overnight.SaveResult{}, nil
	}

	checkIn, checkOut, ok := p.Range()
	if !ok {
		return overnight.SaveResult{}, nil
	}

	r := overnight.Reservation{
		ID:        p.ReservationID(),
		UserID:    p.UserID,
		RoomID:    roomID,
		StartDate: checkIn,
		EndDate:   checkOut,
	}
	if existing, found := e.Overnight.Get(p.ReservationID()); found {
		r.Status = existing.Status
		r.Note = existing.Note
		if roomID == "" {
			r.RoomID = existing.RoomID
		}
	}
	return e.Overnight.Save(r)
}
