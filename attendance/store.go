package attendance

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/careops/roster-engine/schedule"
	"github.com/careops/roster-engine/storage"
)

// UserDirectory is the slice of the master-data registry the dialog save
// path needs. Nil disables the existence check.
type UserDirectory interface {
	HasUser(userID string) bool
}

type entryKey struct {
	UserID string
	Date   string
}

// =============================================================================
// STORE
// =============================================================================

// Store holds every attendance entry, keyed by (user, date). The whole
// collection is re-persisted after each mutation.
type Store struct {
	mu      sync.RWMutex
	entries map[entryKey]Entry

	users      UserDirectory
	store      *storage.Store
	persistErr error
}

func NewStore(store *storage.Store, users UserDirectory) *Store {
	s := &Store{
		entries: make(map[entryKey]Entry),
		users:   users,
		store:   store,
	}
	s.load()
	return s
}

func (s *Store) load() {
	if s.store == nil {
		return
	}
	data, ok, err := s.store.Load(storage.KeyAttendance)
	if err != nil || !ok {
		return
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return
	}
	for _, e := range entries {
		s.entries[entryKey{e.UserID, e.Date.String()}] = e
	}
}

// persistLocked marshals the whole collection. Callers hold the write lock.
func (s *Store) persistLocked() {
	if s.store == nil {
		return
	}
	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date.Equal(entries[j].Date) {
			return entries[i].UserID < entries[j].UserID
		}
		return entries[i].Date.Before(entries[j].Date)
	})
	data, err := json.Marshal(entries)
	if err != nil {
		s.persistErr = err
		return
	}
	s.persistErr = s.store.Save(storage.KeyAttendance, data)
}

// PersistError reports whether the latest write durably landed.
func (s *Store) PersistError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistErr
}

// =============================================================================
// QUERIES
// =============================================================================

// Get returns the entry for (userID, date), explicit-empty markers included.
func (s *Store) Get(userID string, date schedule.Date) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryKey{userID, date.String()}]
	return e, ok
}

// ForDate returns every booked entry on date. Explicit-empty markers are
// excluded: they hold no seat.
func (s *Store) ForDate(date schedule.Date) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.Date.Equal(date) && e.Section.Valid() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// UserMonth returns the user's booked entries in the given month, by date.
func (s *Store) UserMonth(userID string, year int, month time.Month) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.UserID == userID && e.Date.Year() == year && e.Date.Month() == month && e.Section.Valid() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Occupancy counts the seats taken on date for the given section, excluding
// excludeUserID's own entry (pass "" to exclude nobody).
//
// For a half-day section the count is that half plus full-day entries. For a
// full-day candidate the count is max(morning pool, afternoon pool): the
// booking consumes a seat in whichever pool is more constrained, never both.
func (s *Store) Occupancy(date schedule.Date, section schedule.Section, excludeUserID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.occupancyLocked(date, section, excludeUserID)
}

func (s *Store) occupancyLocked(date schedule.Date, section schedule.Section, excludeUserID string) int {
	morning, afternoon, full := 0, 0, 0
	for _, e := range s.entries {
		if !e.Date.Equal(date) || e.UserID == excludeUserID {
			continue
		}
		switch e.Section {
		case schedule.SectionHalfMorning:
			morning++
		case schedule.SectionHalfAfternoon:
			afternoon++
		case schedule.SectionFullDay:
			full++
		}
	}

	switch section {
	case schedule.SectionHalfMorning:
		return morning + full
	case schedule.SectionHalfAfternoon:
		return afternoon + full
	case schedule.SectionFullDay:
		return max(morning+full, afternoon+full)
	default:
		return 0
	}
}

// CountsForDate returns the morning and afternoon pool counts, full-day
// entries included in both.
func (s *Store) CountsForDate(date schedule.Date) (morning, afternoon int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if !e.Date.Equal(date) {
			continue
		}
		if e.Section == schedule.SectionHalfMorning || e.Section == schedule.SectionFullDay {
			morning++
		}
		if e.Section == schedule.SectionHalfAfternoon || e.Section == schedule.SectionFullDay {
			afternoon++
		}
	}
	return morning, afternoon
}

// CheckCapacity answers "may userID book section on date". The count is the
// occupancy with the candidate's own entry excluded: at 14/15 the save
// lands, at 15/15 there is no seat left and the gate blocks.
func (s *Store) CheckCapacity(date schedule.Date, section schedule.Section, userID string) schedule.CapacityResult {
	return schedule.CheckCapacity(s.Occupancy(date, section, userID), schedule.AttendanceCapacity)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Save is the dialog path: validation, user existence, then the hard
// capacity gate. No write happens on any rejection.
func (s *Store) Save(e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if !e.Section.Valid() {
		return schedule.NewValidationError([]string{"section is required"})
	}
	if s.users != nil && !s.users.HasUser(e.UserID) {
		return schedule.NewValidationError([]string{fmt.Sprintf("unknown user %q", e.UserID)})
	}

	// Gate and write under the same lock so two concurrent saves cannot
	// both see the last free seat.
	s.mu.Lock()
	defer s.mu.Unlock()
	count := s.occupancyLocked(e.Date, e.Section, e.UserID)
	if result := schedule.CheckCapacity(count, schedule.AttendanceCapacity); result.Blocking() {
		return &schedule.CapacityError{Date: e.Date, Section: e.Section, Result: result}
	}
	if e.ID == "" {
		e.ID = newEntryID(e.Date)
	}
	if e.PickupBy == "" {
		e.PickupBy = TransportStaff
	}
	if e.DropoffBy == "" {
		e.DropoffBy = TransportStaff
	}
	e.UpdatedAt = time.Now().UTC()
	s.entries[entryKey{e.UserID, e.Date.String()}] = e
	s.persistLocked()
	return nil
}

// SetExplicit is the quick-toggle path: it writes the section immediately
// with no capacity gate, preserving transport and note on an existing entry.
func (s *Store) SetExplicit(userID string, date schedule.Date, section schedule.Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := entryKey{userID, date.String()}
	e, ok := s.entries[k]
	if !ok {
		e = NewEntry(userID, date, section)
	}
	e.Section = section
	e.UpdatedAt = time.Now().UTC()
	s.entries[k] = e
	s.persistLocked()
}

// ClearExplicit records the explicit-empty marker: the user actively cleared
// the cell, which suppresses any stay-implied default.
func (s *Store) ClearExplicit(userID string, date schedule.Date) {
	s.SetExplicit(userID, date, schedule.SectionNone)
}

// Delete removes the record entirely, restoring "no record at all".
// Returns false when no record existed.
func (s *Store) Delete(userID string, date schedule.Date) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := entryKey{userID, date.String()}
	if _, ok := s.entries[k]; !ok {
		return false
	}
	delete(s.entries, k)
	s.persistLocked()
	return true
}

// DeleteRange removes every record for userID whose date lies in the closed
// period. Used by the overnight cascade; manual overrides inside the range
// are discarded too.
func (s *Store) DeleteRange(userID string, period schedule.Period) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for d := period.Start; d.BeforeOrEqual(period.End); d = d.AddDays(1) {
		k := entryKey{userID, d.String()}
		if _, ok := s.entries[k]; ok {
			delete(s.entries, k)
			removed++
		}
	}
	if removed > 0 {
		s.persistLocked()
	}
	return removed
}
