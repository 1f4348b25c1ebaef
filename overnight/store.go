package overnight

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/careops/roster-engine/roster"
	"github.com/careops/roster-engine/schedule"
	"github.com/careops/roster-engine/storage"
)

// =============================================================================
// STORE
// =============================================================================

// Store holds every reservation. The whole list is re-persisted after each
// mutation.
type Store struct {
	mu           sync.RWMutex
	reservations []Reservation

	store      *storage.Store
	persistErr error
}

func NewStore(store *storage.Store) *Store {
	s := &Store{store: store}
	s.load()
	return s
}

func (s *Store) load() {
	if s.store == nil {
		return
	}
	data, ok, err := s.store.Load(storage.KeyOvernight)
	if err != nil || !ok {
		return
	}
	_ = json.Unmarshal(data, &s.reservations)
}

func (s *Store) persistLocked() {
	if s.store == nil {
		return
	}
	data, err := json.Marshal(s.reservations)
	if err != nil {
		s.persistErr = err
		return
	}
	s.persistErr = s.store.Save(storage.KeyOvernight, data)
}

func (s *Store) PersistError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistErr
}

// =============================================================================
// QUERIES
// =============================================================================

func (s *Store) Get(id string) (Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reservations {
		if r.ID == id {
			return r, true
		}
	}
	return Reservation{}, false
}

func (s *Store) All() []Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Reservation, len(s.reservations))
	copy(out, s.reservations)
	return out
}

// ForUser returns the user's reservations ordered by check-in date.
func (s *Store) ForUser(userID string) []Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Reservation
	for _, r := range s.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

// ForDate returns every reservation whose stay includes date.
func (s *Store) ForDate(date schedule.Date) []Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Reservation
	for _, r := range s.reservations {
		if r.Includes(date) {
			out = append(out, r)
		}
	}
	return out
}

// FindCovering returns the user's reservation that includes date, if any.
func (s *Store) FindCovering(userID string, date schedule.Date) (Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reservations {
		if r.UserID == userID && r.Includes(date) {
			return r, true
		}
	}
	return Reservation{}, false
}

// ForRoomAndDate returns the reservation occupying roomID on date, if any.
func (s *Store) ForRoomAndDate(roomID string, date schedule.Date) (Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reservations {
		if r.RoomID == roomID && r.Includes(date) {
			return r, true
		}
	}
	return Reservation{}, false
}

// NightlyOccupancy counts every reservation covering date, room-assigned or
// not. excludeID removes a reservation's own contribution when re-checking
// an update (pass "" to exclude nothing).
func (s *Store) NightlyOccupancy(date schedule.Date, excludeID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nightlyOccupancyLocked(date, excludeID)
}

func (s *Store) nightlyOccupancyLocked(date schedule.Date, excludeID string) int {
	count := 0
	for _, r := range s.reservations {
		if r.ID != excludeID && r.Includes(date) {
			count++
		}
	}
	return count
}

// HasConflict reports whether candidate overlaps another reservation in the
// same physical room. Unassigned reservations (RoomID == "") never conflict.
func (s *Store) HasConflict(candidate Reservation, excludeID string) (Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasConflictLocked(candidate, excludeID)
}

func (s *Store) hasConflictLocked(candidate Reservation, excludeID string) (Reservation, bool) {
	if candidate.RoomID == "" {
		return Reservation{}, false
	}
	for _, r := range s.reservations {
		if r.ID == excludeID || r.RoomID == "" || r.RoomID != candidate.RoomID {
			continue
		}
		if candidate.Period().Overlaps(r.Period()) {
			return r, true
		}
	}
	return Reservation{}, false
}

// RoomAvailability splits rooms into available and occupied for date.
func (s *Store) RoomAvailability(date schedule.Date, rooms []roster.Room) (available, occupied []roster.Room) {
	for _, room := range rooms {
		if _, taken := s.ForRoomAndDate(room.RoomID, date); taken {
			occupied = append(occupied, room)
		} else {
			available = append(available, room)
		}
	}
	return available, occupied
}

// =============================================================================
// MUTATIONS
// =============================================================================

// SaveResult reports an accepted save. Warnings carry the advisory capacity
// messages; a non-empty list never implies failure.
type SaveResult struct {
	Reservation Reservation
	Warnings    []string
}

// Save upserts a reservation. Validation failures and same-room conflicts
// reject with no write. Capacity is advisory: the save always proceeds, and
// each date in the stay at or above the nightly ceiling (the candidate's own
// night counted) adds a warning naming that date.
func (s *Store) Save(r Reservation) (SaveResult, error) {
	if err := r.Validate(); err != nil {
		return SaveResult{}, err
	}

	// Conflict check and write share the lock so two concurrent saves
	// cannot both claim the same room for overlapping nights.
	s.mu.Lock()
	defer s.mu.Unlock()
	if other, conflict := s.hasConflictLocked(r, r.ID); conflict {
		return SaveResult{}, &schedule.ConflictError{
			RoomID: r.RoomID,
			Period: r.Period(),
			WithID: other.ID,
		}
	}

	if r.ID == "" {
		r.ID = newReservationID(r.StartDate)
	}
	if r.Status == "" {
		r.Status = StatusPlanned
	}

	var warnings []string
	for _, d := range r.Period().Days() {
		count := s.nightlyOccupancyLocked(d, r.ID) + 1
		if check := schedule.CheckCapacity(count, schedule.OvernightCapacity); check.Blocking() {
			warnings = append(warnings, fmt.Sprintf("%s: %s", d, check.Message))
		}
	}

	replaced := false
	for i := range s.reservations {
		if s.reservations[i].ID == r.ID {
			s.reservations[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		s.reservations = append(s.reservations, r)
	}
	s.persistLocked()
	return SaveResult{Reservation: r, Warnings: warnings}, nil
}

// Delete removes a reservation by ID. Returns false when absent.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reservations {
		if s.reservations[i].ID == id {
			s.reservations = append(s.reservations[:i], s.reservations[i+1:]...)
			s.persistLocked()
			return true
		}
	}
	return false
}
