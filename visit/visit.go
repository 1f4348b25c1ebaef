/*
Package visit implements the home-visit ("houmon") appointment store.

Visits are capacity-unconstrained: the store is plain CRUD plus the per-date
lookups the daily summary folds over. A day can hold several appointments
for the same user.
*/
package visit

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/careops/roster-engine/schedule"
	"github.com/careops/roster-engine/storage"
)

// TimeBand is the coarse scheduling slot. BandCustom requires explicit
// start and end times.
type TimeBand string

const (
	BandMorning   TimeBand = "morning"
	BandMidday    TimeBand = "midday"
	BandAfternoon TimeBand = "afternoon"
	BandEvening   TimeBand = "evening"
	BandNight     TimeBand = "night"
	BandAnytime   TimeBand = "anytime"
	BandCustom    TimeBand = "custom"
)

func (b TimeBand) Valid() bool {
	switch b {
	case BandMorning, BandMidday, BandAfternoon, BandEvening, BandNight, BandAnytime, BandCustom:
		return true
	}
	return false
}

// Label returns the short display label for the band.
func (b TimeBand) Label() string {
	switch b {
	case BandMorning:
		return "AM"
	case BandMidday:
		return "noon"
	case BandAfternoon:
		return "PM"
	case BandEvening:
		return "eve"
	case BandNight:
		return "night"
	case BandAnytime:
		return "any"
	default:
		return ""
	}
}

// DefaultDurationMinutes applies when an appointment omits a duration.
const DefaultDurationMinutes = 30

// =============================================================================
// APPOINTMENT
// =============================================================================

type Appointment struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	Date            schedule.Date `json:"date"`
	Band            TimeBand      `json:"timeBand"`
	StartTime       string        `json:"startTime,omitempty"` // "HH:MM" when Band == custom
	EndTime         string        `json:"endTime,omitempty"`
	DurationMinutes int           `json:"durationMinutes"`
	StaffID         string        `json:"staffId,omitempty"`
	Note            string        `json:"note,omitempty"`
}

func newAppointmentID(date schedule.Date) string {
	return fmt.Sprintf("houmon_%04d%02d%02d_%s",
		date.Year(), date.Month(), date.Day(), uuid.NewString()[:8])
}

func (a Appointment) Validate() error {
	var reasons []string
	if a.UserID == "" {
		reasons = append(reasons, "userId is required")
	}
	if a.Date.IsZero() {
		reasons = append(reasons, "date is required")
	}
	if !a.Band.Valid() {
		reasons = append(reasons, fmt.Sprintf("unknown time band %q", a.Band))
	}
	if a.Band == BandCustom {
		if a.StartTime == "" {
			reasons = append(reasons, "startTime is required for a custom band")
		}
		if a.EndTime == "" {
			reasons = append(reasons, "endTime is required for a custom band")
		}
	}
	return schedule.NewValidationError(reasons)
}

// DisplayText is what the calendar cell shows: the explicit start time for
// a custom band, the band label otherwise.
func (a Appointment) DisplayText() string {
	if a.Band == BandCustom && a.StartTime != "" {
		return a.StartTime
	}
	return a.Band.Label()
}

// =============================================================================
// STORE
// =============================================================================

type Store struct {
	mu           sync.RWMutex
	appointments []Appointment

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
	data, ok, err := s.store.Load(storage.KeyVisits)
	if err != nil || !ok {
		return
	}
	_ = json.Unmarshal(data, &s.appointments)
}

func (s *Store) persistLocked() {
	if s.store == nil {
		return
	}
	data, err := json.Marshal(s.appointments)
	if err != nil {
		s.persistErr = err
		return
	}
	s.persistErr = s.store.Save(storage.KeyVisits, data)
}

func (s *Store) PersistError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistErr
}

// Save upserts an appointment. Validation failures reject with no write.
func (s *Store) Save(a Appointment) (Appointment, error) {
	if err := a.Validate(); err != nil {
		return Appointment{}, err
	}
	if a.ID == "" {
		a.ID = newAppointmentID(a.Date)
	}
	if a.DurationMinutes == 0 {
		a.DurationMinutes = DefaultDurationMinutes
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appointments {
		if s.appointments[i].ID == a.ID {
			s.appointments[i] = a
			s.persistLocked()
			return a, nil
		}
	}
	s.appointments = append(s.appointments, a)
	s.persistLocked()
	return a, nil
}

// Delete removes an appointment by ID. Returns false when absent.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appointments {
		if s.appointments[i].ID == id {
			s.appointments = append(s.appointments[:i], s.appointments[i+1:]...)
			s.persistLocked()
			return true
		}
	}
	return false
}

func (s *Store) Get(id string) (Appointment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.appointments {
		if a.ID == id {
			return a, true
		}
	}
	return Appointment{}, false
}

// ForDate returns the appointments on date, ordered by user then start.
func (s *Store) ForDate(date schedule.Date) []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Appointment
	for _, a := range s.appointments {
		if a.Date.Equal(date) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID == out[j].UserID {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// ForUser returns the user's appointments ordered by date.
func (s *Store) ForUser(userID string) []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Appointment
	for _, a := range s.appointments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// CountForDate returns the number of visits on date.
func (s *Store) CountForDate(date schedule.Date) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, a := range s.appointments {
		if a.Date.Equal(date) {
			count++
		}
	}
	return count
}
