package attendance_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careops/roster-engine/attendance"
	"github.com/careops/roster-engine/schedule"
	"github.com/careops/roster-engine/storage"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// allUsers accepts every user, disabling the registry check.
type allUsers struct{}

func (allUsers) HasUser(string) bool { return true }

func newTestStore() *attendance.Store {
	return attendance.NewStore(storage.New(storage.NewMemory(), nil), allUsers{})
}

func entry(userID string, date string, section schedule.Section) attendance.Entry {
	return attendance.Entry{
		UserID:  userID,
		Date:    schedule.MustDate(date),
		Section: section,
	}
}

// =============================================================================
// DIALOG SAVE - capacity gate
// =============================================================================

func TestSave_FifteenthBookingSucceeds_SixteenthRejected(t *testing.T) {
	// GIVEN: 14 morning bookings on the same day
	// WHEN: the 15th and then a 16th user book the morning
	// THEN: the 15th fills the last seat, the 16th is rejected with no write

	s := newTestStore()
	day := "2026-01-15"
	for i := 1; i <= 14; i++ {
		require.NoError(t, s.Save(entry(fmt.Sprintf("user%03d", i), day, schedule.SectionHalfMorning)))
	}

	assert.False(t, s.CheckCapacity(schedule.MustDate(day), schedule.SectionHalfMorning, "user015").Blocking(),
		"a free seat remains for the 15th user")
	require.NoError(t, s.Save(entry("user015", day, schedule.SectionHalfMorning)))

	err := s.Save(entry("user016", day, schedule.SectionHalfMorning))
	require.Error(t, err)
	var capErr *schedule.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, schedule.VerdictAtLimit, capErr.Result.Verdict)
	assert.Equal(t, 15, capErr.Result.Count, "rejection reports the full room, not a phantom 16th seat")

	_, found := s.Get("user016", schedule.MustDate(day))
	assert.False(t, found, "rejected save must leave no record")
}

func TestSave_RetrySucceedsAfterRemoval(t *testing.T) {
	s := newTestStore()
	day := "2026-01-15"
	for i := 1; i <= 15; i++ {
		require.NoError(t, s.Save(entry(fmt.Sprintf("user%03d", i), day, schedule.SectionFullDay)))
	}
	require.Error(t, s.Save(entry("user016", day, schedule.SectionFullDay)))

	// Freeing a seat makes the retry succeed
	require.True(t, s.Delete("user001", schedule.MustDate(day)))
	assert.NoError(t, s.Save(entry("user016", day, schedule.SectionFullDay)))
}

func TestSave_ConcurrentSavesNeverExceedCapacity(t *testing.T) {
	// GIVEN: 14 bookings, one seat left
	// WHEN: several users race to save on the same day
	// THEN: exactly one lands and the day never goes past the ceiling

	s := newTestStore()
	day := schedule.MustDate("2026-01-15")
	for i := 1; i <= 14; i++ {
		require.NoError(t, s.Save(entry(fmt.Sprintf("user%03d", i), day.String(), schedule.SectionHalfMorning)))
	}

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Save(entry(fmt.Sprintf("user%03d", 100+i), day.String(), schedule.SectionHalfMorning))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, schedule.ErrCapacityExceeded))
		}
	}
	assert.Equal(t, 1, succeeded, "only one racer may take the last seat")
	assert.Equal(t, 15, s.Occupancy(day, schedule.SectionHalfMorning, ""))
}

func TestSave_ResavingOwnEntryDoesNotDoubleCount(t *testing.T) {
	// GIVEN: a full day (15 full-day bookings)
	// WHEN: one of the booked users re-saves their own entry
	// THEN: their own seat is excluded from the count and the save succeeds

	s := newTestStore()
	day := "2026-01-15"
	for i := 1; i <= 15; i++ {
		require.NoError(t, s.Save(entry(fmt.Sprintf("user%03d", i), day, schedule.SectionFullDay)))
	}

	assert.NoError(t, s.Save(entry("user007", day, schedule.SectionHalfMorning)))
}

// =============================================================================
// OCCUPANCY - full-day uses the more constrained pool
// =============================================================================

func TestOccupancy_FullDayCandidateUsesMaxPool(t *testing.T) {
	// GIVEN: 10 morning-only and 3 afternoon-only bookings
	// WHEN: checking occupancy for a full-day candidate
	// THEN: the count is the morning pool (10), the larger of the two

	s := newTestStore()
	day := schedule.MustDate("2026-01-20")
	for i := 1; i <= 10; i++ {
		require.NoError(t, s.Save(entry(fmt.Sprintf("user%03d", i), day.String(), schedule.SectionHalfMorning)))
	}
	for i := 11; i <= 13; i++ {
		require.NoError(t, s.Save(entry(fmt.Sprintf("user%03d", i), day.String(), schedule.SectionHalfAfternoon)))
	}

	assert.Equal(t, 10, s.Occupancy(day, schedule.SectionFullDay, ""))
	assert.Equal(t, 10, s.Occupancy(day, schedule.SectionHalfMorning, ""))
	assert.Equal(t, 3, s.Occupancy(day, schedule.SectionHalfAfternoon, ""))
}

func TestOccupancy_FullDayEntriesCountInBothPools(t *testing.T) {
	s := newTestStore()
	day := schedule.MustDate("2026-01-21")
	require.NoError(t, s.Save(entry("user001", day.String(), schedule.SectionFullDay)))
	require.NoError(t, s.Save(entry("user002", day.String(), schedule.SectionHalfMorning)))

	morning, afternoon := s.CountsForDate(day)
	assert.Equal(t, 2, morning)
	assert.Equal(t, 1, afternoon)
}

// =============================================================================
// QUICK-TOGGLE PATH - no capacity gate
// =============================================================================

func TestSetExplicit_BypassesCapacityGate(t *testing.T) {
	// GIVEN: a day already at the ceiling
	// WHEN: the toggle path writes one more booking
	// THEN: the write lands; only the dialog path enforces the ceiling

	s := newTestStore()
	day := schedule.MustDate("2026-01-22")
	for i := 1; i <= 15; i++ {
		require.NoError(t, s.Save(entry(fmt.Sprintf("user%03d", i), day.String(), schedule.SectionFullDay)))
	}

	s.SetExplicit("user016", day, schedule.SectionFullDay)
	e, found := s.Get("user016", day)
	require.True(t, found)
	assert.Equal(t, schedule.SectionFullDay, e.Section)
	assert.Equal(t, 16, s.Occupancy(day, schedule.SectionFullDay, ""))
}

func TestSetExplicit_PreservesTransportAndNote(t *testing.T) {
	s := newTestStore()
	day := schedule.MustDate("2026-01-23")
	e := entry("user001", day.String(), schedule.SectionFullDay)
	e.PickupBy = attendance.TransportFamily
	e.Note = "picked up by mother"
	require.NoError(t, s.Save(e))

	s.SetExplicit("user001", day, schedule.SectionHalfMorning)

	got, found := s.Get("user001", day)
	require.True(t, found)
	assert.Equal(t, schedule.SectionHalfMorning, got.Section)
	assert.Equal(t, attendance.TransportFamily, got.PickupBy)
	assert.Equal(t, "picked up by mother", got.Note)
}

func TestClearExplicit_DistinctFromNoRecord(t *testing.T) {
	// GIVEN: a booked entry
	// WHEN: the cell is explicitly cleared
	// THEN: the record remains with the empty marker and holds no seat

	s := newTestStore()
	day := schedule.MustDate("2026-01-24")
	require.NoError(t, s.Save(entry("user001", day.String(), schedule.SectionFullDay)))

	s.ClearExplicit("user001", day)

	e, found := s.Get("user001", day)
	require.True(t, found, "explicit-empty marker must remain a record")
	assert.Equal(t, schedule.SectionNone, e.Section)
	assert.Empty(t, s.ForDate(day), "cleared cell holds no seat")
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestSave_RejectsInvalidEntries(t *testing.T) {
	s := newTestStore()

	err := s.Save(attendance.Entry{Date: schedule.MustDate("2026-01-15"), Section: schedule.SectionFullDay})
	assert.True(t, errors.Is(err, schedule.ErrValidation), "missing userId")

	err = s.Save(entry("user001", "2026-01-15", schedule.SectionNone))
	assert.True(t, errors.Is(err, schedule.ErrValidation), "dialog save requires a section")

	err = s.Save(entry("user001", "2026-01-15", schedule.Section("bogus")))
	assert.True(t, errors.Is(err, schedule.ErrValidation), "unknown section")
}

func TestSave_RejectsUnknownUser(t *testing.T) {
	knownOnly := attendance.NewStore(storage.New(storage.NewMemory(), nil), knownUsers{"user001"})

	assert.NoError(t, knownOnly.Save(entry("user001", "2026-01-15", schedule.SectionFullDay)))
	err := knownOnly.Save(entry("user999", "2026-01-15", schedule.SectionFullDay))
	assert.True(t, errors.Is(err, schedule.ErrValidation))
}

type knownUsers []string

func (k knownUsers) HasUser(id string) bool {
	for _, u := range k {
		if u == id {
			return true
		}
	}
	return false
}

// =============================================================================
// CASCADE RANGE DELETE
// =============================================================================

func TestDeleteRange_RemovesEndpointsInclusive(t *testing.T) {
	s := newTestStore()
	for _, d := range []string{"2026-01-09", "2026-01-10", "2026-01-11", "2026-01-12", "2026-01-13"} {
		require.NoError(t, s.Save(entry("user001", d, schedule.SectionFullDay)))
	}

	removed := s.DeleteRange("user001", schedule.Period{
		Start: schedule.MustDate("2026-01-10"),
		End:   schedule.MustDate("2026-01-12"),
	})
	assert.Equal(t, 3, removed)

	_, found := s.Get("user001", schedule.MustDate("2026-01-09"))
	assert.True(t, found, "day before the range survives")
	_, found = s.Get("user001", schedule.MustDate("2026-01-10"))
	assert.False(t, found, "range start removed")
	_, found = s.Get("user001", schedule.MustDate("2026-01-12"))
	assert.False(t, found, "range end removed")
	_, found = s.Get("user001", schedule.MustDate("2026-01-13"))
	assert.True(t, found, "day after the range survives")
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestStore_ReloadsFromBackingStore(t *testing.T) {
	kv := storage.NewMemory()
	adapter := storage.New(kv, nil)

	s := attendance.NewStore(adapter, allUsers{})
	require.NoError(t, s.Save(entry("user001", "2026-01-15", schedule.SectionHalfAfternoon)))

	reloaded := attendance.NewStore(adapter, allUsers{})
	e, found := reloaded.Get("user001", schedule.MustDate("2026-01-15"))
	require.True(t, found)
	assert.Equal(t, schedule.SectionHalfAfternoon, e.Section)
}
