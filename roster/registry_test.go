package roster_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/careops/roster-engine/roster"
	"github.com/careops/roster-engine/schedule"
	"github.com/careops/roster-engine/storage"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRegistry() *roster.Registry {
	return roster.NewRegistry(storage.New(storage.NewMemory(), nil))
}

func today() schedule.Date { return schedule.MustDate("2026-01-15") }

// =============================================================================
// USER REGISTRATION
// =============================================================================

func TestRegister_AssignsSequentialIDs(t *testing.T) {
	r := newTestRegistry()

	u1, err := r.Register("田中太郎", "", today())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u1.UserID != "user001" {
		t.Errorf("expected user001, got %s", u1.UserID)
	}
	if u1.DisplayName != "田中太郎" {
		t.Errorf("display name defaults to name, got %q", u1.DisplayName)
	}
	if u1.SortID != 1 {
		t.Errorf("expected sortId 1, got %d", u1.SortID)
	}

	u2, err := r.Register("佐藤花子", "はなこ", today())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u2.UserID != "user002" || u2.SortID != 2 {
		t.Errorf("got %s / sortId %d", u2.UserID, u2.SortID)
	}
}

func TestRegister_ReusesLowestFreeID(t *testing.T) {
	// GIVEN: three users with the middle one removed
	// WHEN: a new user registers
	// THEN: the freed ID is reused, and the sort ID keeps growing

	r := newTestRegistry()
	for i := 0; i < 3; i++ {
		if _, err := r.Register(fmt.Sprintf("利用者%d", i+1), "", today()); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	if !r.RemoveUser("user002") {
		t.Fatal("setup: remove failed")
	}

	u, err := r.Register("新規利用者", "", today())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.UserID != "user002" {
		t.Errorf("expected the freed user002, got %s", u.UserID)
	}
	if u.SortID != 4 {
		t.Errorf("sort IDs never rewind: expected 4, got %d", u.SortID)
	}
}

func TestRegister_SucceedsAfterChurnPastSortCeiling(t *testing.T) {
	// GIVEN: a full roster whose highest sortId equals the user ceiling
	// WHEN: a user leaves and a replacement registers
	// THEN: registration succeeds even though the new sortId exceeds the
	//       ceiling, which caps concurrent users, not sort order

	r := newTestRegistry()
	for i := 0; i < roster.MaxUsers; i++ {
		if _, err := r.Register(fmt.Sprintf("利用者%d", i+1), "", today()); err != nil {
			t.Fatalf("setup %d: %v", i, err)
		}
	}
	if !r.RemoveUser("user005") {
		t.Fatal("setup: remove failed")
	}

	u, err := r.Register("交代利用者", "", today())
	if err != nil {
		t.Fatalf("replacement below ceiling must register: %v", err)
	}
	if u.UserID != "user005" {
		t.Errorf("expected the freed user005, got %s", u.UserID)
	}
	if u.SortID != roster.MaxUsers+1 {
		t.Errorf("expected sortId %d, got %d", roster.MaxUsers+1, u.SortID)
	}
}

func TestRegister_RejectsAtCeiling(t *testing.T) {
	r := newTestRegistry()
	for i := 0; i < roster.MaxUsers; i++ {
		if _, err := r.Register(fmt.Sprintf("利用者%d", i+1), "", today()); err != nil {
			t.Fatalf("setup %d: %v", i, err)
		}
	}

	_, err := r.Register("あふれた利用者", "", today())
	if !errors.Is(err, schedule.ErrRosterFull) {
		t.Fatalf("expected roster full, got %v", err)
	}
	if len(r.Users()) != roster.MaxUsers {
		t.Errorf("expected %d users, got %d", roster.MaxUsers, len(r.Users()))
	}
}

func TestRegister_RejectsInvalidNames(t *testing.T) {
	r := newTestRegistry()

	if _, err := r.Register("", "", today()); !errors.Is(err, schedule.ErrValidation) {
		t.Errorf("empty name: expected validation error, got %v", err)
	}

	long := make([]rune, roster.MaxNameLength+1)
	for i := range long {
		long[i] = 'あ'
	}
	if _, err := r.Register(string(long), "", today()); !errors.Is(err, schedule.ErrValidation) {
		t.Errorf("51-rune name: expected validation error, got %v", err)
	}
}

func TestUsers_OrderedBySortID(t *testing.T) {
	r := newTestRegistry()
	a, _ := r.Register("一人目", "", today())
	b, _ := r.Register("二人目", "", today())

	// Swap the display order
	a.SortID, b.SortID = b.SortID, a.SortID
	if _, err := r.UpdateUser(a); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := r.UpdateUser(b); err != nil {
		t.Fatalf("update: %v", err)
	}

	users := r.Users()
	if users[0].UserID != b.UserID || users[1].UserID != a.UserID {
		t.Errorf("expected sort-ID order, got %s then %s", users[0].UserID, users[1].UserID)
	}
}

// =============================================================================
// ROOMS
// =============================================================================

func TestNewRegistry_CreatesDefaultRoomsOnFirstRun(t *testing.T) {
	adapter := storage.New(storage.NewMemory(), nil)
	r := roster.NewRegistry(adapter)

	rooms := r.Rooms()
	if len(rooms) != roster.TotalRooms {
		t.Fatalf("expected %d rooms, got %d", roster.TotalRooms, len(rooms))
	}
	if rooms[0].RoomID != "room1" || rooms[8].RoomID != "room9" {
		t.Errorf("room IDs: %s .. %s", rooms[0].RoomID, rooms[8].RoomID)
	}

	// The defaults were persisted: a second registry over the same backend
	// loads them instead of recreating
	again := roster.NewRegistry(adapter)
	if len(again.Rooms()) != roster.TotalRooms {
		t.Errorf("rooms lost across reload")
	}
}

// =============================================================================
// STAFF
// =============================================================================

func TestStaff_AddAndRemove(t *testing.T) {
	r := newTestRegistry()

	s, err := r.AddStaff("鈴木看護師")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.StaffID == "" {
		t.Error("expected a generated staff ID")
	}
	if len(r.Staff()) != 1 {
		t.Errorf("expected 1 staff, got %d", len(r.Staff()))
	}

	if !r.RemoveStaff(s.StaffID) {
		t.Error("expected removal to succeed")
	}
	if len(r.Staff()) != 0 {
		t.Error("staff list must be empty")
	}

	if _, err := r.AddStaff(""); !errors.Is(err, schedule.ErrValidation) {
		t.Errorf("empty staff name: expected validation error, got %v", err)
	}
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestRegistry_ReloadsFromBackingStore(t *testing.T) {
	adapter := storage.New(storage.NewMemory(), nil)
	r := roster.NewRegistry(adapter)
	if _, err := r.Register("田中太郎", "", today()); err != nil {
		t.Fatalf("setup: %v", err)
	}

	reloaded := roster.NewRegistry(adapter)
	u, found := reloaded.GetUser("user001")
	if !found {
		t.Fatal("user lost across reload")
	}
	if u.Name != "田中太郎" {
		t.Errorf("got %q", u.Name)
	}
	if !reloaded.HasUser("user001") {
		t.Error("HasUser must see the reloaded user")
	}
}
