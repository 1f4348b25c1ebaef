/*
handlers_test.go - HTTP-level tests for the scheduling API

Tests for:
- Attendance dialog save and the 409 capacity hard-block
- Quick toggle cycling the displayed state
- Overnight conflicts (409) versus advisory capacity warnings (200)
- Reservation deletion cascading attendance removal
- The rendered board combining both stores
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/careops/roster-engine/attendance"
	"github.com/careops/roster-engine/overnight"
	"github.com/careops/roster-engine/roster"
	"github.com/careops/roster-engine/schedule"
	"github.com/careops/roster-engine/storage"
	"github.com/careops/roster-engine/visit"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestHandler(t *testing.T) (*Handler, *roster.Registry) {
	t.Helper()
	adapter := storage.New(storage.NewMemory(), nil)
	registry := roster.NewRegistry(adapter)
	att := attendance.NewStore(adapter, registry)
	ovn := overnight.NewStore(adapter)
	vis := visit.NewStore(adapter)
	return NewHandler(registry, att, ovn, vis, nil), registry
}

func registerUsers(t *testing.T, registry *roster.Registry, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := registry.Register(fmt.Sprintf("利用者%d", i+1), "", schedule.MustDate("2026-01-01")); err != nil {
			t.Fatalf("register user %d: %v", i+1, err)
		}
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// =============================================================================
// USERS
// =============================================================================

func TestRegisterUser_EndToEnd(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h)

	rec := doJSON(t, router, http.MethodPost, "/api/users", RegisterUserRequest{Name: "田中太郎"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var u UserDTO
	decodeInto(t, rec, &u)
	if u.UserID != "user001" {
		t.Errorf("expected user001, got %s", u.UserID)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/users", nil)
	var list []UserDTO
	decodeInto(t, rec, &list)
	if len(list) != 1 {
		t.Errorf("expected 1 user, got %d", len(list))
	}
}

func TestRegisterUser_RosterFull(t *testing.T) {
	h, registry := newTestHandler(t)
	registerUsers(t, registry, roster.MaxUsers)

	rec := doJSON(t, NewRouter(h), http.MethodPost, "/api/users", RegisterUserRequest{Name: "あふれた"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 at the ceiling, got %d", rec.Code)
	}
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestSaveAttendance_CapacityHardBlockIs409(t *testing.T) {
	// GIVEN: 15 users booked full-day via the dialog
	// WHEN: a 16th books the same day
	// THEN: 409 with the capacity message; the toggle still writes

	h, registry := newTestHandler(t)
	registerUsers(t, registry, 16)
	router := NewRouter(h)

	for i := 1; i <= 15; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/attendance", SaveAttendanceRequest{
			UserID: fmt.Sprintf("user%03d", i), Date: "2026-01-15", Section: "full-day",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("booking %d: expected 200, got %d: %s", i, rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, router, http.MethodPost, "/api/attendance", SaveAttendanceRequest{
		UserID: "user016", Date: "2026-01-15", Section: "full-day",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	// The quick toggle has no gate
	rec = doJSON(t, router, http.MethodPost, "/api/attendance/toggle", ToggleRequest{
		UserID: "user016", Date: "2026-01-15",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d", rec.Code)
	}
	var toggled ToggleResponse
	decodeInto(t, rec, &toggled)
	if toggled.Section != "full-day" || toggled.Symbol != "○" {
		t.Errorf("expected blank→full-day, got %s / %s", toggled.Section, toggled.Symbol)
	}
}

func TestToggleAttendance_Cycles(t *testing.T) {
	h, registry := newTestHandler(t)
	registerUsers(t, registry, 1)
	router := NewRouter(h)

	want := []string{"full-day", "half-morning", "half-afternoon", ""}
	for i, expected := range want {
		rec := doJSON(t, router, http.MethodPost, "/api/attendance/toggle", ToggleRequest{
			UserID: "user001", Date: "2026-01-15",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("step %d: got %d", i+1, rec.Code)
		}
		var resp ToggleResponse
		decodeInto(t, rec, &resp)
		if resp.Section != expected {
			t.Fatalf("step %d: expected %q, got %q", i+1, expected, resp.Section)
		}
	}
}

// =============================================================================
// OVERNIGHT
// =============================================================================

func TestSaveReservation_ConflictIs409_WarningsAre200(t *testing.T) {
	h, registry := newTestHandler(t)
	registerUsers(t, registry, 12)
	router := NewRouter(h)

	rec := doJSON(t, router, http.MethodPost, "/api/overnight", SaveReservationRequest{
		UserID: "user001", RoomID: "room1", StartDate: "2026-01-10", EndDate: "2026-01-12",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Same room, overlapping: hard conflict
	rec = doJSON(t, router, http.MethodPost, "/api/overnight", SaveReservationRequest{
		UserID: "user002", RoomID: "room1", StartDate: "2026-01-11", EndDate: "2026-01-13",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	// Fill the night to the ceiling with unassigned stays, then one more:
	// still 200, but with warnings
	for i := 2; i <= 9; i++ {
		rec = doJSON(t, router, http.MethodPost, "/api/overnight", SaveReservationRequest{
			UserID: fmt.Sprintf("user%03d", i), StartDate: "2026-01-10", EndDate: "2026-01-11",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("stay %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec = doJSON(t, router, http.MethodPost, "/api/overnight", SaveReservationRequest{
		UserID: "user010", StartDate: "2026-01-10", EndDate: "2026-01-11",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("capacity is advisory: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result SaveReservationResponse
	decodeInto(t, rec, &result)
	if len(result.Warnings) == 0 {
		t.Error("expected capacity warnings on the 10th night")
	}
}

func TestDeleteReservation_Cascades(t *testing.T) {
	// GIVEN: a stay with an explicit attendance override inside it
	// WHEN: the reservation is deleted over HTTP
	// THEN: the override is gone too

	h, registry := newTestHandler(t)
	registerUsers(t, registry, 1)
	router := NewRouter(h)

	rec := doJSON(t, router, http.MethodPost, "/api/overnight", SaveReservationRequest{
		UserID: "user001", RoomID: "room1", StartDate: "2026-01-10", EndDate: "2026-01-12",
	})
	var result SaveReservationResponse
	decodeInto(t, rec, &result)

	doJSON(t, router, http.MethodPost, "/api/attendance/toggle", ToggleRequest{
		UserID: "user001", Date: "2026-01-11",
	})

	rec = doJSON(t, router, http.MethodDelete, "/api/overnight/"+result.Reservation.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, found := h.Attendance.Get("user001", schedule.MustDate("2026-01-11")); found {
		t.Error("cascade must remove the in-range entry")
	}
}

func TestRoomAvailability(t *testing.T) {
	h, registry := newTestHandler(t)
	registerUsers(t, registry, 1)
	router := NewRouter(h)

	doJSON(t, router, http.MethodPost, "/api/overnight", SaveReservationRequest{
		UserID: "user001", RoomID: "room5", StartDate: "2026-01-10", EndDate: "2026-01-12",
	})

	rec := doJSON(t, router, http.MethodGet, "/api/overnight/availability?date=2026-01-11", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp RoomAvailabilityResponse
	decodeInto(t, rec, &resp)
	if len(resp.Occupied) != 1 || resp.Occupied[0].RoomID != "room5" {
		t.Errorf("expected room5 occupied, got %+v", resp.Occupied)
	}
	if len(resp.Available) != roster.TotalRooms-1 {
		t.Errorf("expected %d available, got %d", roster.TotalRooms-1, len(resp.Available))
	}
}

// =============================================================================
// BOARD
// =============================================================================

func TestGetBoard_RendersStayAndOverrides(t *testing.T) {
	h, registry := newTestHandler(t)
	registerUsers(t, registry, 1)
	router := NewRouter(h)

	doJSON(t, router, http.MethodPost, "/api/overnight", SaveReservationRequest{
		UserID: "user001", RoomID: "room1", StartDate: "2026-01-10", EndDate: "2026-01-12",
	})
	// Override one stay day to half-morning
	h.Attendance.SetExplicit("user001", schedule.MustDate("2026-01-11"), schedule.SectionHalfMorning)

	rec := doJSON(t, router, http.MethodGet, "/api/users/user001/board?month=2026-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var board BoardResponse
	decodeInto(t, rec, &board)
	if len(board.Cells) != 31 {
		t.Fatalf("expected 31 cells, got %d", len(board.Cells))
	}

	byDate := make(map[string]CellDTO, len(board.Cells))
	for _, c := range board.Cells {
		byDate[c.Date] = c
	}
	if c := byDate["2026-01-10"]; c.Symbol != "○" || c.Border != "stay" {
		t.Errorf("check-in cell: %+v", c)
	}
	if c := byDate["2026-01-11"]; c.Symbol != "◓" || c.Border != "stay" {
		t.Errorf("override cell: %+v", c)
	}
	if c := byDate["2026-01-12"]; c.Symbol != "○" || c.Border != "checkout" {
		t.Errorf("check-out cell: %+v", c)
	}
	if c := byDate["2026-01-13"]; c.Symbol != "" || c.Border != "none" {
		t.Errorf("post-stay cell: %+v", c)
	}
}

// =============================================================================
// SUMMARY
// =============================================================================

func TestGetSummary_MonthRows(t *testing.T) {
	h, registry := newTestHandler(t)
	registerUsers(t, registry, 2)
	router := NewRouter(h)

	doJSON(t, router, http.MethodPost, "/api/attendance", SaveAttendanceRequest{
		UserID: "user001", Date: "2026-02-10", Section: "full-day",
	})
	doJSON(t, router, http.MethodPost, "/api/attendance", SaveAttendanceRequest{
		UserID: "user002", Date: "2026-02-10", Section: "half-morning", PickupBy: "family",
	})

	rec := doJSON(t, router, http.MethodGet, "/api/summary?month=2026-02", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var rows []SummaryRowDTO
	decodeInto(t, rec, &rows)
	if len(rows) != 28 {
		t.Fatalf("Feb 2026: expected 28 rows, got %d", len(rows))
	}
	day := rows[9] // 2026-02-10
	if day.Date != "2026-02-10" {
		t.Fatalf("rows must be in date order, got %s", day.Date)
	}
	if day.MorningCount != 2 || day.AfternoonCount != 1 || day.MaxCount != 2 {
		t.Errorf("counts: %d/%d max %d", day.MorningCount, day.AfternoonCount, day.MaxCount)
	}
	if day.PickupByStaffCount != 1 {
		t.Errorf("family pickup must be excluded, got %d", day.PickupByStaffCount)
	}
}

// =============================================================================
// IMPORT
// =============================================================================

func TestImportPlan_ReturnsPatterns(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h)

	csvText := ",氏名,,,サービス,月,火,水,木,金,土,日,,,\n" +
		",田中,,,071234,1,0,1,0,1,0,0,,,\n"
	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewBufferString(csvText))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ImportResponse
	decodeInto(t, rec, &resp)
	if len(resp.Patterns) != 1 || resp.Patterns[0].Name != "田中" {
		t.Fatalf("expected 田中, got %+v", resp.Patterns)
	}
	if !resp.Patterns[0].Attendance[0] || resp.Patterns[0].Attendance[1] {
		t.Errorf("attendance fold: %v", resp.Patterns[0].Attendance)
	}
}
