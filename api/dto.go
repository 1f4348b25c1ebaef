/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract. The rendering layer
  consumes these; it never sees the stores directly.

NAMING CONVENTION:
  - *DTO:      Response types returned to clients
  - *Request:  Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Domain validation lives in the stores; DTOs only reject what cannot be
  decoded at all (bad dates, unknown enums surface as store errors).

SEE ALSO:
  - handlers.go: Uses these types
  - server.go:   Route wiring
*/
package api

import (
	"github.com/careops/roster-engine/attendance"
	"github.com/careops/roster-engine/overnight"
	"github.com/careops/roster-engine/roster"
	"github.com/careops/roster-engine/summary"
	"github.com/careops/roster-engine/visit"
)

// =============================================================================
// MASTER DATA
// =============================================================================

type UserDTO struct {
	UserID           string `json:"userId"`
	Name             string `json:"name"`
	DisplayName      string `json:"displayName"`
	RegistrationDate string `json:"registrationDate,omitempty"`
	SortID           int    `json:"sortId"`
}

func toUserDTO(u roster.User) UserDTO {
	dto := UserDTO{
		UserID:      u.UserID,
		Name:        u.Name,
		DisplayName: u.DisplayName,
		SortID:      u.SortID,
	}
	if !u.RegistrationDate.IsZero() {
		dto.RegistrationDate = u.RegistrationDate.String()
	}
	return dto
}

type RegisterUserRequest struct {
	Name             string `json:"name"`
	DisplayName      string `json:"displayName,omitempty"`
	RegistrationDate string `json:"registrationDate,omitempty"`
}

type CreateStaffRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// ATTENDANCE
// =============================================================================

type AttendanceEntryDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Date      string `json:"date"`
	Section   string `json:"section"`
	PickupBy  string `json:"pickupBy"`
	DropoffBy string `json:"dropoffBy"`
	Note      string `json:"note,omitempty"`
}

func toAttendanceDTO(e attendance.Entry) AttendanceEntryDTO {
	return AttendanceEntryDTO{
		ID:        e.ID,
		UserID:    e.UserID,
		Date:      e.Date.String(),
		Section:   string(e.Section),
		PickupBy:  string(e.PickupBy),
		DropoffBy: string(e.DropoffBy),
		Note:      e.Note,
	}
}

type SaveAttendanceRequest struct {
	UserID    string `json:"userId"`
	Date      string `json:"date"`
	Section   string `json:"section"`
	PickupBy  string `json:"pickupBy,omitempty"`
	DropoffBy string `json:"dropoffBy,omitempty"`
	Note      string `json:"note,omitempty"`
}

type ToggleRequest struct {
	UserID string `json:"userId"`
	Date   string `json:"date"`
}

type ToggleResponse struct {
	UserID  string `json:"userId"`
	Date    string `json:"date"`
	Section string `json:"section"`
	Symbol  string `json:"symbol"`
}

// CellDTO is one calendar cell as the renderer draws it.
type CellDTO struct {
	Date   string `json:"date"`
	Symbol string `json:"symbol"`
	Border string `json:"border"`
}

type BoardResponse struct {
	UserID string    `json:"userId"`
	Month  string    `json:"month"`
	Cells  []CellDTO `json:"cells"`
}

// =============================================================================
// OVERNIGHT
// =============================================================================

type ReservationDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	RoomID    string `json:"roomId,omitempty"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
}

func toReservationDTO(r overnight.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:        r.ID,
		UserID:    r.UserID,
		RoomID:    r.RoomID,
		StartDate: r.StartDate.String(),
		EndDate:   r.EndDate.String(),
		Status:    string(r.Status),
		Note:      r.Note,
	}
}

type SaveReservationRequest struct {
	ID        string `json:"id,omitempty"`
	UserID    string `json:"userId"`
	RoomID    string `json:"roomId,omitempty"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Note      string `json:"note,omitempty"`
}

type SaveReservationResponse struct {
	Reservation ReservationDTO `json:"reservation"`
	Warnings    []string       `json:"warnings,omitempty"`
}

type RoomAvailabilityResponse struct {
	Date      string        `json:"date"`
	Available []roster.Room `json:"available"`
	Occupied  []roster.Room `json:"occupied"`
}

// =============================================================================
// VISITS
// =============================================================================

type AppointmentDTO struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	Date            string `json:"date"`
	TimeBand        string `json:"timeBand"`
	StartTime       string `json:"startTime,omitempty"`
	EndTime         string `json:"endTime,omitempty"`
	DurationMinutes int    `json:"durationMinutes"`
	StaffID         string `json:"staffId,omitempty"`
	Note            string `json:"note,omitempty"`
	DisplayText     string `json:"displayText"`
}

func toAppointmentDTO(a visit.Appointment) AppointmentDTO {
	return AppointmentDTO{
		ID:              a.ID,
		UserID:          a.UserID,
		Date:            a.Date.String(),
		TimeBand:        string(a.Band),
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		DurationMinutes: a.DurationMinutes,
		StaffID:         a.StaffID,
		Note:            a.Note,
		DisplayText:     a.DisplayText(),
	}
}

type SaveAppointmentRequest struct {
	ID              string `json:"id,omitempty"`
	UserID          string `json:"userId"`
	Date            string `json:"date"`
	TimeBand        string `json:"timeBand"`
	StartTime       string `json:"startTime,omitempty"`
	EndTime         string `json:"endTime,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
	StaffID         string `json:"staffId,omitempty"`
	Note            string `json:"note,omitempty"`
}

// =============================================================================
// SUMMARY
// =============================================================================

type SummaryRowDTO struct {
	Date                  string `json:"date"`
	MorningCount          int    `json:"morningCount"`
	AfternoonCount        int    `json:"afternoonCount"`
	MaxCount              int    `json:"maxCount"`
	OvernightCount        int    `json:"overnightCount"`
	VisitCount            int    `json:"visitCount"`
	PickupByStaffCount    int    `json:"pickupByStaffCount"`
	DropoffByStaffCount   int    `json:"dropoffByStaffCount"`
	AttendanceBand        string `json:"attendanceBand"`
	OvernightBand         string `json:"overnightBand"`
	AttendanceUtilization string `json:"attendanceUtilization"`
	OvernightUtilization  string `json:"overnightUtilization"`
}

func toSummaryDTO(r summary.Row) SummaryRowDTO {
	return SummaryRowDTO{
		Date:                  r.Date.String(),
		MorningCount:          r.MorningCount,
		AfternoonCount:        r.AfternoonCount,
		MaxCount:              r.MaxCount,
		OvernightCount:        r.OvernightCount,
		VisitCount:            r.VisitCount,
		PickupByStaffCount:    r.PickupByStaffCount,
		DropoffByStaffCount:   r.DropoffByStaffCount,
		AttendanceBand:        string(r.AttendanceBand()),
		OvernightBand:         string(r.OvernightBand()),
		AttendanceUtilization: r.AttendanceUtilization.StringFixed(2),
		OvernightUtilization:  r.OvernightUtilization.StringFixed(2),
	}
}

// =============================================================================
// IMPORT
// =============================================================================

type ImportPatternDTO struct {
	Name       string  `json:"name"`
	Attendance [7]bool `json:"attendance"`
	Overnight  [7]bool `json:"overnight"`
	Visits     [7]int  `json:"visits"`
}

type ImportResponse struct {
	Patterns []ImportPatternDTO `json:"patterns"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error string `json:"error"`
}
