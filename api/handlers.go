/*
handlers.go - HTTP handlers for the day-roster scheduling engine

PURPOSE:
  Exposes the scheduling stores, reconciliation engine, and daily summary
  over REST. Handles HTTP request/response and JSON serialization, and
  delegates every decision to the domain packages.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: validation failures, malformed dates
  - 404: unknown record
  - 409: capacity hard-block, reservation conflict
  - 500: internal errors
  Overnight capacity warnings are NOT errors; they accompany a 200.

PERSISTENCE DEGRADATION:
  When the latest whole-store write failed, mutating responses carry an
  "X-Persist-Warning" header. The in-memory stores stay authoritative and
  the client keeps working.

SEE ALSO:
  - dto.go:    Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/careops/roster-engine/attendance"
	"github.com/careops/roster-engine/importer"
	"github.com/careops/roster-engine/overnight"
	"github.com/careops/roster-engine/reconcile"
	"github.com/careops/roster-engine/roster"
	"github.com/careops/roster-engine/schedule"
	"github.com/careops/roster-engine/summary"
	"github.com/careops/roster-engine/visit"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Registry   *roster.Registry
	Attendance *attendance.Store
	Overnight  *overnight.Store
	Visits     *visit.Store
	Engine     *reconcile.Engine
	Summary    *summary.Aggregator
	Log        *zap.Logger
}

func NewHandler(reg *roster.Registry, att *attendance.Store, ovn *overnight.Store, vis *visit.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Registry:   reg,
		Attendance: att,
		Overnight:  ovn,
		Visits:     vis,
		Engine:     reconcile.NewEngine(att, ovn),
		Summary:    summary.NewAggregator(att, ovn, vis),
		Log:        log,
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Warn("response encoding failed", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, schedule.ErrCapacityExceeded), errors.Is(err, schedule.ErrConflict):
		status = http.StatusConflict
	case schedule.IsClientError(err):
		status = http.StatusBadRequest
	}
	h.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (h *Handler) notFound(w http.ResponseWriter, what string) {
	h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: what + " not found"})
}

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// persistWarning flags a response whose durable write did not land.
func persistWarning(w http.ResponseWriter, err error) {
	if err != nil {
		w.Header().Set("X-Persist-Warning", "latest write not durable: "+err.Error())
	}
}

func queryDate(r *http.Request, name string) (schedule.Date, error) {
	return schedule.ParseDate(r.URL.Query().Get(name))
}

// =============================================================================
// MASTER DATA
// =============================================================================

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.Registry.Users()
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = toUserDTO(u)
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}
	registered := schedule.Today()
	if req.RegistrationDate != "" {
		var err error
		if registered, err = schedule.ParseDate(req.RegistrationDate); err != nil {
			h.writeError(w, schedule.NewValidationError([]string{err.Error()}))
			return
		}
	}
	u, err := h.Registry.Register(req.Name, req.DisplayName, registered)
	if err != nil {
		h.writeError(w, err)
		return
	}
	persistWarning(w, h.Registry.PersistError())
	h.writeJSON(w, http.StatusCreated, toUserDTO(u))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, ok := h.Registry.GetUser(chi.URLParam(r, "id"))
	if !ok {
		h.notFound(w, "user")
		return
	}
	h.writeJSON(w, http.StatusOK, toUserDTO(u))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !h.Registry.RemoveUser(chi.URLParam(r, "id")) {
		h.notFound(w, "user")
		return
	}
	persistWarning(w, h.Registry.PersistError())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Registry.Rooms())
}

func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Registry.Staff())
}

func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req CreateStaffRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}
	s, err := h.Registry.AddStaff(req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	persistWarning(w, h.Registry.PersistError())
	h.writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	if !h.Registry.RemoveStaff(chi.URLParam(r, "id")) {
		h.notFound(w, "staff")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// SaveAttendance is the dialog save: validation, user existence, and the
// hard capacity gate. 409 with count/capacity message when blocked.
func (h *Handler) SaveAttendance(w http.ResponseWriter, r *http.Request) {
	var req SaveAttendanceRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		h.writeError(w, schedule.NewValidationError([]string{err.Error()}))
		return
	}
	entry := attendance.Entry{
		UserID:    req.UserID,
		Date:      date,
		Section:   schedule.Section(req.Section),
		PickupBy:  attendance.Transport(req.PickupBy),
		DropoffBy: attendance.Transport(req.DropoffBy),
		Note:      req.Note,
	}
	if existing, ok := h.Attendance.Get(req.UserID, date); ok {
		entry.ID = existing.ID
	}
	if err := h.Attendance.Save(entry); err != nil {
		h.writeError(w, err)
		return
	}
	saved, _ := h.Attendance.Get(req.UserID, date)
	persistWarning(w, h.Attendance.PersistError())
	h.writeJSON(w, http.StatusOK, toAttendanceDTO(saved))
}

// ToggleAttendance is the quick-toggle path: one cycle step, no capacity
// gate, written immediately.
func (h *Handler) ToggleAttendance(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		h.writeError(w, schedule.NewValidationError([]string{err.Error()}))
		return
	}
	next := h.Engine.Toggle(req.UserID, date)
	persistWarning(w, h.Attendance.PersistError())
	h.writeJSON(w, http.StatusOK, ToggleResponse{
		UserID:  req.UserID,
		Date:    date.String(),
		Section: string(next),
		Symbol:  next.Symbol(),
	})
}

func (h *Handler) DeleteAttendance(w http.ResponseWriter, r *http.Request) {
	date, err := schedule.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeError(w, schedule.NewValidationError([]string{err.Error()}))
		return
	}
	if !h.Attendance.Delete(chi.URLParam(r, "userId"), date) {
		h.notFound(w, "attendance entry")
		return
	}
	persistWarning(w, h.Attendance.PersistError())
	w.WriteHeader(http.StatusNoContent)
}

// GetBoard returns the rendered month for one user: a symbol and border per
// calendar day, computed by the reconciliation engine.
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if _, ok := h.Registry.GetUser(userID); !ok {
		h.notFound(w, "user")
		return
	}
	month := r.URL.Query().Get("month")
	year, m, err := schedule.ParseYearMonth(month)
	if err != nil {
		h.writeError(w, schedule.NewValidationError([]string{err.Error()}))
		return
	}
	days := schedule.MonthDays(year, m)
	cells := make([]CellDTO, len(days))
	for i, d := range days {
		cells[i] = CellDTO{
			Date:   d.String(),
			Symbol: h.Engine.DisplaySymbol(userID, d),
			Border: string(h.Engine.BorderState(userID, d)),
		}
	}
	h.writeJSON(w, http.StatusOK, BoardResponse{UserID: userID, Month: month, Cells: cells})
}

// =============================================================================
// OVERNIGHT
// =============================================================================

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	var list []overnight.Reservation
	if userID := r.URL.Query().Get("user"); userID != "" {
		list = h.Overnight.ForUser(userID)
	} else {
		list = h.Overnight.All()
	}
	out := make([]ReservationDTO, len(list))
	for i, res := range list {
		out[i] = toReservationDTO(res)
	}
	h.writeJSON(w, http.StatusOK, out)
}

// SaveReservation upserts a stay. Same-room conflicts reject with 409;
// capacity is advisory and returns warnings alongside the accepted save.
func (h *Handler) SaveReservation(w http.ResponseWriter, r *http.Request) {
	var req SaveReservationRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}
	start, err := schedule.ParseDate(req.StartDate)
	if err != nil {
		h.writeError(w, schedule.NewValidationError([]string{err.Error()}))
		return
	}
	end, err := schedule.ParseDate(req.EndDate)
	if err != nil {
		h.writeError(w, schedule.NewValidationError([]string{err.Error()}))
		return
	}
	res := overnight.Reservation{
		ID:        req.ID,
		UserID:    req.UserID,
		RoomID:    req.RoomID,
		StartDate: start,
		EndDate:   end,
		Note:      req.Note,
	}
	result, err := h.Overnight.Save(res)
	if err != nil {
		h.writeError(w, err)
		return
	}
	persistWarning(w, h.Overnight.PersistError())
	h.writeJSON(w, http.StatusOK, SaveReservationResponse{
		Reservation: toReservationDTO(result.Reservation),
		Warnings:    result.Warnings,
	})
}

// DeleteReservation clears a stay through the reconciliation engine so the
// cascade removes in-range attendance entries too.
func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	if !h.Engine.ClearStay(chi.URLParam(r, "id")) {
		h.notFound(w, "reservation")
		return
	}
	persistWarning(w, h.Overnight.PersistError())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RoomAvailability(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		h.writeError(w, schedule.NewValidationError([]string{err.Error()}))
		return
	}
	available, occupied := h.Overnight.RoomAvailability(date, h.Registry.Rooms())
	h.writeJSON(w, http.StatusOK, RoomAvailabilityResponse{
		Date:      date.String(),
		Available: available,
		Occupied:  occupied,
	})
}

// =============================================================================
// VISITS
// =============================================================================

func (h *Handler) ListVisits(w http.ResponseWriter, r *http.Request) {
	var list []visit.Appointment
	if userID := r.URL.Query().Get("user"); userID != "" {
		list = h.Visits.ForUser(userID)
	} else if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		date, err := schedule.ParseDate(dateStr)
		if err != nil {
			h.writeError(w, schedule.NewValidationError([]string{err.Error()}))
			return
		}
		list = h.Visits.ForDate(date)
	}
	out := make([]AppointmentDTO, len(list))
	for i, a := range list {
		out[i] = toAppointmentDTO(a)
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) SaveVisit(w http.ResponseWriter, r *http.Request) {
	var req SaveAppointmentRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		h.writeError(w, schedule.NewValidationError([]string{err.Error()}))
		return
	}
	saved, err := h.Visits.Save(visit.Appointment{
		ID:              req.ID,
		UserID:          req.UserID,
		Date:            date,
		Band:            visit.TimeBand(req.TimeBand),
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		StaffID:         req.StaffID,
		Note:            req.Note,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	persistWarning(w, h.Visits.PersistError())
	h.writeJSON(w, http.StatusOK, toAppointmentDTO(saved))
}

func (h *Handler) DeleteVisit(w http.ResponseWriter, r *http.Request) {
	if !h.Visits.Delete(chi.URLParam(r, "id")) {
		h.notFound(w, "appointment")
		return
	}
	persistWarning(w, h.Visits.PersistError())
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SUMMARY
// =============================================================================

// GetSummary returns one row per calendar day of the month, in date order.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := schedule.ParseYearMonth(r.URL.Query().Get("month"))
	if err != nil {
		h.writeError(w, schedule.NewValidationError([]string{err.Error()}))
		return
	}
	rows := h.Summary.Summarize(year, month)
	days := schedule.MonthDays(year, month)
	out := make([]SummaryRowDTO, len(days))
	for i, d := range days {
		out[i] = toSummaryDTO(rows[d])
	}
	h.writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportPlan runs the weekly-plan import pipeline on the uploaded file and
// returns the folded patterns as registration candidates.
func (h *Handler) ImportPlan(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "failed to read body"})
		return
	}
	patterns, err := importer.Extract(data)
	if err != nil {
		h.writeError(w, schedule.NewValidationError([]string{err.Error()}))
		return
	}
	out := make([]ImportPatternDTO, len(patterns))
	for i, p := range patterns {
		out[i] = ImportPatternDTO{
			Name:       p.Name,
			Attendance: p.Attendance,
			Overnight:  p.Overnight,
			Visits:     p.Visits,
		}
	}
	h.writeJSON(w, http.StatusOK, ImportResponse{Patterns: out})
}
