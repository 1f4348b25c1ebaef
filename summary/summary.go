/*
Package summary folds the three activity stores into the facility-wide
at-a-glance view: one row of counts per calendar day.

Rows are derived state, recomputed on demand and never persisted. The
headline attendance figure is max(morning, afternoon) so a full-day user is
one person, not two.
*/
package summary

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/careops/roster-engine/attendance"
	"github.com/careops/roster-engine/overnight"
	"github.com/careops/roster-engine/schedule"
	"github.com/careops/roster-engine/visit"
)

// =============================================================================
// ROW
// =============================================================================

// Row is one day's aggregate. Utilization ratios are exact fractions of the
// respective ceilings, feeding the advisory banding surface.
type Row struct {
	Date           schedule.Date `json:"date"`
	MorningCount   int           `json:"morningCount"`
	AfternoonCount int           `json:"afternoonCount"`
	MaxCount       int           `json:"maxCount"`
	OvernightCount int           `json:"overnightCount"`
	VisitCount     int           `json:"visitCount"`

	// Staff workload, not attendee count: family-arranged transport is
	// excluded from these two.
	PickupByStaffCount  int `json:"pickupByStaffCount"`
	DropoffByStaffCount int `json:"dropoffByStaffCount"`

	AttendanceUtilization decimal.Decimal `json:"attendanceUtilization"`
	OvernightUtilization  decimal.Decimal `json:"overnightUtilization"`
}

// AttendanceBand classifies the headline count for display.
func (r Row) AttendanceBand() schedule.Band {
	return schedule.CapacityBand(r.MaxCount, schedule.AttendanceCapacity)
}

// OvernightBand classifies the nightly count for display.
func (r Row) OvernightBand() schedule.Band {
	return schedule.CapacityBand(r.OvernightCount, schedule.OvernightCapacity)
}

// =============================================================================
// AGGREGATOR
// =============================================================================

type Aggregator struct {
	Attendance *attendance.Store
	Overnight  *overnight.Store
	Visits     *visit.Store
}

func NewAggregator(att *attendance.Store, ovn *overnight.Store, vis *visit.Store) *Aggregator {
	return &Aggregator{Attendance: att, Overnight: ovn, Visits: vis}
}

// Day computes the aggregate row for a single date.
func (a *Aggregator) Day(date schedule.Date) Row {
	morning, afternoon := a.Attendance.CountsForDate(date)
	row := Row{
		Date:           date,
		MorningCount:   morning,
		AfternoonCount: afternoon,
		MaxCount:       max(morning, afternoon),
		OvernightCount: a.Overnight.NightlyOccupancy(date, ""),
		VisitCount:     a.Visits.CountForDate(date),
	}
	for _, e := range a.Attendance.ForDate(date) {
		if e.PickupBy == attendance.TransportStaff {
			row.PickupByStaffCount++
		}
		if e.DropoffBy == attendance.TransportStaff {
			row.DropoffByStaffCount++
		}
	}
	row.AttendanceUtilization = utilization(row.MaxCount, schedule.AttendanceCapacity)
	row.OvernightUtilization = utilization(row.OvernightCount, schedule.OvernightCapacity)
	return row
}

// Summarize computes a row for every calendar day of the month.
func (a *Aggregator) Summarize(year int, month time.Month) map[schedule.Date]Row {
	days := schedule.MonthDays(year, month)
	rows := make(map[schedule.Date]Row, len(days))
	for _, d := range days {
		rows[d] = a.Day(d)
	}
	return rows
}

func utilization(count, capacity int) decimal.Decimal {
	return decimal.NewFromInt(int64(count)).Div(decimal.NewFromInt(int64(capacity)))
}
