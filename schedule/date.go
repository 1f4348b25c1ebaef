/*
Package schedule provides the shared primitives for the day-roster engine.

PURPOSE:
  This package contains the domain-agnostic building blocks that every
  activity store (attendance, overnight, visit) is expressed in terms of:
  calendar dates, closed date periods, attendance sections, and the
  capacity verdicts that decide whether a booking is allowed.

KEY CONCEPTS IN THIS FILE (date.go):
  - Date:   A calendar day (no time-of-day component, always UTC)
  - Period: A closed [Start, End] date interval

DESIGN PRINCIPLES:
  1. Day granularity: the roster has no sub-day bookings; a Date is the
     only time key the stores use.
  2. Closed intervals: an overnight stay [check-in, check-out] includes
     both endpoints, so Period.Contains and Period.Overlaps are inclusive.
  3. String form: dates serialize as "YYYY-MM-DD", the same shape the
     persisted records use.

SEE ALSO:
  - section.go:  Attendance sections and display symbols
  - capacity.go: Occupancy verdicts and banding
  - errors.go:   Error taxonomy
*/
package schedule

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - A calendar day
// =============================================================================

// DateLayout is the canonical serialized form of a Date.
const DateLayout = "2006-01-02"

type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustDate is ParseDate for literals in tests and seed data; panics on error.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to Date) int { return int(to.t.Sub(from.t).Hours() / 24) }

// AbsDays returns the absolute day distance between two dates.
func AbsDays(a, b Date) int {
	n := DaysBetween(a, b)
	if n < 0 {
		return -n
	}
	return n
}

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

func (d Date) String() string { return d.t.Format(DateLayout) }

// MarshalJSON serializes as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date JSON: %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// PERIOD - Closed [Start, End] date interval
// =============================================================================

type Period struct {
	Start Date
	End   Date
}

// Contains reports whether d is within [Start, End], inclusive both ends.
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps reports whether two closed intervals intersect.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && p.End.AfterOrEqual(other.Start)
}

// Days returns every day in the period, in order.
func (p Period) Days() []Date {
	var days []Date
	for d := p.Start; d.BeforeOrEqual(p.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Nights returns the number of nights for an overnight period.
func (p Period) Nights() int { return DaysBetween(p.Start, p.End) }

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// MONTH UTILITIES
// =============================================================================

// ParseYearMonth parses a "YYYY-MM" string.
func ParseYearMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year-month %q: %w", s, err)
	}
	return t.Year(), t.Month(), nil
}

// DaysInMonth returns the number of calendar days in the given month,
// using day 0 of the following month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthDays returns every calendar day of the month, in order.
func MonthDays(year int, month time.Month) []Date {
	n := DaysInMonth(year, month)
	days := make([]Date, n)
	for i := 0; i < n; i++ {
		days[i] = NewDate(year, month, i+1)
	}
	return days
}
