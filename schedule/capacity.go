package schedule

import "fmt"

// =============================================================================
// CAPACITY - Ceilings, verdicts, and banding
// =============================================================================

const (
	// AttendanceCapacity is the per-section day-attendance ceiling.
	// A breach here hard-blocks the save.
	AttendanceCapacity = 15

	// OvernightCapacity is the nightly stay ceiling. A breach here is
	// advisory only: the save proceeds with warnings.
	OvernightCapacity = 9
)

type Verdict string

const (
	VerdictOK      Verdict = "ok"
	VerdictAtLimit Verdict = "at-limit"
	VerdictOver    Verdict = "over"
)

// CapacityResult is the outcome of a capacity check. Callers decide what
// Count means: the day-attendance gate passes the occupancy without the
// candidate (a full room has no seat to give), the overnight advisory passes
// the occupancy with the candidate's night included.
type CapacityResult struct {
	Verdict  Verdict
	Count    int
	Capacity int
	Message  string
}

// Blocking reports whether the verdict forbids the save in a hard-blocking
// domain. Advisory domains surface the same message as a warning instead.
func (r CapacityResult) Blocking() bool { return r.Verdict != VerdictOK }

// CheckCapacity compares an occupancy count against a ceiling.
// count == capacity is already blocking: the seat the candidate would take
// does not exist.
func CheckCapacity(count, capacity int) CapacityResult {
	r := CapacityResult{Count: count, Capacity: capacity}
	switch {
	case count > capacity:
		r.Verdict = VerdictOver
		r.Message = fmt.Sprintf("over capacity (%d/%d)", count, capacity)
	case count == capacity:
		r.Verdict = VerdictAtLimit
		r.Message = fmt.Sprintf("at capacity (%d/%d)", count, capacity)
	default:
		r.Verdict = VerdictOK
		r.Message = fmt.Sprintf("within capacity (%d/%d)", count, capacity)
	}
	return r
}

// =============================================================================
// BANDING - Advisory color bands for the summary surface
// =============================================================================

type Band string

const (
	BandOK   Band = "ok"
	BandNear Band = "near" // one seat left
	BandAt   Band = "at"
	BandOver Band = "over"
)

// CapacityBand classifies a count for display. Unlike CheckCapacity this is
// purely presentational and never blocks anything.
func CapacityBand(count, capacity int) Band {
	switch {
	case count > capacity:
		return BandOver
	case count == capacity:
		return BandAt
	case count >= capacity-1:
		return BandNear
	default:
		return BandOK
	}
}
