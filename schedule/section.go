package schedule

// =============================================================================
// SECTION - Attendance state for one user on one day
// =============================================================================

// Section is the single-state attendance representation. A stored entry with
// SectionNone is an explicit-empty marker: the user deliberately cleared the
// cell. That is distinct from no entry at all, which leaves room for an
// overnight stay to imply a full-day default.
type Section string

const (
	SectionNone          Section = ""
	SectionFullDay       Section = "full-day"
	SectionHalfMorning   Section = "half-morning"
	SectionHalfAfternoon Section = "half-afternoon"
)

// Valid reports whether s is one of the three bookable sections.
func (s Section) Valid() bool {
	switch s {
	case SectionFullDay, SectionHalfMorning, SectionHalfAfternoon:
		return true
	}
	return false
}

// Known reports whether s is a bookable section or the explicit-empty marker.
func (s Section) Known() bool { return s == SectionNone || s.Valid() }

// Symbol returns the calendar-cell symbol for the section.
func (s Section) Symbol() string {
	switch s {
	case SectionFullDay:
		return "○"
	case SectionHalfMorning:
		return "◓"
	case SectionHalfAfternoon:
		return "◒"
	default:
		return ""
	}
}

// NextInCycle returns the state that follows s in the quick-toggle cycle:
// blank → full-day → half-morning → half-afternoon → blank, wrapping.
// Unknown states reset to full-day.
func (s Section) NextInCycle() Section {
	switch s {
	case SectionNone:
		return SectionFullDay
	case SectionFullDay:
		return SectionHalfMorning
	case SectionHalfMorning:
		return SectionHalfAfternoon
	case SectionHalfAfternoon:
		return SectionNone
	default:
		return SectionFullDay
	}
}
