/*
Package importer implements the tabular import pipeline that turns a weekly
service-plan export into user-registration candidates.

PIPELINE:
  1. Decode:   the export is Shift_JIS; fall back to UTF-8 when the decode
               produces replacement runes.
  2. Parse:    quote-escaped, comma-separated rows; the header row is
               skipped, short rows are skipped.
  3. Group:    the subject-name column carries forward - a blank name means
               the row continues the previous subject.
  4. Classify: the two-character service-code prefix picks the service
               kind (06 visit, 07 attendance, 08 overnight).
  5. Fold:     the Mon-Sun indicator columns merge per subject: attendance
               and overnight OR-fold, visit counts sum-fold.

The output is behavior-preserving input to user registration; it never
touches the scheduling stores directly.
*/
package importer

import (
	"encoding/csv"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

// Column positions in the export (0-based).
const (
	colName        = 1
	colServiceCode = 4
	colWeekStart   = 5 // Monday; 7 columns through Sunday
	minColumns     = 15
)

// ServiceKind classifies a row by its service-code prefix.
type ServiceKind string

const (
	KindVisit      ServiceKind = "visit"
	KindAttendance ServiceKind = "attendance"
	KindOvernight  ServiceKind = "overnight"
	KindUnknown    ServiceKind = "unknown"
)

// ClassifyService maps a service code to its kind by the first two
// characters.
func ClassifyService(code string) ServiceKind {
	if len(code) < 2 {
		return KindUnknown
	}
	switch code[:2] {
	case "06":
		return KindVisit
	case "07":
		return KindAttendance
	case "08":
		return KindOvernight
	default:
		return KindUnknown
	}
}

// =============================================================================
// DECODE
// =============================================================================

// Decode converts raw export bytes to a string. Shift_JIS is tried first;
// if the result contains replacement runes the input was not Shift_JIS and
// the bytes are taken as UTF-8.
func Decode(data []byte) string {
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(data)
	if err == nil && !strings.ContainsRune(string(decoded), utf8.RuneError) {
		return string(decoded)
	}
	return string(data)
}

// ParseRows parses decoded text into rows of fields. Rows may have varying
// field counts; blank lines are dropped.
func ParseRows(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, row := range rows {
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// =============================================================================
// WEEKLY PATTERNS
// =============================================================================

// WeeklyPattern is one subject's folded week, Monday first.
type WeeklyPattern struct {
	Name       string
	Attendance [7]bool // OR-fold of attendance rows
	Overnight  [7]bool // OR-fold of overnight rows
	Visits     [7]int  // sum-fold of visit rows
}

// ExtractPatterns folds parsed rows into per-subject weekly patterns,
// ordered by first appearance. The first row is the header and is skipped;
// rows with fewer than 15 columns are skipped; a blank subject name
// continues the previous subject.
func ExtractPatterns(rows [][]string) []WeeklyPattern {
	index := make(map[string]int)
	var patterns []WeeklyPattern
	current := ""

	for i, row := range rows {
		if i == 0 || len(row) < minColumns {
			continue
		}
		if name := strings.TrimSpace(row[colName]); name != "" {
			current = name
		}
		if current == "" {
			continue
		}
		pos, ok := index[current]
		if !ok {
			pos = len(patterns)
			index[current] = pos
			patterns = append(patterns, WeeklyPattern{Name: current})
		}

		kind := ClassifyService(strings.TrimSpace(row[colServiceCode]))
		week := row[colWeekStart : colWeekStart+7]
		fold(&patterns[pos], kind, week)
	}
	return patterns
}

func fold(p *WeeklyPattern, kind ServiceKind, week []string) {
	for i, cell := range week {
		cell = strings.TrimSpace(cell)
		n, err := strconv.Atoi(cell)
		if err != nil {
			continue
		}
		switch kind {
		case KindVisit:
			p.Visits[i] += n
		case KindAttendance:
			if n != 0 {
				p.Attendance[i] = true
			}
		case KindOvernight:
			if n != 0 {
				p.Overnight[i] = true
			}
		}
	}
}

// Extract runs the full pipeline on raw export bytes.
func Extract(data []byte) ([]WeeklyPattern, error) {
	rows, err := ParseRows(Decode(data))
	if err != nil {
		return nil, err
	}
	return ExtractPatterns(rows), nil
}
