/*
Package roster holds the facility master data: registered users (ceiling 29),
the fixed set of 9 rooms, and staff. Collections are small, ID-keyed, and
re-persisted whole after every mutation.
*/
package roster

import (
	"fmt"
	"regexp"

	"github.com/careops/roster-engine/schedule"
)

const (
	// MaxUsers is the registration ceiling.
	MaxUsers = 29
	// TotalRooms is the fixed room count.
	TotalRooms = 9
	// MaxNameLength bounds user and staff names.
	MaxNameLength = 50
)

var userIDPattern = regexp.MustCompile(`^user\d{3}$`)

// =============================================================================
// USER
// =============================================================================

type User struct {
	UserID           string        `json:"userId"`
	Name             string        `json:"name"`
	DisplayName      string        `json:"displayName"`
	RegistrationDate schedule.Date `json:"registrationDate"`
	SortID           int           `json:"sortId"`
}

func (u User) Validate() error {
	var reasons []string
	if !userIDPattern.MatchString(u.UserID) {
		reasons = append(reasons, "userId must match user\\d{3}")
	}
	if u.Name == "" {
		reasons = append(reasons, "name is required")
	}
	if len([]rune(u.Name)) > MaxNameLength {
		reasons = append(reasons, fmt.Sprintf("name must be at most %d characters", MaxNameLength))
	}
	// Sort IDs grow past the roster ceiling as users churn, so only the
	// lower bound is enforced here.
	if u.SortID < 1 {
		reasons = append(reasons, "sortId must be positive")
	}
	return schedule.NewValidationError(reasons)
}

// NextUserID returns the lowest free "userNNN" identifier.
func NextUserID(existing []User) (string, error) {
	used := make(map[string]bool, len(existing))
	for _, u := range existing {
		used[u.UserID] = true
	}
	for i := 1; i <= MaxUsers; i++ {
		id := fmt.Sprintf("user%03d", i)
		if !used[id] {
			return id, nil
		}
	}
	return "", schedule.ErrRosterFull
}

// NextSortID returns max(sortId)+1, or 1 for an empty roster. Sort IDs stay
// unique but are not required to be contiguous after deletions.
func NextSortID(existing []User) int {
	next := 1
	for _, u := range existing {
		if u.SortID >= next {
			next = u.SortID + 1
		}
	}
	return next
}

// =============================================================================
// ROOM
// =============================================================================

type Room struct {
	RoomID       string `json:"roomId"`
	RoomNumber   int    `json:"roomNumber"`
	DisplayOrder int    `json:"displayOrder"`
}

func (r Room) Validate() error {
	var reasons []string
	if r.RoomNumber < 1 || r.RoomNumber > TotalRooms {
		reasons = append(reasons, fmt.Sprintf("roomNumber must be in [1,%d]", TotalRooms))
	}
	return schedule.NewValidationError(reasons)
}

// DefaultRooms builds the 9 default rooms created on first run.
func DefaultRooms() []Room {
	rooms := make([]Room, TotalRooms)
	for i := 1; i <= TotalRooms; i++ {
		rooms[i-1] = Room{
			RoomID:       fmt.Sprintf("room%d", i),
			RoomNumber:   i,
			DisplayOrder: i,
		}
	}
	return rooms
}

// =============================================================================
// STAFF
// =============================================================================

type Staff struct {
	StaffID string `json:"staffId"`
	Name    string `json:"name"`
}
