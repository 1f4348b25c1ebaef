package roster

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/careops/roster-engine/schedule"
	"github.com/careops/roster-engine/storage"
)

// =============================================================================
// REGISTRY - Master data collections
// =============================================================================

// Registry owns users, rooms, and staff. Every mutation re-persists the
// affected collection whole; a persistence failure is remembered but never
// rolls back the in-memory state.
type Registry struct {
	mu    sync.RWMutex
	users []User
	rooms []Room
	staff []Staff

	store      *storage.Store
	persistErr error
}

// NewRegistry loads master data from the store. The 9 default rooms are
// created and persisted on first run.
func NewRegistry(store *storage.Store) *Registry {
	r := &Registry{store: store}
	loadCollection(store, storage.KeyUsers, &r.users)
	loadCollection(store, storage.KeyRooms, &r.rooms)
	loadCollection(store, storage.KeyStaff, &r.staff)
	if len(r.rooms) == 0 {
		r.rooms = DefaultRooms()
		r.persistErr = r.persist(storage.KeyRooms, r.rooms)
	}
	return r
}

func loadCollection[T any](store *storage.Store, key string, dst *[]T) {
	if store == nil {
		return
	}
	data, ok, err := store.Load(key)
	if err != nil || !ok {
		return
	}
	// A corrupt payload leaves the collection empty; the adapter logged it.
	_ = json.Unmarshal(data, dst)
}

func (r *Registry) persist(key string, v any) error {
	if r.store == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.store.Save(key, data)
}

// PersistError reports whether the latest write durably landed. The registry
// itself stays authoritative either way.
func (r *Registry) PersistError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.persistErr
}

// =============================================================================
// USERS
// =============================================================================

// Users returns the roster ordered by sort ID.
func (r *Registry) Users() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, len(r.users))
	copy(out, r.users)
	sort.Slice(out, func(i, j int) bool { return out[i].SortID < out[j].SortID })
	return out
}

func (r *Registry) GetUser(userID string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.UserID == userID {
			return u, true
		}
	}
	return User{}, false
}

// HasUser satisfies the user-existence check the attendance store performs
// before a dialog save.
func (r *Registry) HasUser(userID string) bool {
	_, ok := r.GetUser(userID)
	return ok
}

// Register creates a new user with the lowest free ID and the next sort ID.
// Rejects with ErrRosterFull at the 29-user ceiling.
func (r *Registry) Register(name, displayName string, registered schedule.Date) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.users) >= MaxUsers {
		return User{}, fmt.Errorf("%w: %d users registered", schedule.ErrRosterFull, len(r.users))
	}
	id, err := NextUserID(r.users)
	if err != nil {
		return User{}, err
	}
	if displayName == "" {
		displayName = name
	}
	u := User{
		UserID:           id,
		Name:             name,
		DisplayName:      displayName,
		RegistrationDate: registered,
		SortID:           NextSortID(r.users),
	}
	if err := u.Validate(); err != nil {
		return User{}, err
	}
	r.users = append(r.users, u)
	r.persistErr = r.persist(storage.KeyUsers, r.users)
	return u, nil
}

// UpdateUser replaces an existing user record. Returns false when absent.
func (r *Registry) UpdateUser(u User) (bool, error) {
	if err := u.Validate(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].UserID == u.UserID {
			r.users[i] = u
			r.persistErr = r.persist(storage.KeyUsers, r.users)
			return true, nil
		}
	}
	return false, nil
}

// RemoveUser deletes a user from the roster. Returns false when absent.
func (r *Registry) RemoveUser(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].UserID == userID {
			r.users = append(r.users[:i], r.users[i+1:]...)
			r.persistErr = r.persist(storage.KeyUsers, r.users)
			return true
		}
	}
	return false
}

// =============================================================================
// ROOMS
// =============================================================================

// Rooms returns the 9 rooms ordered for display.
func (r *Registry) Rooms() []Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Room, len(r.rooms))
	copy(out, r.rooms)
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

func (r *Registry) GetRoom(roomID string) (Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, room := range r.rooms {
		if room.RoomID == roomID {
			return room, true
		}
	}
	return Room{}, false
}

// =============================================================================
// STAFF
// =============================================================================

func (r *Registry) Staff() []Staff {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Staff, len(r.staff))
	copy(out, r.staff)
	return out
}

func (r *Registry) AddStaff(name string) (Staff, error) {
	if name == "" || len([]rune(name)) > MaxNameLength {
		return Staff{}, schedule.NewValidationError([]string{"staff name must be 1-50 characters"})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Staff{StaffID: "staff_" + uuid.NewString()[:8], Name: name}
	r.staff = append(r.staff, s)
	r.persistErr = r.persist(storage.KeyStaff, r.staff)
	return s, nil
}

func (r *Registry) RemoveStaff(staffID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.staff {
		if r.staff[i].StaffID == staffID {
			r.staff = append(r.staff[:i], r.staff[i+1:]...)
			r.persistErr = r.persist(storage.KeyStaff, r.staff)
			return true
		}
	}
	return false
}
