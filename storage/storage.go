/*
Package storage provides the synchronous key-value persistence adapter.

PURPOSE:
  Every activity store persists its ENTIRE collection as one JSON value
  under a fixed, namespaced key after each mutation. The durability unit is
  "whole store", never "single record": downstream code assumes a fully
  consistent snapshot is on disk after any mutation returns.

FAILURE MODEL:
  Persistence failures are degraded-but-non-fatal. They are caught here,
  logged, and reported to the caller; the in-memory store remains
  authoritative for the session and the user keeps working. No retries.

NAMESPACE:
  All keys carry the constant "projectB_" prefix. A one-time migration
  copies values from legacy, unprefixed keys; it runs at most once per
  backing store, gated by a migration-flag key.

IMPLEMENTATIONS:
  - storage.NewMemory():      in-memory map, used by tests
  - sqlitekv.Open(path):      SQLite-backed, used by cmd/server

SEE ALSO:
  - sqlitekv/sqlitekv.go: SQLite backend
  - migrate.go:           legacy key migration
*/
package storage

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Prefix namespaces every persisted key.
const Prefix = "projectB_"

// Logical keys, one per persisted store.
const (
	KeyUsers      = "users"
	KeyRooms      = "rooms"
	KeyStaff      = "staff"
	KeyAttendance = "kayoi"
	KeyOvernight  = "tomari_reservations"
	KeyVisits     = "houmon_schedules"

	// keyMigrated gates the legacy-key migration.
	keyMigrated = "migration_done"
)

// =============================================================================
// KV - Raw backend contract (full keys, no namespace knowledge)
// =============================================================================

type KV interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, bool, error)
	Delete(key string) error
	Keys() ([]string, error)
}

// =============================================================================
// STORE - Namespaced adapter over a KV backend
// =============================================================================

// Store applies the namespace prefix and absorbs backend failures into logs.
// All methods are synchronous; callers never block on I/O beyond the
// backend's own synchronous write.
type Store struct {
	kv  KV
	log *zap.Logger
}

func New(kv KV, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: kv, log: log}
}

// Save persists value under the namespaced key. A non-nil error means the
// write did not durably land; the caller's in-memory state stays valid.
func (s *Store) Save(key string, value []byte) error {
	if err := s.kv.Set(Prefix+key, value); err != nil {
		s.log.Warn("storage save failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Load returns the stored value, or ok=false when the key is absent.
// Corrupt or unreadable values are logged and reported as absent with the
// error attached, so callers can fall back to an empty collection.
func (s *Store) Load(key string) ([]byte, bool, error) {
	value, ok, err := s.kv.Get(Prefix + key)
	if err != nil {
		s.log.Warn("storage load failed", zap.String("key", key), zap.Error(err))
		return nil, false, err
	}
	return value, ok, nil
}

func (s *Store) Remove(key string) error {
	if err := s.kv.Delete(Prefix + key); err != nil {
		s.log.Warn("storage remove failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) Has(key string) bool {
	_, ok, _ := s.kv.Get(Prefix + key)
	return ok
}

// =============================================================================
// MEMORY - In-memory KV backend (tests and ephemeral runs)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, true, nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
