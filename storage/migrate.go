package storage

import "go.uber.org/zap"

// legacyKeys are the pre-namespace key names that earlier deployments wrote.
var legacyKeys = []string{
	KeyUsers, KeyRooms, KeyStaff, KeyAttendance, KeyOvernight, KeyVisits,
}

// MigrateLegacy copies values from legacy, unprefixed keys to their
// namespaced keys. It runs at most once per backing store: a migration-flag
// key records completion, and subsequent calls return immediately.
// Namespaced values already present are never overwritten.
func (s *Store) MigrateLegacy() (int, error) {
	if s.Has(keyMigrated) {
		return 0, nil
	}

	migrated := 0
	for _, key := range legacyKeys {
		value, ok, err := s.kv.Get(key)
		if err != nil {
			return migrated, err
		}
		if !ok || s.Has(key) {
			continue
		}
		if err := s.Save(key, value); err != nil {
			return migrated, err
		}
		migrated++
	}

	if err := s.Save(keyMigrated, []byte("1")); err != nil {
		return migrated, err
	}
	if migrated > 0 {
		s.log.Info("legacy keys migrated", zap.Int("count", migrated))
	}
	return migrated, nil
}
