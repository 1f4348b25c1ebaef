/*
Package sqlitekv provides a SQLite-backed implementation of storage.KV.

PURPOSE:
  A single key/value table stands in for the browser's local storage. Each
  value is one whole serialized store, so the table stays tiny (a handful of
  rows) and every write is a single upsert.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - readers don't block the single writer
  - better crash recovery for the whole-store write pattern

USAGE:
  kv, err := sqlitekv.Open("./roster.db")
  store := storage.New(kv, logger)

SEE ALSO:
  - storage/storage.go: the namespaced adapter and KV contract
*/
package sqlitekv

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// KV implements storage.KV on a SQLite database.
type KV struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the database at path. Use ":memory:" for tests.
func Open(path string) (*KV, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and matches
	// the single-writer usage pattern.
	db.SetMaxOpenConns(1)

	kv := &KV{db: db}
	if err := kv.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return kv, nil
}

func (k *KV) Close() error { return k.db.Close() }

func (k *KV) migrate() error {
	_, err := k.db.Exec(`
	CREATE TABLE IF NOT EXISTS kv_records (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	);`)
	return err
}

func (k *KV) Set(key string, value []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, err := k.db.Exec(`
		INSERT INTO kv_records (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	return err
}

func (k *KV) Get(key string) ([]byte, bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	var value []byte
	err := k.db.QueryRow(`SELECT value FROM kv_records WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (k *KV) Delete(key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, err := k.db.Exec(`DELETE FROM kv_records WHERE key = ?`, key)
	return err
}

func (k *KV) Keys() ([]string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	rows, err := k.db.Query(`SELECT key FROM kv_records ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
