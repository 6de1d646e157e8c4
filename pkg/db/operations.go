package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Load returns the value stored under key and the time it was written.
// ok is false when the key is absent.
func (db *DB) Load(key string) (value []byte, writtenAt time.Time, ok bool, err error) {
	var ms int64
	err = db.QueryRow("SELECT value, written_at FROM cache_entries WHERE key = ?", key).Scan(&value, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to load cache entry %q: %w", key, err)
	}
	return value, time.UnixMilli(ms), true, nil
}

// Save inserts or replaces the entry for key.
func (db *DB) Save(key string, value []byte, writtenAt time.Time) error {
	_, err := db.Exec(`
		INSERT INTO cache_entries (key, value, written_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, written_at = excluded.written_at
	`, key, value, writtenAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save cache entry %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (db *DB) Delete(key string) error {
	if _, err := db.Exec("DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete cache entry %q: %w", key, err)
	}
	return nil
}

// PurgeOlderThan deletes entries written before cutoff and returns how many were removed.
func (db *DB) PurgeOlderThan(cutoff time.Time) (int64, error) {
	result, err := db.Exec("DELETE FROM cache_entries WHERE written_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache entries: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged entries: %w", err)
	}
	return n, nil
}
