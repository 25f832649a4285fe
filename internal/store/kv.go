// Package store provides the durable key-value store backing the journal,
// implemented on SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS app_state (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Persisted state keys. The layout is a flat logical key-value store; the
// collection keys hold JSON arrays, the settings keys hold JSON scalars.
const (
	KeyPartnerName     = "partnerName"
	KeyPartnerPhoto    = "partnerPhotoData"
	KeyEntries         = "loveEntries"
	KeyRecentlyDeleted = "recentlyDeleted"

	KeyDailyReminderEnabled = "dailyReminderEnabled"
	KeyBiometricAuthEnabled = "biometricAuthEnabled"
	KeyJournalingGoal       = "journalingGoal"
	KeyReminderTime         = "reminderTime"
	KeySelectedFilter       = "selectedFilter"
	KeySortOption           = "sortOption"
	KeySortAscending        = "sortAscending"
)

// KV wraps a sql.DB with key-value operations over the app_state table.
type KV struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*KV, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &KV{conn: conn}, nil
}

// Close closes the underlying database connection.
func (kv *KV) Close() error {
	return kv.conn.Close()
}

// Get returns the raw value for key and whether it was present.
func (kv *KV) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := kv.conn.QueryRow(`SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get %s: %w", key, err)
	}
	return value, true, nil
}

// Put inserts or replaces the value for key.
func (kv *KV) Put(key string, value []byte) error {
	_, err := kv.conn.Exec(`
		INSERT INTO app_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("store: put %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are not an error.
func (kv *KV) Delete(keys ...string) error {
	tx, err := kv.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, key := range keys {
		if _, err := tx.Exec(`DELETE FROM app_state WHERE key = ?`, key); err != nil {
			return fmt.Errorf("store: delete %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// PutJSON marshals v and stores it under key.
func (kv *KV) PutJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", key, err)
	}
	return kv.Put(key, data)
}

// GetJSON decodes the value at key into v and reports whether a usable
// value was found. A missing key and a value that fails to decode both
// report false: corrupt persisted state degrades to defaults instead of
// failing the whole load.
func (kv *KV) GetJSON(key string, v any) bool {
	data, ok, err := kv.Get(key)
	if err != nil {
		slog.Warn("store: read failed", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("store: corrupt value ignored", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}
