// Package prefs persists client-local state between sessions: the last
// selected administrative scope and the auth token. Both are rehydrated
// at startup and cleared on logout or on the election-deactivation reset.
package prefs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/scrutin-io/scrutin/types"
)

const (
	keyScope = "scope"
	keyToken = "auth_token"
)

// Store is the SQLite-backed preference store.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database path under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "scrutin", "scrutin.sqlite")
}

// Open opens (creating if needed) the preference database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open prefs database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS prefs (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init prefs schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read pref %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("write pref %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM prefs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete pref %s: %w", key, err)
	}
	return nil
}

// Scope returns the persisted administrative selection, zero when unset.
func (s *Store) Scope() (types.Scope, error) {
	raw, err := s.get(keyScope)
	if err != nil || raw == "" {
		return types.Scope{}, err
	}
	var scope types.Scope
	if err := json.Unmarshal([]byte(raw), &scope); err != nil {
		return types.Scope{}, fmt.Errorf("decode persisted scope: %w", err)
	}
	return scope, nil
}

// SetScope persists the administrative selection.
func (s *Store) SetScope(scope types.Scope) error {
	raw, err := json.Marshal(scope)
	if err != nil {
		return fmt.Errorf("encode scope: %w", err)
	}
	return s.set(keyScope, string(raw))
}

// Token returns the persisted auth token, empty when unset.
func (s *Store) Token() (string, error) {
	return s.get(keyToken)
}

// SetToken persists the auth token.
func (s *Store) SetToken(token string) error {
	return s.set(keyToken, token)
}

// Reset clears all persisted state, both scope and token. Used by logout
// and by the election-deactivation reset.
func (s *Store) Reset() error {
	if err := s.delete(keyScope); err != nil {
		return err
	}
	return s.delete(keyToken)
}
