// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// STORAGE KEYS
// =============================================================================

// Well-known keys under which the session is persisted. Values stored under
// these keys are restored verbatim at startup.
const (
	keyAuthToken = "auth_token"
	keyUserData  = "user_data"
)

// dbFileName is the SQLite database file inside the data directory.
const dbFileName = "session.db"

// =============================================================================
// SESSION STORE
// =============================================================================

// Store persists the session token and user profile across runs.
//
// When the SQLite database cannot be opened the store degrades to an
// in-memory map: the application keeps working with a non-persistent,
// initially unauthenticated session.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB           // nil when degraded
	mem map[string]string // fallback storage
}

// Open creates or opens the session database under dir. Storage failures
// are non-fatal: the returned store falls back to in-memory operation.
func Open(dir string) *Store {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.Printf("session store: cannot create %s, using in-memory store: %v", dir, err)
		return OpenInMemory()
	}

	path := filepath.Join(dir, dbFileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		log.Printf("session store: cannot open %s, using in-memory store: %v", path, err)
		return OpenInMemory()
	}

	if err := bootstrap(db); err != nil {
		log.Printf("session store: schema bootstrap failed, using in-memory store: %v", err)
		db.Close()
		return OpenInMemory()
	}

	return &Store{db: db}
}

// OpenInMemory returns a store that never touches disk.
func OpenInMemory() *Store {
	return &Store{mem: make(map[string]string)}
}

// bootstrap creates the key/value schema.
func bootstrap(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	return err
}

// Persistent reports whether the store is backed by disk.
func (s *Store) Persistent() bool {
	return s.db != nil
}

// Close releases the database handle. Safe on an in-memory store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.mem = make(map[string]string)
	return err
}

// =============================================================================
// SAVE / LOAD / CLEAR
// =============================================================================

// Save persists the token and profile atomically. A later Load, in this or
// a future run, returns the same pair until Clear is called.
func (s *Store) Save(token string, user *UserProfile) error {
	if token == "" {
		return errors.New("session store: empty token")
	}
	if user == nil {
		return errors.New("session store: nil user profile")
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session store: encode profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		s.mem[keyAuthToken] = token
		s.mem[keyUserData] = string(data)
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("session store: begin: %w", err)
	}
	defer tx.Rollback()

	const upsert = `INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.Exec(upsert, keyAuthToken, token); err != nil {
		return fmt.Errorf("session store: save token: %w", err)
	}
	if _, err := tx.Exec(upsert, keyUserData, string(data)); err != nil {
		return fmt.Errorf("session store: save profile: %w", err)
	}
	return tx.Commit()
}

// Load returns the persisted session. Missing or malformed data yields the
// empty session; load never fails.
func (s *Store) Load() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.get(keyAuthToken)
	if token == "" {
		return Session{}
	}

	raw := s.get(keyUserData)
	var user UserProfile
	if raw == "" || json.Unmarshal([]byte(raw), &user) != nil {
		// A token without a readable profile is treated as no session at
		// all rather than guessing at the user identity.
		return Session{}
	}
	if user.Username == "" {
		return Session{}
	}

	return Session{Token: token, User: &user}
}

// Clear removes the token and profile. Idempotent.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		delete(s.mem, keyAuthToken)
		delete(s.mem, keyUserData)
		return nil
	}

	_, err := s.db.Exec(`DELETE FROM kv WHERE key IN (?, ?)`, keyAuthToken, keyUserData)
	if err != nil {
		return fmt.Errorf("session store: clear: %w", err)
	}
	return nil
}

// get reads a single key, returning "" when absent. Caller holds s.mu.
func (s *Store) get(key string) string {
	if s.db == nil {
		return s.mem[key]
	}

	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}
