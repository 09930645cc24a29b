// Package userdata persists per-user values that adaptive algorithms keep
// between sessions, such as the last threshold reached.
package userdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Kind tags the type a value was stored with.
type Kind string

const (
	KindInt    Kind = "int"
	KindDouble Kind = "double"
	KindString Kind = "string"
	KindBool   Kind = "bool"
)

// ErrKindMismatch is returned when a key is read with a different kind
// than it was written with.
var ErrKindMismatch = errors.New("stored value has a different kind")

const schema = `CREATE TABLE IF NOT EXISTS user_data (
	key   TEXT PRIMARY KEY,
	kind  TEXT NOT NULL,
	value TEXT NOT NULL
)`

// Store is a key/value table in a sqlite database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = MemoryPath
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open user data %s: %w", path, err)
	}
	// every :memory: connection is a separate database
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create user data schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(ctx context.Context, key string, kind Kind) (string, bool, error) {
	var k, v string
	err := s.db.QueryRowContext(ctx, `SELECT kind, value FROM user_data WHERE key = ?`, key).Scan(&k, &v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if Kind(k) != kind {
		return "", false, fmt.Errorf("%w: %s is %s, not %s", ErrKindMismatch, key, k, kind)
	}
	return v, true, nil
}

func (s *Store) set(ctx context.Context, key string, kind Kind, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_data (key, kind, value) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET kind = excluded.kind, value = excluded.value`,
		key, string(kind), value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// GetInt returns the int stored at key, or def when the key is absent.
func (s *Store) GetInt(ctx context.Context, key string, def int64) (int64, error) {
	v, ok, err := s.get(ctx, key, KindInt)
	if err != nil || !ok {
		return def, err
	}
	return strconv.ParseInt(v, 10, 64)
}

// SetInt stores an int.
func (s *Store) SetInt(ctx context.Context, key string, v int64) error {
	return s.set(ctx, key, KindInt, strconv.FormatInt(v, 10))
}

// GetDouble returns the double stored at key, or def when the key is absent.
func (s *Store) GetDouble(ctx context.Context, key string, def float64) (float64, error) {
	v, ok, err := s.get(ctx, key, KindDouble)
	if err != nil || !ok {
		return def, err
	}
	return strconv.ParseFloat(v, 64)
}

// SetDouble stores a double.
func (s *Store) SetDouble(ctx context.Context, key string, v float64) error {
	return s.set(ctx, key, KindDouble, strconv.FormatFloat(v, 'g', -1, 64))
}

// GetString returns the string stored at key, or def when the key is absent.
func (s *Store) GetString(ctx context.Context, key, def string) (string, error) {
	v, ok, err := s.get(ctx, key, KindString)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// SetString stores a string.
func (s *Store) SetString(ctx context.Context, key, v string) error {
	return s.set(ctx, key, KindString, v)
}

// GetBool returns the bool stored at key, or def when the key is absent.
func (s *Store) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	v, ok, err := s.get(ctx, key, KindBool)
	if err != nil || !ok {
		return def, err
	}
	return strconv.ParseBool(v)
}

// SetBool stores a bool.
func (s *Store) SetBool(ctx context.Context, key string, v bool) error {
	return s.set(ctx, key, KindBool, strconv.FormatBool(v))
}

// Has reports whether key holds a value of any kind.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_data WHERE key = ?`, key).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", key, err)
	}
	return n > 0, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_data WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Keys lists every stored key in order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM user_data ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
