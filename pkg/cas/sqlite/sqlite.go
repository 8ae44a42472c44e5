// Package sqlite provides a SQLite-backed cas.Store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/chatvault/pkg/cas"
)

const scheme = "sqlite://"

// Store implements cas.Store using a SQLite table keyed by content key.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a new SQLite content store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("database path is required")
	}

	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database only lives as long as its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Debug("sqlite content store initialized", "db_path", dbPath)
	return s, nil
}

// migrate creates the contents table if it doesn't exist.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS contents (
		key TEXT PRIMARY KEY,
		turns TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// Put stores turns under key. Uses INSERT OR IGNORE for idempotent writes.
func (s *Store) Put(ctx context.Context, key string, turns []cas.Turn) error {
	if err := cas.CheckKey(key); err != nil {
		return err
	}

	data, err := json.Marshal(cas.CloneTurns(turns))
	if err != nil {
		return fmt.Errorf("marshaling content %s: %w", key, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO contents (key, turns) VALUES (?, ?)`,
		key, string(data),
	); err != nil {
		return fmt.Errorf("inserting content %s: %w", key, err)
	}

	return nil
}

// Get retrieves the turns stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]cas.Turn, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT turns FROM contents WHERE key = ?`, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cas.NotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("querying content %s: %w", key, err)
	}

	var turns []cas.Turn
	if err := json.Unmarshal([]byte(data), &turns); err != nil {
		return nil, fmt.Errorf("decoding content %s: %w", key, err)
	}

	return cas.CloneTurns(turns), nil
}

// Has checks whether content exists under key.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM contents WHERE key = ?`, key,
	).Scan(&n); err != nil {
		return false, fmt.Errorf("checking content %s: %w", key, err)
	}
	return n > 0, nil
}

// Locate returns a sqlite:// locator for key.
func (s *Store) Locate(key string) string {
	return scheme + key
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ cas.Store = (*Store)(nil)
