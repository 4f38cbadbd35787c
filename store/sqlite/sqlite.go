/*
Package sqlite persists the local AppState snapshot in SQLite.

PURPOSE:
  Implements cloudsync.LocalStore. The whole AppState is one JSON document
  stored in a single row at a fixed key - read once at startup, overwritten
  after every state change. The same pattern applies to any SQL backend; only
  dialect details differ.

SCHEMA:
  app_snapshots:
    doc_key     fixed storage key ("app_state")
    version     snapshot format version (currently 1)
    document    full AppState as JSON
    updated_at  write timestamp (diagnostics only)

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block the
  single writer and crash recovery is cleaner.

CONCURRENCY:
  Uses sync.Mutex; writes are whole-document and sequential per device.

USAGE:
  store, err := sqlite.New("./data/rentledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - cloudsync/reconciler.go: LocalStore consumer
  - store/memory:            In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/thaithanh/rentledger/billing"
)

const (
	storageKey      = "app_state"
	snapshotVersion = 1
)

// Store implements cloudsync.LocalStore on SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at the given path. Use ":memory:" for
// an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS app_snapshots (
		doc_key    TEXT PRIMARY KEY,
		version    INTEGER NOT NULL,
		document   TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Save overwrites the stored snapshot with the given state.
func (s *Store) Save(ctx context.Context, state billing.AppState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_snapshots (doc_key, version, document, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(doc_key) DO UPDATE SET
			version    = excluded.version,
			document   = excluded.document,
			updated_at = excluded.updated_at`,
		storageKey, snapshotVersion, string(doc), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load reads the stored snapshot. Returns (nil, nil) when none exists yet.
func (s *Store) Load(ctx context.Context) (*billing.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var version int
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT version, document FROM app_snapshots WHERE doc_key = ?`,
		storageKey).Scan(&version, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", version)
	}

	var state billing.AppState
	if err := json.Unmarshal([]byte(doc), &state); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &state, nil
}
