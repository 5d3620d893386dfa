package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

const currentVersion = 2

const memoryPath = ":memory:"

// timeLayout is fixed-width so that lexical order in SQLite equals
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Store struct {
	db  *sql.DB
	log *log.Logger
	now func() time.Time

	writeMu sync.Mutex
	retries int
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the clock used to stamp CreateDate and to compute the
// last-month window. Passing nil keeps time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWriteRetries sets how many times a failed write is retried before
// ErrStorageWriteFailed is returned. The default is one immediate retry.
func WithWriteRetries(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// Every failure is reported as ErrStorageOpenFailed.
func New(dbPath string, opts ...Option) (*Store, error) {
	s := &Store{
		log:     log.Default(),
		now:     time.Now,
		retries: 1,
	}
	for _, opt := range opts {
		opt(s)
	}

	memory := dbPath == memoryPath
	dsn := dbPath
	if !memory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create db directory: %w", ErrStorageOpenFailed, err)
		}
		// Pragmas in the DSN are applied to every pooled connection.
		dsn = dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", ErrStorageOpenFailed, err)
	}

	if memory {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA foreign_keys=ON",
			"PRAGMA busy_timeout=5000",
		}
		for _, p := range pragmas {
			if _, err := db.Exec(p); err != nil {
				db.Close()
				return nil, fmt.Errorf("%w: exec pragma %q: %w", ErrStorageOpenFailed, p, err)
			}
		}
	} else {
		db.SetMaxOpenConns(4)
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: ping database: %w", ErrStorageOpenFailed, err)
		}
	}

	s.db = db
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrStorageOpenFailed, err)
	}
	s.log.Info("storage opened", "path", dbPath)
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory(opts ...Option) (*Store, error) {
	return New(memoryPath, opts...)
}

// Close flushes the write-ahead log and closes the database.
func (s *Store) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	s.log.Info("storage closed")
	return nil
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}
	if version < 2 {
		if _, err := tx.Exec(schemaV2); err != nil {
			return fmt.Errorf("migrate v2: %w", err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	s.log.Info("storage migrated", "from", version, "to", currentVersion)
	return nil
}

const schemaV1 = `
	CREATE TABLE IF NOT EXISTS mood_notes (
		id          TEXT PRIMARY KEY,
		mood_level  INTEGER NOT NULL CHECK (mood_level BETWEEN 1 AND 5),
		create_date TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_mood_notes_create_date ON mood_notes(create_date);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('appearance',     'system'),
		('default_window', 'month');
	`

// schemaV2 adds the optional edit date. Existing rows keep NULL.
const schemaV2 = `ALTER TABLE mood_notes ADD COLUMN edit_date TEXT;`

// DefaultDBPath returns ~/.config/moodtrack/moodtrack.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "moodtrack", "moodtrack.db"), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
