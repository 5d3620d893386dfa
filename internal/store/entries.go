package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sadopc/moodtrack/internal/mood"
)

var validate = validator.New()

type addEntryRequest struct {
	Level int `validate:"min=1,max=5"`
}

const entryColumns = `id, mood_level, create_date, edit_date`

// AddEntry stores a new entry stamped with a fresh id and the current time.
func (s *Store) AddEntry(level mood.Level) (*MoodEntry, error) {
	if err := validate.Struct(addEntryRequest{Level: int(level)}); err != nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMoodLevel, int(level))
	}

	e := &MoodEntry{
		ID:         uuid.New(),
		Level:      level,
		CreateDate: s.now().UTC(),
	}
	err := s.write("add entry", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO mood_notes (id, mood_level, create_date) VALUES (?, ?, ?)`,
			e.ID.String(), int(e.Level), formatTime(e.CreateDate),
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("entry added", "id", e.ID, "level", int(e.Level))
	return e, nil
}

// DeleteEntry removes the entry with the given id. Deleting an id that does
// not exist is not an error.
func (s *Store) DeleteEntry(id uuid.UUID) error {
	var removed int64
	err := s.write("delete entry", func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM mood_notes WHERE id = ?`, id.String())
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if removed == 0 {
		s.log.Debug("delete of unknown entry ignored", "id", id)
	}
	return nil
}

// FetchEntriesSince returns entries created strictly after ref, oldest first.
func (s *Store) FetchEntriesSince(ref time.Time) ([]MoodEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryColumns+` FROM mood_notes
		 WHERE create_date > ?
		 ORDER BY create_date, rowid`,
		formatTime(ref),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch entries: %w", ErrStorageReadFailed, err)
	}
	return scanEntries(rows)
}

// FetchLastMonth returns entries created within one calendar month of now.
func (s *Store) FetchLastMonth() ([]MoodEntry, error) {
	return s.FetchEntriesSince(s.now().AddDate(0, -1, 0))
}

func (s *Store) GetEntry(id uuid.UUID) (*MoodEntry, error) {
	row := s.db.QueryRow(`SELECT `+entryColumns+` FROM mood_notes WHERE id = ?`, id.String())
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entry %s: %w", id, ErrEntryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get entry %s: %w", ErrStorageReadFailed, id, err)
	}
	return &e, nil
}

// ListEntries returns entries newest first.
func (s *Store) ListEntries(f EntryFilter) ([]MoodEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM mood_notes WHERE 1=1`
	var args []any

	if f.From != nil {
		query += ` AND create_date >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += ` AND create_date < ?`
		args = append(args, formatTime(*f.To))
	}
	query += ` ORDER BY create_date DESC, rowid DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %w", ErrStorageReadFailed, err)
	}
	return scanEntries(rows)
}

func (s *Store) CountEntries() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM mood_notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count entries: %w", ErrStorageReadFailed, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (MoodEntry, error) {
	var (
		e          MoodEntry
		id         string
		level      int
		createDate string
		editDate   sql.NullString
	)
	if err := r.Scan(&id, &level, &createDate, &editDate); err != nil {
		return e, err
	}

	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return e, fmt.Errorf("parse id %q: %w", id, err)
	}
	e.Level = mood.Level(level)
	if e.CreateDate, err = parseTime(createDate); err != nil {
		return e, fmt.Errorf("parse create_date %q: %w", createDate, err)
	}
	if editDate.Valid {
		t, err := parseTime(editDate.String)
		if err != nil {
			return e, fmt.Errorf("parse edit_date %q: %w", editDate.String, err)
		}
		e.EditDate = &t
	}
	return e, nil
}

// scanEntries drains and closes rows. The result is never nil on success.
func scanEntries(rows *sql.Rows) ([]MoodEntry, error) {
	defer rows.Close()

	entries := []MoodEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan entry: %w", ErrStorageReadFailed, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate entries: %w", ErrStorageReadFailed, err)
	}
	return entries, nil
}

// write runs fn in a transaction while holding the write lock. A failed
// attempt is retried immediately up to s.retries times.
func (s *Store) write(op string, fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			s.log.Warn("retrying write", "op", op, "attempt", attempt, "err", err)
		}
		if err = s.inTx(fn); err == nil {
			return nil
		}
	}
	s.log.Error("write failed", "op", op, "err", err)
	return fmt.Errorf("%w: %s: %w", ErrStorageWriteFailed, op, err)
}

func (s *Store) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
