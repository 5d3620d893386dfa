package store

import (
	"bytes"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sadopc/moodtrack/internal/mood"
	"golang.org/x/sync/errgroup"
)

var quietLogger = log.New(io.Discard)

// fakeClock is a settable clock for placing entries on chosen days.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := NewMemory(append([]Option{WithLogger(quietLogger)}, opts...)...)
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory(WithLogger(quietLogger))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "moodtrack.db")
	s, err := New(path, WithLogger(quietLogger))
	if err != nil {
		t.Fatal(err)
	}
	e, err := s.AddEntry(mood.Calm)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: no re-migration, data survives.
	s2, err := New(path, WithLogger(quietLogger))
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	got, err := s2.GetEntry(e.ID)
	if err != nil {
		t.Fatalf("entry lost after reopen: %v", err)
	}
	if got.Level != mood.Calm {
		t.Fatalf("level = %d, want %d", got.Level, mood.Calm)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "moodtrack.db" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestFileStoreUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.db")
	s, err := New(path, WithLogger(quietLogger))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var mode string
	s.db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestMigrateFromV1KeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := raw.Exec(schemaV1); err != nil {
		t.Fatalf("create v1 schema: %v", err)
	}
	if _, err := raw.Exec("PRAGMA user_version = 1"); err != nil {
		t.Fatal(err)
	}
	id := uuid.New()
	created := time.Date(2024, 10, 5, 9, 0, 0, 0, time.UTC)
	if _, err := raw.Exec(
		`INSERT INTO mood_notes (id, mood_level, create_date) VALUES (?, ?, ?)`,
		id.String(), 4, formatTime(created),
	); err != nil {
		t.Fatal(err)
	}
	raw.Close()

	s, err := New(path, WithLogger(quietLogger))
	if err != nil {
		t.Fatalf("open v1 database: %v", err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 2 {
		t.Fatalf("user_version = %d, want 2", version)
	}

	e, err := s.GetEntry(id)
	if err != nil {
		t.Fatalf("entry lost in migration: %v", err)
	}
	if e.Level != mood.Delighted || !e.CreateDate.Equal(created) {
		t.Fatalf("unexpected entry after migration: %+v", e)
	}
	if e.EditDate != nil {
		t.Fatal("edit date should be empty for migrated rows")
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.db")
	if err := os.WriteFile(path, bytes.Repeat([]byte("garbage!"), 512), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(path, WithLogger(quietLogger))
	if !errors.Is(err, ErrStorageOpenFailed) {
		t.Fatalf("expected ErrStorageOpenFailed, got %v", err)
	}
}

// ============================================================
// Adding entries
// ============================================================

func TestAddEntry(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 10, 5, 12, 0, 0, 0, time.UTC))
	s := newTestStore(t, WithClock(clock.Now))

	e, err := s.AddEntry(mood.StarStruck)
	if err != nil {
		t.Fatal(err)
	}
	if e.ID == uuid.Nil {
		t.Fatal("expected a generated id")
	}
	if e.Level != mood.StarStruck {
		t.Fatalf("level = %d, want 5", e.Level)
	}
	if !e.CreateDate.Equal(clock.Now()) {
		t.Fatalf("create date = %v, want %v", e.CreateDate, clock.Now())
	}
	if e.EditDate != nil {
		t.Fatal("new entry should have no edit date")
	}

	fetched, err := s.GetEntry(e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.ID != e.ID || fetched.Level != e.Level || !fetched.CreateDate.Equal(e.CreateDate) {
		t.Fatalf("stored entry differs: %+v vs %+v", fetched, e)
	}
}

func TestAddEntryInvalidLevel(t *testing.T) {
	s := newTestStore(t)
	for _, level := range []mood.Level{0, -3, 6, 42} {
		e, err := s.AddEntry(level)
		if !errors.Is(err, ErrInvalidMoodLevel) {
			t.Fatalf("AddEntry(%d) err = %v, want ErrInvalidMoodLevel", level, err)
		}
		if e != nil {
			t.Fatalf("AddEntry(%d) should not return an entry", level)
		}
	}
	n, _ := s.CountEntries()
	if n != 0 {
		t.Fatalf("invalid levels must not be stored, found %d", n)
	}
}

func TestAddEntryIDsUnique(t *testing.T) {
	s := newTestStore(t)
	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 200; i++ {
		e, err := s.AddEntry(mood.Levels()[i%mood.Count])
		if err != nil {
			t.Fatal(err)
		}
		if seen[e.ID] {
			t.Fatalf("duplicate id %s", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestAddEntryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	t0 := time.Now().Add(-time.Second)

	e, err := s.AddEntry(mood.Disappointed)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := s.FetchEntriesSince(t0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID != e.ID || entries[0].Level != mood.Disappointed {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	if entries[0].CreateDate.Before(t0) {
		t.Fatal("create date should not precede t0")
	}
}

func TestWriteFailureSurfaced(t *testing.T) {
	s, err := NewMemory(WithLogger(quietLogger))
	if err != nil {
		t.Fatal(err)
	}
	s.db.Close()

	if _, err := s.AddEntry(mood.Calm); !errors.Is(err, ErrStorageWriteFailed) {
		t.Fatalf("AddEntry on closed db: %v, want ErrStorageWriteFailed", err)
	}
	if err := s.DeleteEntry(uuid.New()); !errors.Is(err, ErrStorageWriteFailed) {
		t.Fatalf("DeleteEntry on closed db: %v, want ErrStorageWriteFailed", err)
	}
}

func TestWriteRetriesOnce(t *testing.T) {
	s := newTestStore(t)
	calls := 0
	err := s.write("flaky", func(tx *sql.Tx) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		_, err := tx.Exec(`INSERT INTO settings (key, value) VALUES ('flaky', 'ok')`)
		return err
	})
	if err != nil {
		t.Fatalf("write should succeed on retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if v, _ := s.GetSetting("flaky"); v != "ok" {
		t.Fatal("retried write not committed")
	}
}

func TestWriteGivesUpAfterRetry(t *testing.T) {
	s := newTestStore(t, WithWriteRetries(1))
	calls := 0
	err := s.write("broken", func(tx *sql.Tx) error {
		calls++
		return errors.New("disk on fire")
	})
	if !errors.Is(err, ErrStorageWriteFailed) {
		t.Fatalf("expected ErrStorageWriteFailed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

// ============================================================
// Deleting entries
// ============================================================

func TestDeleteEntry(t *testing.T) {
	s := newTestStore(t)
	keep, _ := s.AddEntry(mood.Calm)
	gone, _ := s.AddEntry(mood.Melancholic)

	if err := s.DeleteEntry(gone.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetEntry(gone.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("deleted entry still readable: %v", err)
	}
	if _, err := s.GetEntry(keep.ID); err != nil {
		t.Fatalf("unrelated entry removed: %v", err)
	}
}

func TestDeleteEntryIdempotent(t *testing.T) {
	s := newTestStore(t)
	e, _ := s.AddEntry(mood.Calm)
	s.AddEntry(mood.Delighted)

	if err := s.DeleteEntry(e.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteEntry(e.ID); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	n, _ := s.CountEntries()
	if n != 1 {
		t.Fatalf("expected 1 entry left, got %d", n)
	}
}

func TestDeleteUnknownEntry(t *testing.T) {
	s := newTestStore(t)
	s.AddEntry(mood.Calm)
	s.AddEntry(mood.Calm)

	if err := s.DeleteEntry(uuid.New()); err != nil {
		t.Fatalf("deleting an unknown id should not error: %v", err)
	}
	n, _ := s.CountEntries()
	if n != 2 {
		t.Fatalf("store changed by unknown delete: %d entries", n)
	}
}

// ============================================================
// Window queries
// ============================================================

func TestFetchEntriesSinceContainment(t *testing.T) {
	start := time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	s := newTestStore(t, WithClock(clock.Now))

	var all []*MoodEntry
	for i := 0; i < 10; i++ {
		e, err := s.AddEntry(mood.Levels()[i%mood.Count])
		if err != nil {
			t.Fatal(err)
		}
		all = append(all, e)
		clock.Advance(24 * time.Hour)
	}

	for _, ref := range []time.Time{
		start.Add(-time.Hour),
		all[3].CreateDate, // exclusive bound
		all[3].CreateDate.Add(time.Nanosecond),
		all[9].CreateDate,
		start.AddDate(1, 0, 0),
	} {
		got, err := s.FetchEntriesSince(ref)
		if err != nil {
			t.Fatal(err)
		}
		var want []*MoodEntry
		for _, e := range all {
			if e.CreateDate.After(ref) {
				want = append(want, e)
			}
		}
		if len(got) != len(want) {
			t.Fatalf("ref %v: got %d entries, want %d", ref, len(got), len(want))
		}
		for i := range want {
			if got[i].ID != want[i].ID {
				t.Fatalf("ref %v: entry %d out of order", ref, i)
			}
		}
	}
}

func TestFetchEntriesSinceSameTimestampKeepsInsertOrder(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC))
	s := newTestStore(t, WithClock(clock.Now))

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		e, _ := s.AddEntry(mood.Calm)
		ids = append(ids, e.ID)
	}

	got, err := s.FetchEntriesSince(clock.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	for i, e := range got {
		if e.ID != ids[i] {
			t.Fatalf("entry %d: insertion order not preserved", i)
		}
	}
}

func TestFetchLastMonthEmpty(t *testing.T) {
	s := newTestStore(t)
	entries, err := s.FetchLastMonth()
	if err != nil {
		t.Fatal(err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", entries)
	}
}

func TestFetchLastMonth(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))
	s := newTestStore(t, WithClock(clock.Now))

	old, _ := s.AddEntry(mood.Melancholic) // Sep 1
	clock.Advance(20 * 24 * time.Hour)
	recent, _ := s.AddEntry(mood.Delighted) // Sep 21
	clock.Advance(15 * 24 * time.Hour)      // now: Oct 6

	entries, err := s.FetchLastMonth()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != recent.ID {
		t.Fatalf("expected only the recent entry, got %+v", entries)
	}
	for _, e := range entries {
		if e.ID == old.ID {
			t.Fatal("entry older than a month returned")
		}
	}
}

func TestFetchSurfacesCorruptRows(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.db.Exec(
		`INSERT INTO mood_notes (id, mood_level, create_date) VALUES (?, 3, 'garbage')`,
		uuid.NewString(),
	); err != nil {
		t.Fatal(err)
	}

	entries, err := s.FetchEntriesSince(time.Time{})
	if !errors.Is(err, ErrStorageReadFailed) {
		t.Fatalf("expected ErrStorageReadFailed, got %v", err)
	}
	if entries != nil {
		t.Fatal("a failed read must not return entries")
	}
}

func TestListEntries(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC))
	s := newTestStore(t, WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		s.AddEntry(mood.Calm)
		clock.Advance(time.Hour)
	}

	entries, err := s.ListEntries(EntryFilter{Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if !entries[0].CreateDate.After(entries[1].CreateDate) {
		t.Fatal("entries should be newest first")
	}
}

func TestListEntriesWithDateFilter(t *testing.T) {
	base := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	clock := newFakeClock(base)
	s := newTestStore(t, WithClock(clock.Now))

	for i := 0; i < 6; i++ {
		s.AddEntry(mood.Calm)
		clock.Advance(24 * time.Hour)
	}

	from := base.AddDate(0, 0, 2)
	to := base.AddDate(0, 0, 4)
	entries, err := s.ListEntries(EntryFilter{From: &from, To: &to})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries in [day2, day4), got %d", len(entries))
	}
}

// ============================================================
// Concurrency
// ============================================================

func TestConcurrentWritersAndReaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.db")
	s, err := New(path, WithLogger(quietLogger))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	const writers, perWriter = 4, 25
	var mu sync.Mutex
	ids := make(map[uuid.UUID]bool)

	var g errgroup.Group
	for w := 0; w < writers; w++ {
		g.Go(func() error {
			for i := 0; i < perWriter; i++ {
				e, err := s.AddEntry(mood.Calm)
				if err != nil {
					return err
				}
				mu.Lock()
				ids[e.ID] = true
				mu.Unlock()
			}
			return nil
		})
	}
	for r := 0; r < 2; r++ {
		g.Go(func() error {
			for i := 0; i < perWriter; i++ {
				if _, err := s.FetchLastMonth(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if len(ids) != writers*perWriter {
		t.Fatalf("expected %d distinct ids, got %d", writers*perWriter, len(ids))
	}
	n, _ := s.CountEntries()
	if n != writers*perWriter {
		t.Fatalf("expected %d stored entries, got %d", writers*perWriter, n)
	}
}

// ============================================================
// Settings
// ============================================================

func TestDefaultSettings(t *testing.T) {
	s := newTestStore(t)
	settings, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		SettingAppearance:    "system",
		SettingDefaultWindow: "month",
	}
	if len(settings) != len(want) {
		t.Fatalf("expected %d settings, got %d", len(want), len(settings))
	}
	for _, st := range settings {
		if want[st.Key] != st.Value {
			t.Fatalf("setting %s = %q, want %q", st.Key, st.Value, want[st.Key])
		}
	}
}

func TestSetSetting(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting(SettingLocale, "ru"); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetSetting(SettingLocale)
	if err != nil {
		t.Fatal(err)
	}
	if v != "ru" {
		t.Fatalf("locale = %q, want ru", v)
	}
}

func TestSettingOr(t *testing.T) {
	s := newTestStore(t)
	if v := s.SettingOr(SettingLocale, "ru"); v != "ru" {
		t.Fatalf("SettingOr = %q", v)
	}
	if v := s.SettingOr(SettingAppearance, "dark"); v != "system" {
		t.Fatalf("SettingOr = %q, want stored value", v)
	}
}

func TestGetSettingMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSetting("nope"); err == nil {
		t.Fatal("expected error for missing setting")
	}
}
