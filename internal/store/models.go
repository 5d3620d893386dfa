package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/moodtrack/internal/mood"
)

// MoodEntry is one persisted mood rating.
type MoodEntry struct {
	ID         uuid.UUID
	Level      mood.Level
	CreateDate time.Time
	EditDate   *time.Time // no code path sets this yet
}

type Setting struct {
	Key   string
	Value string
}

// EntryFilter is used to filter mood entries in ListEntries.
type EntryFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// Setting keys seeded by the v1 migration.
const (
	SettingAppearance    = "appearance"
	SettingLocale        = "locale"
	SettingDefaultWindow = "default_window"
)
