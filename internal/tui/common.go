package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/moodtrack/internal/mood"
	"github.com/sadopc/moodtrack/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewJournal viewState = iota
	viewStatistics
	viewSettings
)

var viewNames = []string{"Journal", "Statistics", "Settings"}

const viewCount = 3

// --- Messages ---

type entryAddedMsg struct {
	entry *store.MoodEntry
}

type entryDeletedMsg struct{}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	paths []string
}

// settingsChangedMsg carries the saved settings so other views can follow them.
type settingsChangedMsg struct {
	appearance string
	locale     string
	window     string
}

// --- Helpers ---

func moodDot(l mood.Level) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(l.Color())).Render("●")
}

func formatEntryDate(t time.Time) string {
	return t.Local().Format("Mon 02 Jan 15:04")
}

// reversed returns a newest-first copy of an oldest-first slice.
func reversed(entries []store.MoodEntry) []store.MoodEntry {
	out := make([]store.MoodEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
