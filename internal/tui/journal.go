package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/moodtrack/internal/mood"
	"github.com/sadopc/moodtrack/internal/store"
)

type journalModel struct {
	store  store.MoodStore
	width  int
	height int

	entries []store.MoodEntry // newest first
	cursor  int
	err     error

	formActive bool
	form       *huh.Form
	formLevel  *mood.Level // survives value copies
}

func newJournalModel(s store.MoodStore) journalModel {
	level := mood.Calm
	return journalModel{
		store:     s,
		formLevel: &level,
	}
}

func (j *journalModel) setSize(w, h int) {
	j.width = w
	j.height = h
}

type journalDataMsg struct {
	entries []store.MoodEntry
	err     error
}

func (j journalModel) refresh() tea.Cmd {
	if j.store == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := j.store.FetchLastMonth()
		if err != nil {
			return journalDataMsg{err: err}
		}
		return journalDataMsg{entries: reversed(entries)}
	}
}

func (j journalModel) selected() (store.MoodEntry, bool) {
	if j.cursor < 0 || j.cursor >= len(j.entries) {
		return store.MoodEntry{}, false
	}
	return j.entries[j.cursor], true
}

func (j journalModel) update(msg tea.Msg) (journalModel, tea.Cmd) {
	if j.formActive && j.form != nil {
		return j.updateForm(msg)
	}

	switch msg := msg.(type) {
	case journalDataMsg:
		j.err = msg.err
		if msg.err != nil {
			return j, nil
		}
		j.entries = msg.entries
		if j.cursor >= len(j.entries) {
			j.cursor = max(0, len(j.entries)-1)
		}
		return j, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if j.cursor > 0 {
				j.cursor--
			}
		case key.Matches(msg, keys.Down):
			if j.cursor < len(j.entries)-1 {
				j.cursor++
			}
		case key.Matches(msg, keys.New):
			return j.showLevelForm()
		case key.Matches(msg, keys.Delete):
			if e, ok := j.selected(); ok {
				return j, j.deleteEntry(e)
			}
		}
	}
	return j, nil
}

func (j journalModel) showLevelForm() (journalModel, tea.Cmd) {
	*j.formLevel = mood.Calm

	levels := mood.Levels()
	options := make([]huh.Option[mood.Level], 0, len(levels))
	for i := len(levels) - 1; i >= 0; i-- {
		l := levels[i]
		options = append(options, huh.NewOption(fmt.Sprintf("%s %s  %s", l.Emoji(), l.Name(), l.Description()), l))
	}

	j.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[mood.Level]().
				Title("How was your day?").
				Options(options...).
				Value(j.formLevel),
		),
	).WithShowHelp(true).WithShowErrors(true)

	j.formActive = true
	return j, j.form.Init()
}

func (j journalModel) updateForm(msg tea.Msg) (journalModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			j.formActive = false
			j.form = nil
			return j, nil
		}
	}

	form, cmd := j.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		j.form = f
	}

	if j.form.State == huh.StateCompleted {
		j.formActive = false
		j.form = nil
		return j, j.addEntry(*j.formLevel)
	}

	return j, cmd
}

func (j journalModel) addEntry(level mood.Level) tea.Cmd {
	s := j.store
	return func() tea.Msg {
		e, err := s.AddEntry(level)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Could not save mood: %v", err), isError: true}
		}
		return entryAddedMsg{entry: e}
	}
}

func (j journalModel) deleteEntry(e store.MoodEntry) tea.Cmd {
	s := j.store
	return func() tea.Msg {
		if err := s.DeleteEntry(e.ID); err != nil {
			return statusMsg{text: fmt.Sprintf("Could not delete entry: %v", err), isError: true}
		}
		return entryDeletedMsg{}
	}
}

func (j journalModel) view() string {
	w := j.width - 4

	if j.formActive && j.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Entry"), "", j.form.View()),
		)
	}

	title := titleStyle.Render("Journal")
	if j.err != nil {
		return errorPanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", errorStyle.Render("Could not load entries: "+j.err.Error()),
		))
	}

	if len(j.entries) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No entries in the last month. Press n to log your mood."),
		))
	}

	var rows []string
	rows = append(rows, fmt.Sprintf("%s  %s", title,
		mutedStyle.Render(fmt.Sprintf("%d entries in the last month", len(j.entries)))))
	rows = append(rows, "")

	start, end := j.visibleRange()
	for i := start; i < end; i++ {
		e := j.entries[i]
		cursor := "  "
		style := normalItemStyle
		if i == j.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := fmt.Sprintf("%s%s %s %-13s %-18s %s",
			cursor,
			moodDot(e.Level),
			e.Level.Emoji(),
			e.Level.Name(),
			e.Level.Description(),
			formatEntryDate(e.CreateDate),
		)
		rows = append(rows, style.Render(row))
	}
	if end-start < len(j.entries) {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(j.entries))))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: log mood  d: delete  ↑/↓: move"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// visibleRange keeps the cursor on screen when there are more entries than rows.
func (j journalModel) visibleRange() (int, int) {
	rows := j.height - 10
	if rows < 3 {
		rows = 3
	}
	if len(j.entries) <= rows {
		return 0, len(j.entries)
	}
	start := j.cursor - rows/2
	start = max(0, min(start, len(j.entries)-rows))
	return start, start + rows
}
