package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/sadopc/moodtrack/internal/export"
	"github.com/sadopc/moodtrack/internal/stats"
	"github.com/sadopc/moodtrack/internal/store"
)

// Options wires the App to its collaborators.
type Options struct {
	// Store is nil when the store failed to open; StoreErr then holds the
	// reason and the App runs in degraded mode.
	Store    store.MoodStore
	StoreErr error

	Aggregator *stats.Aggregator
	Logger     *log.Logger
	// Locale applies until the user picks one in settings.
	Locale stats.Locale
	// ExportDir receives exports. Defaults to the home directory.
	ExportDir string
	Now       func() time.Time
}

var exportChoices = []string{"CSV", "JSON", "Both"}

// App is the root Bubble Tea model.
type App struct {
	store    store.MoodStore
	storeErr error
	log      *log.Logger
	now      func() time.Time

	exportDir    string
	darkDetected bool

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	journal    journalModel
	statistics statisticsModel
	settings   settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(opts Options) App {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Aggregator == nil {
		opts.Aggregator = stats.New(opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Locale == "" {
		opts.Locale = stats.English
	}
	if opts.ExportDir == "" {
		opts.ExportDir, _ = os.UserHomeDir()
	}

	h := help.New()
	h.ShowAll = false

	a := App{
		store:        opts.Store,
		storeErr:     opts.StoreErr,
		log:          opts.Logger,
		now:          opts.Now,
		exportDir:    opts.ExportDir,
		darkDetected: lipgloss.HasDarkBackground(),
		activeView:   viewJournal,
		journal:      newJournalModel(opts.Store),
		statistics:   newStatisticsModel(opts.Store, opts.Aggregator, opts.Locale),
		settings:     newSettingsModel(opts.Store, opts.Locale),
		help:         h,
	}

	if a.degraded() {
		a.setStatus("Storage unavailable, running read-only", true)
		return a
	}
	a.loadPreferences(opts.Locale)
	return a
}

func (a App) degraded() bool { return a.store == nil }

// loadPreferences applies stored appearance, locale and default window.
func (a *App) loadPreferences(fallback stats.Locale) {
	applyAppearance(a.store.SettingOr(store.SettingAppearance, appearanceSystem), a.darkDetected)

	locale, err := stats.ParseLocale(a.store.SettingOr(store.SettingLocale, string(fallback)))
	if err != nil {
		a.log.Warn("ignoring stored locale", "err", err)
		locale = fallback
	}
	window, err := stats.ParseWindow(a.store.SettingOr(store.SettingDefaultWindow, stats.Month.String()))
	if err != nil {
		a.log.Warn("ignoring stored window", "err", err)
	}
	a.statistics.setPreferences(locale, window)
}

func (a *App) setStatus(text string, isError bool) {
	a.status = text
	a.statusErr = isError
}

func (a App) Init() tea.Cmd {
	if a.degraded() {
		return nil
	}
	return tea.Batch(
		a.journal.refresh(),
		a.statistics.refresh(),
		a.settings.refresh(),
	)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.journal.setSize(a.width, contentHeight)
		a.statistics.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewJournal)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewStatistics)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.NextView):
			return a.switchView((a.activeView + 1) % viewCount)
		case key.Matches(msg, keys.PrevView):
			return a.switchView((a.activeView + viewCount - 1) % viewCount)
		}

		if a.degraded() {
			if key.Matches(msg, keys.New, keys.Delete, keys.Export, keys.Edit) {
				a.setStatus(fmt.Sprintf("Storage unavailable: %v", a.storeErr), true)
			}
			return a, nil
		}

		if key.Matches(msg, keys.Export) {
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		}

	case journalDataMsg:
		var cmd tea.Cmd
		a.journal, cmd = a.journal.update(msg)
		return a, cmd

	case statisticsDataMsg:
		var cmd tea.Cmd
		a.statistics, cmd = a.statistics.update(msg)
		return a, cmd

	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case entryAddedMsg:
		a.setStatus(fmt.Sprintf("Logged %s %s", msg.entry.Level.Emoji(), msg.entry.Level.Name()), false)
		return a, a.refreshData()

	case entryDeletedMsg:
		a.setStatus("Entry deleted", false)
		return a, a.refreshData()

	case settingsChangedMsg:
		applyAppearance(msg.appearance, a.darkDetected)
		locale, _ := stats.ParseLocale(msg.locale)
		window, _ := stats.ParseWindow(msg.window)
		a.statistics.setPreferences(locale, window)
		a.setStatus("Settings saved", false)
		return a, a.settings.refresh()

	case statusMsg:
		if msg.isError {
			a.log.Error(msg.text)
		}
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case exportDoneMsg:
		a.setStatus(fmt.Sprintf("Exported to %s", joinPaths(msg.paths)), false)
		a.exportPicking = false
		return a, nil
	}

	if a.degraded() {
		return a, nil
	}
	return a.updateActiveView(msg)
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewJournal:
		a.journal, cmd = a.journal.update(msg)
	case viewStatistics:
		a.statistics, cmd = a.statistics.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewJournal:
		return a.journal.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewJournal:
		return a.journal.refresh()
	case viewStatistics:
		return a.statistics.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

// refreshData reloads every view that shows entries.
func (a App) refreshData() tea.Cmd {
	return tea.Batch(a.journal.refresh(), a.statistics.refresh())
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch {
	case a.degraded():
		content = a.renderDegraded()
	case a.activeView == viewJournal:
		content = a.journal.view()
	case a.activeView == viewStatistics:
		content = a.statistics.view()
	case a.activeView == viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("moodtrack")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := successStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	left := footerStyle.Render(helpView)

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

func (a App) renderDegraded() string {
	rows := []string{
		errorStyle.Bold(true).Render("Storage unavailable"),
		"",
		fmt.Sprintf("moodtrack could not open its database: %v", a.storeErr),
		"",
		mutedStyle.Render("Logging moods is disabled so nothing is silently lost."),
		mutedStyle.Render("Move or delete the database file, or point MOODTRACK_DB elsewhere, then restart."),
	}
	return errorPanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportChoices {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportChoices)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(choice int) tea.Cmd {
	s, dir, now := a.store, a.exportDir, a.now()
	return func() tea.Msg {
		entries, err := s.FetchEntriesSince(time.Time{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		if choice == len(exportChoices)-1 {
			paths, err := export.WriteAll(context.Background(), entries, dir, now)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			return exportDoneMsg{paths: paths}
		}

		f := export.Formats()[choice]
		path := filepath.Join(dir, export.FileName(f, now))
		if err := export.Write(f, entries, path); err != nil {
			return statusMsg{text: fmt.Sprintf("%s error: %v", exportChoices[choice], err), isError: true}
		}
		return exportDoneMsg{paths: []string{path}}
	}
}

func joinPaths(paths []string) string {
	if len(paths) == 1 {
		return paths[0]
	}
	return fmt.Sprintf("%s (+%d more)", paths[0], len(paths)-1)
}

// Run starts the interface on the alternate screen and blocks until it quits.
func Run(opts Options) error {
	p := tea.NewProgram(NewApp(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
