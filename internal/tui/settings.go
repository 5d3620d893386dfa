package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/moodtrack/internal/stats"
	"github.com/sadopc/moodtrack/internal/store"
)

var settingLabels = map[string]string{
	store.SettingAppearance:    "Appearance",
	store.SettingLocale:        "Language",
	store.SettingDefaultWindow: "Default window",
}

var settingOrder = []string{store.SettingAppearance, store.SettingLocale, store.SettingDefaultWindow}

type settingsModel struct {
	store  store.MoodStore
	width  int
	height int

	// defaultLocale applies until a locale has been saved.
	defaultLocale stats.Locale

	values     map[string]string
	err        error
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	appearance *string
	locale     *string
	window     *string
}

func newSettingsModel(s store.MoodStore, defaultLocale stats.Locale) settingsModel {
	a, l, w := "", "", ""
	return settingsModel{
		store:         s,
		defaultLocale: defaultLocale,
		values:        map[string]string{},
		appearance:    &a,
		locale:        &l,
		window:        &w,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
	err      error
}

func (s settingsModel) refresh() tea.Cmd {
	if s.store == nil {
		return nil
	}
	return func() tea.Msg {
		settings, err := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings, err: err}
	}
}

// current returns the effective value of a setting.
func (s settingsModel) current(k string) string {
	if v, ok := s.values[k]; ok && v != "" {
		return v
	}
	switch k {
	case store.SettingAppearance:
		return appearanceSystem
	case store.SettingLocale:
		return string(s.defaultLocale)
	case store.SettingDefaultWindow:
		return stats.Month.String()
	}
	return ""
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.err = msg.err
		if msg.err != nil {
			return s, nil
		}
		s.values = make(map[string]string, len(msg.settings))
		for _, st := range msg.settings {
			s.values[st.Key] = st.Value
		}
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.appearance = s.current(store.SettingAppearance)
	*s.locale = s.current(store.SettingLocale)
	*s.window = s.current(store.SettingDefaultWindow)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Appearance").
				Options(
					huh.NewOption("System", appearanceSystem),
					huh.NewOption("Light", appearanceLight),
					huh.NewOption("Dark", appearanceDark),
				).Value(s.appearance),
			huh.NewSelect[string]().Title("Language").
				Options(
					huh.NewOption("English", string(stats.English)),
					huh.NewOption("Русский", string(stats.Russian)),
				).Value(s.locale),
			huh.NewSelect[string]().Title("Default statistics window").
				Options(
					huh.NewOption("Week", stats.Week.String()),
					huh.NewOption("Month", stats.Month.String()),
				).Value(s.window),
		).Title("Preferences"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		return s, s.save(*s.appearance, *s.locale, *s.window)
	}

	return s, cmd
}

func (s settingsModel) save(appearance, locale, window string) tea.Cmd {
	st := s.store
	return func() tea.Msg {
		values := [][2]string{
			{store.SettingAppearance, appearance},
			{store.SettingLocale, locale},
			{store.SettingDefaultWindow, window},
		}
		for _, kv := range values {
			if err := st.SetSetting(kv[0], kv[1]); err != nil {
				return statusMsg{text: fmt.Sprintf("Could not save settings: %v", err), isError: true}
			}
		}
		return settingsChangedMsg{appearance: appearance, locale: locale, window: window}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	if s.err != nil {
		return errorPanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", errorStyle.Render("Could not load settings: "+s.err.Error()),
		))
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for _, k := range settingOrder {
		label := lipgloss.NewStyle().Width(24).Render(settingLabels[k])
		value := highlightStyle.Render(s.current(k))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
