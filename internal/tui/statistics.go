package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/moodtrack/internal/mood"
	"github.com/sadopc/moodtrack/internal/stats"
	"github.com/sadopc/moodtrack/internal/store"
)

type statisticsModel struct {
	store  store.MoodStore
	agg    *stats.Aggregator
	width  int
	height int

	window stats.Window
	locale stats.Locale

	month   []store.MoodEntry // last month, oldest first
	summary stats.Summary
	err     error

	scoreChart barchart.Model
	distChart  barchart.Model
}

func newStatisticsModel(s store.MoodStore, agg *stats.Aggregator, locale stats.Locale) statisticsModel {
	m := statisticsModel{
		store:  s,
		agg:    agg,
		window: stats.Month,
		locale: locale,
	}
	m.summary = agg.Summarize(nil, m.window, m.locale)
	return m
}

func (m *statisticsModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.buildCharts()
}

type statisticsDataMsg struct {
	entries []store.MoodEntry
	err     error
}

func (m statisticsModel) refresh() tea.Cmd {
	if m.store == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := m.store.FetchLastMonth()
		return statisticsDataMsg{entries: entries, err: err}
	}
}

// setPreferences applies a new locale and window and recomputes the summary.
func (m *statisticsModel) setPreferences(l stats.Locale, w stats.Window) {
	m.locale = l
	m.window = w
	m.recompute()
}

func (m *statisticsModel) recompute() {
	m.summary = m.agg.Summarize(m.month, m.window, m.locale)
	m.buildCharts()
}

func (m statisticsModel) update(msg tea.Msg) (statisticsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statisticsDataMsg:
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.month = msg.entries
		m.recompute()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Window) {
			m.window = m.window.Toggle()
			m.recompute()
			return m, nil
		}
	}
	return m, nil
}

func (m *statisticsModel) buildCharts() {
	chartWidth := m.width - 10
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 8
	if m.height > 36 {
		chartHeight = 12
	}

	// One bar per entry, height is the mood level.
	m.scoreChart = barchart.New(chartWidth, chartHeight, barchart.WithMaxValue(float64(mood.MaxLevel)))
	var scores []barchart.BarData
	for _, e := range m.summary.Entries {
		if !e.Level.Valid() {
			continue
		}
		scores = append(scores, barchart.BarData{
			Label: strconv.Itoa(e.CreateDate.Local().Day()),
			Values: []barchart.BarValue{{
				Name:  e.Level.Name(),
				Value: float64(e.Level),
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(e.Level.Color())),
			}},
		})
	}
	if len(scores) > 0 {
		m.scoreChart.PushAll(scores)
	}
	m.scoreChart.Draw()

	// One bar per level, most positive first.
	m.distChart = barchart.New(chartWidth, chartHeight)
	var dist []barchart.BarData
	for _, b := range m.summary.Distribution.Buckets(stats.Descending) {
		dist = append(dist, barchart.BarData{
			Label: strconv.Itoa(int(b.Level)),
			Values: []barchart.BarValue{{
				Name:  b.Level.Name(),
				Value: float64(b.Count),
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(b.Level.Color())),
			}},
		})
	}
	m.distChart.PushAll(dist)
	m.distChart.Draw()
}

func (m statisticsModel) view() string {
	w := m.width - 4

	weekTab := inactiveTabStyle.Render("Week")
	monthTab := inactiveTabStyle.Render("Month")
	if m.window == stats.Week {
		weekTab = activeTabStyle.Render("Week")
	} else {
		monthTab = activeTabStyle.Render("Month")
	}
	segments := lipgloss.JoinHorizontal(lipgloss.Bottom, weekTab, monthTab)

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Statistics"), "  ", segments, "  ", mutedStyle.Render(m.summary.Label),
	)

	if m.err != nil {
		return errorPanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", errorStyle.Render("Could not load statistics: "+m.err.Error()),
		))
	}

	fact := factStyle.Render(m.summary.Fact())
	nav := mutedStyle.Render("  tab: week/month")

	if len(m.summary.Entries) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", fact, "", nav))
	}

	avg := highlightStyle.Render(fmt.Sprintf("average %.1f", m.summary.Average))
	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "",
			titleStyle.Render("Mood score")+"  "+avg,
			m.scoreChart.View(), "",
			titleStyle.Render("Distribution"),
			m.distChart.View(), "",
			m.renderPercentages(), "",
			fact, "",
			nav,
		),
	)
}

func (m statisticsModel) renderPercentages() string {
	d := m.summary.Distribution
	var rows []string
	for _, b := range d.Buckets(stats.Descending) {
		rows = append(rows, fmt.Sprintf("  %s %-13s %3d  %5.1f%%",
			moodDot(b.Level), b.Level.Name(), b.Count, d.Percent(b.Level)))
	}
	if d.Skipped > 0 {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("  %d entries with an unknown level were skipped", d.Skipped)))
	}
	return strings.Join(rows, "\n")
}
