// Package stats derives windowed views and level distributions from mood
// entries. Nothing here touches the database; callers pass entries in.
package stats

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sadopc/moodtrack/internal/mood"
	"github.com/sadopc/moodtrack/internal/store"
)

// WeekSize is the number of most recent entries that make up a week.
const WeekSize = 7

// Window is the statistics segment shown to the user.
type Window int

const (
	Month Window = iota
	Week
)

var ErrUnknownWindow = errors.New("unknown window")

func (w Window) String() string {
	switch w {
	case Week:
		return "week"
	case Month:
		return "month"
	}
	return "unknown"
}

func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "week", "w":
		return Week, nil
	case "month", "m":
		return Month, nil
	}
	return Month, fmt.Errorf("%w: %q", ErrUnknownWindow, s)
}

// Toggle returns the other window.
func (w Window) Toggle() Window {
	if w == Week {
		return Month
	}
	return Week
}

// SelectWindow trims a month-scoped, oldest-first slice to the requested
// window. Week keeps the last WeekSize entries in their original order.
//
// Week is a suffix of the input, not a separate seven-day query: a month
// with gaps can yield a "week" spanning more than seven days.
func SelectWindow(entries []store.MoodEntry, w Window) []store.MoodEntry {
	if w != Week || len(entries) <= WeekSize {
		return entries
	}
	return entries[len(entries)-WeekSize:]
}

// DateRange returns the create dates of the first and last entries.
// ok is false for empty input.
func DateRange(entries []store.MoodEntry) (from, to time.Time, ok bool) {
	if len(entries) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return entries[0].CreateDate, entries[len(entries)-1].CreateDate, true
}

// DateRangeLabel formats the date range as "5 October - 20 October".
// Empty input yields "".
func DateRangeLabel(entries []store.MoodEntry, l Locale) string {
	from, to, ok := DateRange(entries)
	if !ok {
		return ""
	}
	return formatDay(from, l) + rangeSeparator + formatDay(to, l)
}

// Order is the display order of distribution buckets.
type Order int

const (
	Ascending  Order = iota // most negative first
	Descending              // most positive first
)

type Bucket struct {
	Level mood.Level
	Count int
}

// Distribution holds one count per mood level.
type Distribution struct {
	counts [mood.Count]int
	// Skipped counts entries whose level was outside 1..5.
	Skipped int
}

func (d Distribution) Count(l mood.Level) int {
	if !l.Valid() {
		return 0
	}
	return d.counts[l-mood.MinLevel]
}

func (d Distribution) Total() int {
	n := 0
	for _, c := range d.counts {
		n += c
	}
	return n
}

// Percent is the share of level l in percent, 0 when there are no entries.
func (d Distribution) Percent(l mood.Level) float64 {
	total := d.Total()
	if total == 0 {
		return 0
	}
	return float64(d.Count(l)) / float64(total) * 100
}

func (d Distribution) Buckets(o Order) []Bucket {
	levels := mood.Levels()
	buckets := make([]Bucket, 0, len(levels))
	for _, l := range levels {
		buckets = append(buckets, Bucket{Level: l, Count: d.Count(l)})
	}
	if o == Descending {
		for i, j := 0, len(buckets)-1; i < j; i, j = i+1, j-1 {
			buckets[i], buckets[j] = buckets[j], buckets[i]
		}
	}
	return buckets
}

// Summary is everything the statistics screen shows for one window.
type Summary struct {
	Window       Window
	Locale       Locale
	Entries      []store.MoodEntry
	Label        string
	From, To     time.Time
	Distribution Distribution
	Average      float64
	Positive     int
	Negative     int
}

// Fact is the one-line verdict comparing good and bad days.
func (s Summary) Fact() string {
	switch {
	case len(s.Entries) == 0:
		return factText(s.Locale, factEmpty, s.Window)
	case s.Positive > s.Negative:
		return factText(s.Locale, factMoreGood, s.Window)
	case s.Negative > s.Positive:
		return factText(s.Locale, factMoreBad, s.Window)
	}
	return factText(s.Locale, factBalanced, s.Window)
}

// Aggregator computes statistics. It only logs; results depend on input alone.
type Aggregator struct {
	log *log.Logger
}

func New(logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{log: logger}
}

// Distribution counts entries per level. Entries with an out-of-range level
// are skipped and reported as an anomaly.
func (a *Aggregator) Distribution(entries []store.MoodEntry) Distribution {
	var d Distribution
	for _, e := range entries {
		if !e.Level.Valid() {
			d.Skipped++
			a.log.Warn("skipping entry with invalid mood level", "id", e.ID, "level", int(e.Level))
			continue
		}
		d.counts[e.Level-mood.MinLevel]++
	}
	return d
}

// Summarize selects the window from month-scoped entries and aggregates it.
func (a *Aggregator) Summarize(entries []store.MoodEntry, w Window, l Locale) Summary {
	window := SelectWindow(entries, w)
	s := Summary{
		Window:       w,
		Locale:       l,
		Entries:      window,
		Label:        DateRangeLabel(window, l),
		Distribution: a.Distribution(window),
	}
	s.From, s.To, _ = DateRange(window)

	sum := 0
	for _, e := range window {
		if !e.Level.Valid() {
			continue
		}
		sum += int(e.Level)
		switch {
		case e.Level.IsPositive():
			s.Positive++
		case e.Level.IsNegative():
			s.Negative++
		}
	}
	if n := s.Distribution.Total(); n > 0 {
		s.Average = float64(sum) / float64(n)
	}
	a.log.Debug("statistics computed", "window", w, "entries", len(window), "skipped", s.Distribution.Skipped)
	return s
}
