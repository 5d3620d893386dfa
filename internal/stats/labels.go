package stats

import (
	"fmt"
	"strings"
	"time"
)

// Locale selects month names and fact phrasing.
type Locale string

const (
	English Locale = "en"
	Russian Locale = "ru"
)

func Locales() []Locale { return []Locale{English, Russian} }

// ParseLocale accepts "en" or "ru", case-insensitive. Region suffixes
// ("en_US", "ru-RU") are ignored.
func ParseLocale(s string) (Locale, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "_-."); i > 0 {
		s = s[:i]
	}
	for _, l := range Locales() {
		if string(l) == s {
			return l, nil
		}
	}
	return English, fmt.Errorf("unknown locale %q", s)
}

var monthNames = map[Locale][12]string{
	English: {
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	// Genitive case, as used after a day number.
	Russian: {
		"января", "февраля", "марта", "апреля", "мая", "июня",
		"июля", "августа", "сентября", "октября", "ноября", "декабря",
	},
}

// formatDay renders t as "day month-name" in the local time zone.
func formatDay(t time.Time, l Locale) string {
	names, ok := monthNames[l]
	if !ok {
		names = monthNames[English]
	}
	t = t.Local()
	return fmt.Sprintf("%d %s", t.Day(), names[t.Month()-1])
}

const rangeSeparator = " - "

type factKey int

const (
	factEmpty factKey = iota
	factMoreGood
	factMoreBad
	factBalanced
)

var facts = map[Locale]map[factKey]string{
	English: {
		factEmpty:    "No entries yet. Log your mood to see statistics.",
		factMoreGood: "According to the statistics, this %s had more good days than bad ones. Keep it up!",
		factMoreBad:  "This %s had more bad days than good ones. Take care of yourself.",
		factBalanced: "This %s had as many good days as bad ones.",
	},
	Russian: {
		factEmpty:    "Записей пока нет. Отметьте настроение, чтобы увидеть статистику.",
		factMoreGood: "По статистике, %s было больше хороших дней, чем плохих. Так держать!",
		factMoreBad:  "%s было больше плохих дней, чем хороших. Берегите себя.",
		factBalanced: "%s хороших и плохих дней было поровну.",
	},
}

var windowPhrases = map[Locale]map[Window]string{
	English: {Week: "week", Month: "month"},
	Russian: {Week: "на этой неделе", Month: "в этом месяце"},
}

func factText(l Locale, key factKey, w Window) string {
	table, ok := facts[l]
	if !ok {
		l, table = English, facts[English]
	}
	text := table[key]
	if key == factEmpty {
		return text
	}
	phrase := windowPhrases[l][w]
	if l == Russian && key != factMoreGood {
		phrase = capitalize(phrase)
	}
	return fmt.Sprintf(text, phrase)
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
