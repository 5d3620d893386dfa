// Package mood defines the five mood levels a journal entry can carry.
package mood

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Level is a subjective mood rating, 1 (most negative) to 5 (most positive).
type Level int

const (
	Melancholic  Level = 1
	Disappointed Level = 2
	Calm         Level = 3
	Delighted    Level = 4
	StarStruck   Level = 5
)

const (
	MinLevel = Melancholic
	MaxLevel = StarStruck

	// Count is the number of defined levels.
	Count = int(MaxLevel-MinLevel) + 1
)

var ErrInvalidLevel = errors.New("invalid mood level")

type levelInfo struct {
	name        string
	description string
	color       string
	emoji       string
}

var levels = map[Level]levelInfo{
	Melancholic:  {"melancholic", "Unpleasant day", "#3498DB", "😞"},
	Disappointed: {"disappointed", "Sad day", "#6C63FF", "😔"},
	Calm:         {"calm", "Neutral day", "#2ECC71", "😌"},
	Delighted:    {"delighted", "Pleasant day", "#F39C12", "😊"},
	StarStruck:   {"star-struck", "Very pleasant day", "#E74C3C", "🤩"},
}

// Levels returns every defined level in ascending order.
func Levels() []Level {
	return []Level{Melancholic, Disappointed, Calm, Delighted, StarStruck}
}

func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// Validate returns ErrInvalidLevel wrapped with the offending value.
func (l Level) Validate() error {
	if !l.Valid() {
		return fmt.Errorf("%w: %d (want %d..%d)", ErrInvalidLevel, int(l), int(MinLevel), int(MaxLevel))
	}
	return nil
}

func (l Level) Name() string {
	if info, ok := levels[l]; ok {
		return info.name
	}
	return "unknown"
}

func (l Level) String() string {
	return l.Name()
}

// Description is the human phrase shown next to an entry.
func (l Level) Description() string {
	if info, ok := levels[l]; ok {
		return info.description
	}
	return "Just a day"
}

// Color is a hex color used for charts and list markers.
func (l Level) Color() string {
	if info, ok := levels[l]; ok {
		return info.color
	}
	return levels[Calm].color
}

func (l Level) Emoji() string {
	if info, ok := levels[l]; ok {
		return info.emoji
	}
	return levels[Calm].emoji
}

func (l Level) IsPositive() bool { return l == Delighted || l == StarStruck }
func (l Level) IsNegative() bool { return l == Melancholic || l == Disappointed }

// Parse accepts either the numeric value ("1".."5") or a level name.
func Parse(s string) (Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, err := strconv.Atoi(s); err == nil {
		l := Level(n)
		if err := l.Validate(); err != nil {
			return 0, err
		}
		return l, nil
	}
	for l, info := range levels {
		if info.name == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}
