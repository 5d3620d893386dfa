// Package export writes mood entries to CSV or JSON files.
package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sadopc/moodtrack/internal/store"
)

type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

var ErrUnknownFormat = errors.New("unknown export format")

func Formats() []Format { return []Format{CSV, JSON} }

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case CSV:
		return CSV, nil
	case JSON:
		return JSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FileName returns the default export name, e.g. moodtrack-2024-10-05.csv.
func FileName(f Format, now time.Time) string {
	return fmt.Sprintf("moodtrack-%s.%s", now.Format("2006-01-02"), f)
}

// Write exports entries to path in format f.
func Write(f Format, entries []store.MoodEntry, path string) error {
	switch f {
	case CSV:
		return ToCSV(entries, path)
	case JSON:
		return ToJSON(entries, path)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// WriteAll exports entries in every format into dir concurrently and returns
// the written paths in Formats order.
func WriteAll(ctx context.Context, entries []store.MoodEntry, dir string, now time.Time) ([]string, error) {
	formats := Formats()
	paths := make([]string, len(formats))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		paths[i] = filepath.Join(dir, FileName(f, now))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return Write(f, entries, paths[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
