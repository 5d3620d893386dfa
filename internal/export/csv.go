package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/moodtrack/internal/store"
)

var csvHeader = []string{"ID", "Level", "Mood", "Description", "Created", "Edited"}

func ToCSV(entries []store.MoodEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			e.ID.String(),
			strconv.Itoa(int(e.Level)),
			e.Level.Name(),
			e.Level.Description(),
			e.CreateDate.Local().Format(time.RFC3339),
			formatEdited(e.EditDate),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatEdited(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}
