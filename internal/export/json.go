package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/moodtrack/internal/store"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          string `json:"id"`
	Level       int    `json:"level"`
	Mood        string `json:"mood"`
	Description string `json:"description"`
	Created     string `json:"created"`
	Edited      string `json:"edited,omitempty"`
}

func ToJSON(entries []store.MoodEntry, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
		Entries:    make([]jsonEntry, 0, len(entries)),
	}

	for _, e := range entries {
		export.Entries = append(export.Entries, jsonEntry{
			ID:          e.ID.String(),
			Level:       int(e.Level),
			Mood:        e.Level.Name(),
			Description: e.Level.Description(),
			Created:     e.CreateDate.Local().Format(time.RFC3339),
			Edited:      formatEdited(e.EditDate),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
