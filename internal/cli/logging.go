package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger logs to stderr for subcommands. The interactive interface owns
// the terminal, so it logs to the configured file or nowhere.
func (a *app) newLogger(interactive bool) (*log.Logger, error) {
	w := a.opts.Stderr
	if interactive {
		w = io.Discard
		if a.cfg.LogFile != "" {
			f, err := openLogFile(a.cfg.LogFile)
			if err != nil {
				return nil, err
			}
			a.logFile = f
			w = f
		}
	}

	return log.NewWithOptions(w, log.Options{
		Level:           a.cfg.Level(),
		Prefix:          "moodtrack",
		ReportTimestamp: true,
		TimeFormat:      time.Stamp,
	}), nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
