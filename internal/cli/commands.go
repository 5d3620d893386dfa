package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sadopc/moodtrack/internal/export"
	"github.com/sadopc/moodtrack/internal/mood"
	"github.com/sadopc/moodtrack/internal/stats"
	"github.com/sadopc/moodtrack/internal/store"
)

const dateLayout = "2006-01-02"

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <level>",
		Short: "Record a mood entry",
		Long:  "Record a mood entry. The level is 1-5 or one of: melancholic, disappointed, calm, delighted, star-struck.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := mood.Parse(args[0])
			if err != nil {
				return err
			}
			s, err := a.store()
			if err != nil {
				return err
			}
			e, err := s.AddEntry(level)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", e.Level.Emoji(), e.Level.Name(), e.ID)
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a mood entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid entry id %q: %w", args[0], err)
			}
			s, err := a.store()
			if err != nil {
				return err
			}
			if err := s.DeleteEntry(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var since string
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List mood entries, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := store.EntryFilter{Limit: limit}
			if since != "" {
				t, err := time.ParseInLocation(dateLayout, since, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --since date %q, want YYYY-MM-DD: %w", since, err)
				}
				f.From = &t
			}

			s, err := a.store()
			if err != nil {
				return err
			}
			entries, err := s.ListEntries(f)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no entries")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderEntries(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "only entries on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of entries (0 for all)")
	return cmd
}

func renderEntries(entries []store.MoodEntry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "MOOD", "LEVEL", "CREATED")
	for _, e := range entries {
		t.Row(
			e.ID.String(),
			e.Level.Emoji()+" "+e.Level.Name(),
			fmt.Sprint(int(e.Level)),
			e.CreateDate.Local().Format("2006-01-02 15:04"),
		)
	}
	return t.String()
}

func (a *app) statsCmd() *cobra.Command {
	var windowFlag, localeFlag string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics for the last week or month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}

			if windowFlag == "" {
				windowFlag = s.SettingOr(store.SettingDefaultWindow, stats.Month.String())
			}
			w, err := stats.ParseWindow(windowFlag)
			if err != nil {
				return err
			}
			l, err := a.locale(s, localeFlag)
			if err != nil {
				return err
			}

			entries, err := s.FetchLastMonth()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderSummary(a.agg.Summarize(entries, w, l)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&windowFlag, "window", "w", "", "week or month (default from settings)")
	cmd.Flags().StringVar(&localeFlag, "locale", "", "label language: en or ru")
	return cmd
}

func renderSummary(sum stats.Summary) string {
	var b strings.Builder
	if sum.Label != "" {
		fmt.Fprintf(&b, "%s (%s)\n", sum.Label, sum.Window)
	} else {
		fmt.Fprintf(&b, "%s\n", sum.Window)
	}

	if total := sum.Distribution.Total(); total > 0 {
		for _, bk := range sum.Distribution.Buckets(stats.Descending) {
			fmt.Fprintf(&b, "  %s %-13s %3d  %5.1f%%\n",
				bk.Level.Emoji(), bk.Level.Name(), bk.Count, sum.Distribution.Percent(bk.Level))
		}
		fmt.Fprintf(&b, "  average %.2f over %d entries\n", sum.Average, total)
	}
	if sum.Distribution.Skipped > 0 {
		fmt.Fprintf(&b, "  %d entries skipped with an invalid level\n", sum.Distribution.Skipped)
	}
	fmt.Fprintln(&b, sum.Fact())
	return b.String()
}

func (a *app) exportCmd() *cobra.Command {
	var formatFlag, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all entries to CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			entries, err := s.FetchEntriesSince(time.Time{})
			if err != nil {
				return err
			}

			if out == "" {
				if out, err = os.Getwd(); err != nil {
					return err
				}
			}

			now := time.Now()
			var paths []string
			if formatFlag == "all" {
				paths, err = export.WriteAll(cmd.Context(), entries, out, now)
				if err != nil {
					return err
				}
			} else {
				f, err := export.ParseFormat(formatFlag)
				if err != nil {
					return err
				}
				path := out
				if info, statErr := os.Stat(out); statErr == nil && info.IsDir() {
					path = filepath.Join(out, export.FileName(f, now))
				}
				if err := export.Write(f, entries, path); err != nil {
					return err
				}
				paths = []string{path}
			}

			a.log.Info("export finished", "entries", len(entries), "files", len(paths))
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "csv", "csv, json or all")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, or directory (default current directory)")
	return cmd
}
