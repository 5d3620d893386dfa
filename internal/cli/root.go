// Package cli is the moodtrack command tree. The bare command opens the
// interactive interface; subcommands work on the store directly.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sadopc/moodtrack/internal/config"
	"github.com/sadopc/moodtrack/internal/stats"
	"github.com/sadopc/moodtrack/internal/store"
	"github.com/sadopc/moodtrack/internal/tui"
)

// Options lets callers replace the process streams and the interactive UI.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	// RunTUI runs the interactive interface. Defaults to tui.Run.
	RunTUI func(tui.Options) error
}

type app struct {
	opts Options

	configPath string
	dbPath     string
	logLevel   string

	cfg     *config.Config
	log     *log.Logger
	logFile *os.File
	handle  *store.Handle
	agg     *stats.Aggregator
}

// Execute runs the command tree with args and releases the store afterwards.
func Execute(ctx context.Context, args []string, opts Options) error {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.RunTUI == nil {
		opts.RunTUI = tui.Run
	}

	a := &app{opts: opts}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close())
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "moodtrack",
		Short:             "Track your daily mood from the terminal",
		Long:              "moodtrack keeps a local journal of daily mood ratings and shows weekly and monthly statistics.",
		SilenceUsage:      true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setup,
		RunE:              a.runTUI,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.config/moodtrack/config.yaml)")
	flags.StringVar(&a.dbPath, "db", "", "database path (overrides config and MOODTRACK_DB)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		a.addCmd(),
		a.deleteCmd(),
		a.listCmd(),
		a.statsCmd(),
		a.exportCmd(),
	)
	return root
}

// setup resolves configuration, builds the logger and opens the store.
// A failed open is not returned here: subcommands report it when they ask
// for the store, and the interface starts degraded.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	interactive := cmd == cmd.Root()
	if a.log, err = a.newLogger(interactive); err != nil {
		return err
	}

	a.agg = stats.New(a.log)
	a.handle = store.NewHandle(cfg.DBPath, a.log)
	a.handle.Setup(func(r store.SetupResult) {
		if r == store.SetupFailed {
			a.log.Warn("continuing without storage", "db", cfg.DBPath)
		}
	})
	return nil
}

// store returns the open store or the reason it could not be opened.
func (a *app) store() (*store.Store, error) {
	s, err := a.handle.Store()
	if err != nil {
		return nil, fmt.Errorf("storage unavailable: %w", err)
	}
	return s, nil
}

func (a *app) locale(s *store.Store, flag string) (stats.Locale, error) {
	if flag != "" {
		return stats.ParseLocale(flag)
	}
	l, err := stats.ParseLocale(s.SettingOr(store.SettingLocale, a.cfg.Locale))
	if err != nil {
		a.log.Warn("ignoring stored locale", "err", err)
	}
	return l, nil
}

func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	opts := tui.Options{
		Aggregator: a.agg,
		Logger:     a.log,
		Locale:     stats.English,
	}
	if l, err := stats.ParseLocale(a.cfg.Locale); err == nil {
		opts.Locale = l
	}
	if s, err := a.handle.Store(); err != nil {
		opts.StoreErr = err
	} else {
		opts.Store = s
	}
	return a.opts.RunTUI(opts)
}

func (a *app) close() error {
	var errs []error
	if a.handle != nil {
		errs = append(errs, a.handle.Close())
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}
