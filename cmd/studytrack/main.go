// Package main implements the studytrack CLI and TUI.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	_ "time/tzdata"

	"github.com/jwulff/studytrack/internal/alert"
	"github.com/jwulff/studytrack/internal/app"
	"github.com/jwulff/studytrack/internal/config"
	"github.com/jwulff/studytrack/internal/db"
	"github.com/jwulff/studytrack/internal/logger"
	"github.com/jwulff/studytrack/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	tea "github.com/charmbracelet/bubbletea"
)

const appName = "studytrack"

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          appName,
	Short:        "Studytrack - pomodoro timer, study stats and per-subject to-dos",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runTUI,
}

var (
	rootDir    string
	rootConfig string
	rootQuiet  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "dir", "", "Data directory (default $STUDYTRACK_DIR or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&rootConfig, "config", "", "Config file (default <dir>/config.toml)")
	rootCmd.Flags().BoolVar(&rootQuiet, "quiet", false, "Disable notifications and sounds")
}

// env bundles what every subcommand opens.
type env struct {
	dir    string
	cfg    *config.Config
	store  *db.Store
	logger *slog.Logger
	closer io.Closer
}

// openEnv resolves the data directory, loads config and opens the store.
func openEnv() (*env, error) {
	dir, err := config.DataDir(rootDir)
	if err != nil {
		return nil, err
	}

	path := rootConfig
	if path == "" {
		path = config.Path(dir)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	log, closer, err := logger.New(dir, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	store, err := db.Open(db.DefaultDBPath(dir), log)
	if err != nil {
		closer.Close()
		return nil, err
	}
	return &env{dir: dir, cfg: cfg, store: store, logger: log, closer: closer}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("close store", "err", err)
	}
	e.closer.Close()
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the timer needs a terminal; see studytrack --help for subcommands")
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	var notifier alert.Notifier = alert.Silent{}
	if !rootQuiet {
		notifier = alert.NewDesktop(appName)
		e.logger.Info("notifications enabled")
	}

	e.logger.Info("starting", "dir", e.dir,
		"work", e.cfg.Timer.WorkMinutes,
		"short", e.cfg.Timer.ShortBreakMinutes,
		"long", e.cfg.Timer.LongBreakMinutes)

	model := app.New(app.Deps{
		Store:    e.store,
		Notifier: notifier,
		Logger:   e.logger,
		Clock:    session.SystemClock{},
		Config:   e.cfg,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
