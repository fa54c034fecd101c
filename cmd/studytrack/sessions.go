package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jwulff/studytrack/internal/config"
	"github.com/jwulff/studytrack/internal/db"
	"github.com/jwulff/studytrack/internal/subject"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect or add completed study sessions",
}

// sessions list
var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded sessions, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

// sessions log
var sessionsLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Record a session that was completed away from the timer",
	Args:  cobra.NoArgs,
	RunE:  runSessionsLog,
}

var (
	sessionsLogSubject string
	sessionsLogMinutes string
	sessionsLogAt      string
	sessionsLogNote    string
)

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsLogCmd)

	sessionsLogCmd.Flags().StringVarP(&sessionsLogSubject, "subject", "s", "", "Subject studied (default from config)")
	sessionsLogCmd.Flags().StringVarP(&sessionsLogMinutes, "minutes", "m", "", "Length in minutes, 1-999 (default work-minutes from config)")
	sessionsLogCmd.Flags().StringVar(&sessionsLogAt, "at", "", "Completion time, RFC 3339 (default now)")
	sessionsLogCmd.Flags().StringVar(&sessionsLogNote, "note", "", "Optional note")
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	records, err := e.store.Sessions(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No sessions recorded yet.")
		return nil
	}
	for _, r := range records {
		line := fmt.Sprintf("%s  %-20s %3d min", r.Timestamp.UTC().Format(time.RFC3339), r.Subject, r.Duration/60)
		if r.Note != "" {
			line += "  " + r.Note
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runSessionsLog(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	subj := e.cfg.Subject()
	if sessionsLogSubject != "" {
		if subj, err = subject.Parse(sessionsLogSubject); err != nil {
			return err
		}
	}
	minutes := e.cfg.Timer.WorkMinutes
	if sessionsLogMinutes != "" {
		if minutes, err = config.ParseMinutes(sessionsLogMinutes); err != nil {
			return err
		}
	}
	at := time.Now()
	if sessionsLogAt != "" {
		if at, err = time.Parse(time.RFC3339, sessionsLogAt); err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
	}

	rec := db.SessionRecord{
		Timestamp: at.UTC().Truncate(time.Millisecond),
		Duration:  minutes * 60,
		Subject:   subj,
		Note:      sessionsLogNote,
	}
	if err := e.store.AppendSession(context.Background(), rec); err != nil {
		return err
	}
	e.logger.Info("session logged", "subject", subj, "minutes", minutes)
	fmt.Fprintf(cmd.OutOrStdout(), "Logged %d min of %s\n", minutes, subj)
	return nil
}
