package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jwulff/studytrack/internal/stats"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show study time per subject",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var (
	statsPeriod string
	statsTZ     string
)

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&statsPeriod, "period", "p", "weekly", "Bucket period (daily, weekly, monthly)")
	statsCmd.Flags().StringVar(&statsTZ, "tz", "", "Time zone for calendar buckets (default local)")
}

func runStats(cmd *cobra.Command, args []string) error {
	period, err := stats.ParsePeriod(statsPeriod)
	if err != nil {
		return err
	}
	loc, err := loadLocation(statsTZ)
	if err != nil {
		return err
	}

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
	sum := stats.Summarize(records, period, loc)
	if sum.TotalSessions == 0 {
		fmt.Fprintln(out, "No sessions recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "%s %s\n", sum.Period, sum.LatestKey)
	for _, l := range sum.Lines {
		fmt.Fprintf(out, "%-22s %6s min  total %s min  %s  avg %d min\n",
			l.Subject, humanize.Comma(int64(l.PeriodMinutes)),
			humanize.Comma(int64(l.TotalMinutes)), l.SessionsLabel(), l.AverageMinutes)
	}
	if sum.HasTopSubject {
		fmt.Fprintf(out, "Top subject this week: %s (%s min)\n",
			sum.TopSubject, humanize.Comma(int64(sum.TopMinutes)))
	}
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}
