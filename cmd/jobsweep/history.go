package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobsweep/internal/pipeline"
	"github.com/amishk599/jobsweep/internal/store"
	"github.com/amishk599/jobsweep/internal/timing"
)

var (
	historyLast int
	historyRuns int
)

var historyCmd = &cobra.Command{
	Use:   "history [source]",
	Short: "Show timing history",
	Long:  "Without arguments, prints a rolling summary per source and the most recent archived runs. With a source ID, prints that source's recorded calls, newest first.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLast, "last", timing.DefaultWindow, "number of calls to summarize or list")
	historyCmd.Flags().IntVar(&historyRuns, "runs", 5, "number of archived runs to list (needs store.path)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tracker, err := timing.Load(filepath.Join(cfg.Run.OutputDir, pipeline.HistoryFile))
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return printSourceHistory(tracker, args[0])
	}

	ids := tracker.Sources()
	if len(ids) == 0 {
		fmt.Println("No timing history yet.")
		return nil
	}
	t := table{header: []string{"Source", "Calls", "OK", "Avg", "Jobs/s", "Last", "When"}}
	for _, id := range ids {
		s := tracker.Summarize(id, historyLast)
		t.add(id,
			strconv.Itoa(s.TotalRuns),
			fmt.Sprintf("%.0f%%", s.SuccessRate*100),
			fmt.Sprintf("%.1fs", s.MeanDuration.Seconds()),
			fmt.Sprintf("%.1f", s.MeanJobsPerSecond),
			string(s.LastOutcome),
			humanize.Time(s.LastRun),
		)
	}
	t.write(os.Stdout)

	if cfg.Store.Path == "" || historyRuns <= 0 {
		return nil
	}
	archive, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer archive.Close()
	runs, err := archive.RecentRuns(context.Background(), historyRuns)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return nil
	}
	fmt.Println()
	rt := table{header: []string{"Run", "Started", "Status", "Jobs", "Added", "Removed"}}
	for _, r := range runs {
		rt.add(r.RunID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			string(r.Status),
			humanize.Comma(int64(r.CurrentCount)),
			strconv.Itoa(r.Added),
			strconv.Itoa(r.Removed),
		)
	}
	rt.write(os.Stdout)
	return nil
}

func printSourceHistory(tracker *timing.Tracker, id string) error {
	entries := tracker.HistoryFor(id)
	if len(entries) == 0 {
		return fmt.Errorf("no history for source %q", id)
	}
	slices.Reverse(entries)
	if historyLast > 0 && len(entries) > historyLast {
		entries = entries[:historyLast]
	}

	t := table{header: []string{"When", "Outcome", "Duration", "Jobs"}}
	for _, e := range entries {
		t.add(e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			string(e.Outcome),
			fmt.Sprintf("%.1fs", e.Duration().Seconds()),
			strconv.Itoa(e.JobCount),
		)
	}
	t.write(os.Stdout)

	s := tracker.Summarize(id, historyLast)
	fmt.Printf("\n%d calls total; last %d: %.0f%% ok, avg %.1fs, %.1f jobs/s\n",
		s.TotalRuns, s.Runs, s.SuccessRate*100, s.MeanDuration.Seconds(), s.MeanJobsPerSecond)
	return nil
}
