package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobsweep/internal/adapter"
	"github.com/amishk599/jobsweep/internal/inspect"
	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/pipeline"
	"github.com/amishk599/jobsweep/internal/poller"
	"github.com/amishk599/jobsweep/internal/snapshot"
	"github.com/amishk599/jobsweep/internal/timing"
)

var inspectLive bool

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Browse sources and their history interactively (TUI)",
	Long:  "Shows the source picker, then a split view of the chosen source's timing history and its jobs from the last snapshot. With --live the jobs are fetched now instead; nothing is recorded.",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectLive, "live", false, "poll the chosen source now instead of reading the snapshot")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Log output before the alt-screen starts corrupts the display, so the
	// TUI only logs to the configured file, if any.
	logger, closeLog := setupLogger(debug, io.Discard, cfg.Log)
	defer closeLog()

	dir := cfg.Run.OutputDir
	tracker, err := timing.Load(filepath.Join(dir, pipeline.HistoryFile))
	if err != nil {
		return err
	}
	var recs []model.JobRecord
	snap, err := snapshot.Load(filepath.Join(dir, pipeline.SnapshotFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return err
	default:
		recs = snap.Records()
	}

	if len(cfg.Sources) == 0 {
		fmt.Println("No sources in config.")
		return nil
	}
	items := make([]inspect.PickerItem, len(cfg.Sources))
	for i, s := range cfg.Sources {
		items[i] = inspect.PickerItem{Source: s, Summary: tracker.Summarize(s.ID, 0)}
	}
	registry := adapter.DefaultRegistry(newHTTPClient(cfg.Run.Timeout))

	for {
		choice, err := inspect.RunSourcePicker(items)
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if choice < 0 {
			return nil
		}
		src := cfg.Sources[choice]

		view := inspect.View{
			Source:  src,
			Summary: items[choice].Summary,
			History: tracker.HistoryFor(src.ID),
			Jobs:    inspect.JobsFor(recs, src),
		}

		if inspectLive {
			fetcher, _, ok := registry.Resolve(src.Type)
			if !ok {
				stderrf("no adapter for source type %q", src.Type)
				continue
			}
			sp := poller.NewSourcePoller(src, fetcher, cfg.Run.Timeout, logger)
			res, err := inspect.RunLoader(src.Name, func(ctx context.Context) poller.Result {
				return sp.Poll(ctx)
			})
			if err != nil {
				stderrf("poll %s: %v", src.ID, err)
				continue
			}
			if !res.Outcome.Kind.Succeeded() {
				stderrf("%s: %s %s", src.ID, res.Outcome.Kind, res.Outcome.Message)
				continue
			}
			view.Jobs, view.Live = res.Records, true
		}

		wantQuit, err := inspect.RunInspectTUI(view)
		if err != nil {
			return fmt.Errorf("inspect: %w", err)
		}
		if wantQuit {
			return nil
		}
	}
}
