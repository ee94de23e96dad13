package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobsweep/internal/scheduler"
)

var startOpts runFlags

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run on the configured schedule",
	Long:  "Starts the daemon: one run immediately, then one per schedule tick. A tick is skipped while the previous run is still going. Blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	addRunFlags(startCmd, &startOpts)
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	if err := scheduler.ValidateSchedule(cfg.Schedule); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cl closers
	defer cl.close()
	opts := pipelineOptions(cmd, cfg, startOpts)
	p, err := buildPipeline(ctx, cfg, opts.Scheduler.Timeout, logger, false, &cl)
	if err != nil {
		return err
	}

	job := func(ctx context.Context) error {
		res, err := p.Run(ctx, cfg.Sources, opts)
		if err != nil {
			return err
		}
		logger.Info("scheduled run complete",
			"run", res.RunID,
			"status", string(res.Run.Status),
			"added", len(res.Changes.Added),
			"removed", len(res.Changes.Removed),
			"report", res.ReportPath,
		)
		return nil
	}

	if err := scheduler.NewDaemon(cfg.Schedule, job, logger).Run(ctx); err != nil {
		return err
	}
	logger.Info("goodbye")
	return nil
}
