package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/report"
)

// checkDelay replaces the configured delay in check mode.
const checkDelay = 200 * time.Millisecond

var (
	checkOpts    runFlags
	checkPerType bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Poll sources once without writing anything",
	Long:  "Dry run: polls the sources with a short delay and prints the outcomes. No snapshot, history or report is written and no notification is sent.",
	RunE:  runCheck,
}

func init() {
	addRunFlags(checkCmd, &checkOpts)
	checkCmd.Flags().BoolVar(&checkPerType, "per-type", false, "poll only the first enabled source of each type")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("check mode: nothing will be written")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := pipelineOptions(cmd, cfg, checkOpts)
	opts.DryRun = true

	var cl closers
	defer cl.close()
	p, err := buildPipeline(ctx, cfg, opts.Scheduler.Timeout, logger, true, &cl)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("delay") {
		opts.Scheduler.Delay = checkDelay
	}

	sources := cfg.Sources
	if checkPerType {
		sources = firstPerType(sources)
	}

	res, err := p.Run(ctx, sources, opts)
	if err != nil {
		return err
	}
	fmt.Print(report.Console(res.Report))
	logger.Info("check complete")
	return nil
}

// firstPerType disables every source but the first enabled one of each type.
func firstPerType(sources []model.SourceConfig) []model.SourceConfig {
	seen := make(map[string]bool)
	out := make([]model.SourceConfig, len(sources))
	for i, s := range sources {
		out[i] = s
		if !s.Enabled {
			continue
		}
		if seen[s.Type] {
			out[i].Enabled = false
			continue
		}
		seen[s.Type] = true
	}
	return out
}
