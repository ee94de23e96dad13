package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobsweep/internal/config"
	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/pipeline"
	"github.com/amishk599/jobsweep/internal/report"
	"github.com/amishk599/jobsweep/internal/scheduler"
)

// runFlags override the run section of the config when set.
type runFlags struct {
	limit       int
	delay       time.Duration
	timeout     time.Duration
	concurrency int
	outputDir   string
	selectGlobs []string
	strict      bool
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll every source once and report changes",
	Long:  "Runs one full poll: every enabled source is fetched, results are merged into the snapshot, compared with the previous one, and the change report is written to the output directory.",
	RunE:  runRun,
}

func init() {
	addRunFlags(runCmd, &runOpts)
	runCmd.Flags().BoolVar(&runOpts.strict, "strict", false, "exit 2 when some sources failed and 3 when all failed")
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().IntVar(&f.limit, "limit", 0, "process at most this many sources (0 = all)")
	cmd.Flags().DurationVar(&f.delay, "delay", 0, "minimum delay between calls (default from config)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "per-source timeout (default from config)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "number of sources polled in parallel (default from config)")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "directory for snapshot, history and reports (default from config)")
	cmd.Flags().StringSliceVar(&f.selectGlobs, "select", nil, "only poll sources whose id or type/id matches these globs; prefix with ! to exclude")
}

// pipelineOptions merges flags that were set on cmd over the config.
func pipelineOptions(cmd *cobra.Command, cfg *config.Config, f runFlags) pipeline.Options {
	rc := cfg.Run
	changed := cmd.Flags().Changed
	if changed("limit") {
		rc.Limit = f.limit
	}
	if changed("delay") {
		rc.Delay = f.delay
	}
	if changed("timeout") {
		rc.Timeout = f.timeout
	}
	if changed("concurrency") && f.concurrency > 0 {
		rc.Concurrency = f.concurrency
	}
	if changed("output-dir") {
		rc.OutputDir = f.outputDir
	}
	return pipeline.Options{
		OutputDir: rc.OutputDir,
		Scheduler: scheduler.Config{
			Concurrency:   rc.Concurrency,
			Delay:         rc.Delay,
			AdaptiveDelay: rc.AdaptiveDelay,
			Timeout:       rc.Timeout,
			Limit:         rc.Limit,
		},
		MaxRetries:   rc.MaxRetries,
		HostMinDelay: cfg.RateLimit.MinDelay,
		Select:       f.selectGlobs,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := pipelineOptions(cmd, cfg, runOpts)

	var cl closers
	defer cl.close()
	p, err := buildPipeline(ctx, cfg, opts.Scheduler.Timeout, logger, false, &cl)
	if err != nil {
		return err
	}

	logger.Info("config loaded",
		"sources", len(cfg.Sources),
		"enabled", len(cfg.EnabledSources()),
		"output_dir", opts.OutputDir,
	)

	res, err := p.Run(ctx, cfg.Sources, opts)
	if err != nil {
		return err
	}

	fmt.Print(report.Console(res.Report))
	if res.ReportPath != "" {
		fmt.Printf("report: %s\n", res.ReportPath)
	}

	if runOpts.strict {
		return statusExit(res.Run.Status)
	}
	return nil
}

func statusExit(s model.RunStatus) error {
	switch s {
	case model.StatusSomeFailed:
		return &exitError{code: 2}
	case model.StatusAllFailed:
		return &exitError{code: 3}
	}
	return nil
}

// stderrf prints a one-line notice for the operator.
func stderrf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
