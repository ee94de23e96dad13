package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work, typically a full pipeline run.
type Job func(ctx context.Context) error

// Daemon repeats a job on a cron schedule. A tick that fires while the
// previous run is still going is skipped, so runs never overlap.
type Daemon struct {
	schedule string
	job      Job
	logger   *slog.Logger
}

// NewDaemon creates a daemon. schedule accepts standard five-field cron
// expressions and descriptors such as "@every 6h" or "@daily".
func NewDaemon(schedule string, job Job, logger *slog.Logger) *Daemon {
	return &Daemon{schedule: schedule, job: job, logger: logger}
}

// ValidateSchedule reports whether schedule parses.
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// Run executes one immediate run, then follows the schedule. It returns nil
// once ctx is cancelled and any in-progress run has finished.
func (d *Daemon) Run(ctx context.Context) error {
	logger := cronLogger{d.logger}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))

	entry, err := c.AddFunc(d.schedule, func() { d.runOnce(ctx) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", d.schedule, err)
	}

	d.logger.Info("starting daemon", "schedule", d.schedule)

	// Routed through the chain so a slow first run also blocks overlapping ticks.
	first := make(chan struct{})
	go func() {
		defer close(first)
		c.Entry(entry).WrappedJob.Run()
	}()

	c.Start()
	d.logger.Info("next run scheduled", "at", c.Entry(entry).Next)

	<-ctx.Done()
	d.logger.Info("shutting down daemon")
	<-c.Stop().Done()
	<-first
	return nil
}

func (d *Daemon) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := d.job(ctx); err != nil {
		d.logger.Error("scheduled run failed", "error", err)
	}
}

// cronLogger adapts slog to cron's logger interface.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
