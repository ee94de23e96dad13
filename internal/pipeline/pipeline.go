// Package pipeline runs one complete poll: load state, schedule every source,
// merge, diff against the previous snapshot, persist and announce.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobsweep/internal/aggregate"
	"github.com/amishk599/jobsweep/internal/changes"
	"github.com/amishk599/jobsweep/internal/filter"
	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/ratelimit"
	"github.com/amishk599/jobsweep/internal/report"
	"github.com/amishk599/jobsweep/internal/retry"
	"github.com/amishk599/jobsweep/internal/scheduler"
	"github.com/amishk599/jobsweep/internal/snapshot"
	"github.com/amishk599/jobsweep/internal/store"
	"github.com/amishk599/jobsweep/internal/timing"
)

// Artifact names inside the output directory.
const (
	SnapshotFile = "all_jobs.csv"
	BackupFile   = "all_jobs_backup.csv"
	PartialFile  = "all_jobs_partial.csv"
	HistoryFile  = "timing_history.json"
)

const (
	retryBaseDelay = 2 * time.Second
	sinkTimeout    = 30 * time.Second
	maxNotifyJobs  = 100
)

// Exporter mirrors a run's snapshot into an external store.
type Exporter interface {
	Export(ctx context.Context, runID string, cur *snapshot.Snapshot, report changes.Report) error
}

// Uploader copies run artifacts elsewhere.
type Uploader interface {
	Upload(ctx context.Context, runID string, runDate time.Time, files []string) error
}

// Options controls a single Run.
type Options struct {
	OutputDir    string
	Scheduler    scheduler.Config
	MaxRetries   int
	HostMinDelay time.Duration
	Select       []string // glob patterns; empty selects every source

	// DryRun polls every source but persists nothing and skips all sinks.
	DryRun bool
}

// Result is what a finished run produced.
type Result struct {
	RunID      string
	Run        scheduler.RunResult
	Changes    changes.Report
	Report     report.Report
	Received   int
	Duplicates int

	SnapshotPath   string // empty for dry runs
	ReportPath     string
	ReportJSONPath string
}

// Pipeline wires the runner to persistence and sinks.
type Pipeline struct {
	resolver  scheduler.Resolver
	logger    *slog.Logger
	archive   model.RunArchive
	notifier  model.Notifier
	exporter  Exporter
	uploader  Uploader
	highlight *filter.TitleAndLocationFilter

	newID func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithArchive stores every run summary.
func WithArchive(a model.RunArchive) Option {
	return func(p *Pipeline) { p.archive = a }
}

// WithNotifier announces finished runs.
func WithNotifier(n model.Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithExporter mirrors snapshots after each run.
func WithExporter(e Exporter) Option {
	return func(p *Pipeline) { p.exporter = e }
}

// WithUploader copies artifacts after each run.
func WithUploader(u Uploader) Option {
	return func(p *Pipeline) { p.uploader = u }
}

// WithHighlightFilter restricts the new jobs listed in reports and
// notifications to those f matches.
func WithHighlightFilter(f *filter.TitleAndLocationFilter) Option {
	return func(p *Pipeline) { p.highlight = f }
}

// New creates a pipeline. Without options it archives nothing and notifies
// nobody.
func New(resolver scheduler.Resolver, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver: resolver,
		logger:   logger,
		archive:  store.NewNopStore(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one poll over sources. Per-source failures end up in the
// result; only failures of shared state (history, snapshot, run lock) are
// returned as errors. When ctx is cancelled mid-run, completed outcomes are
// still recorded and the partial merge is written to PartialFile, leaving the
// previous snapshot in place as the next run's baseline.
func (p *Pipeline) Run(ctx context.Context, sources []model.SourceConfig, opts Options) (*Result, error) {
	runID := p.newID()
	logger := p.logger.With("run", runID)
	dir := opts.OutputDir

	if len(opts.Select) > 0 {
		sel, err := filter.NewSourceSelector(opts.Select)
		if err != nil {
			return nil, err
		}
		sources = sel.Select(sources)
	}

	if !opts.DryRun {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		unlock, err := acquireLock(dir)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	tracker, err := timing.Load(filepath.Join(dir, HistoryFile))
	if err != nil {
		return nil, err
	}
	prev, err := snapshot.Load(filepath.Join(dir, SnapshotFile))
	if errors.Is(err, fs.ErrNotExist) {
		prev, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	runner := scheduler.NewRunner(p.resolver, tracker, opts.Scheduler, logger, p.middlewares(opts, logger)...)
	agg := aggregate.New()

	run, err := runner.Run(ctx, sources, agg)
	if err != nil {
		return nil, err
	}
	if !opts.DryRun {
		if err := tracker.Flush(); err != nil {
			return nil, err
		}
		logger.Debug("timing history saved", "path", tracker.Path(), "entries", tracker.Appended())
	}

	merged := agg.Snapshot()
	diff := changes.Detect(prev, merged.Snapshot, run.StartedAt)

	res := &Result{
		RunID:      runID,
		Run:        run,
		Changes:    diff,
		Received:   merged.Received,
		Duplicates: merged.Duplicates,
	}
	res.Report = report.Build(p.reportData(runID, run, diff, tracker, sources, opts))

	logger.Info("changes detected",
		"previous", diff.PreviousCount,
		"current", diff.CurrentCount,
		"added", len(diff.Added),
		"removed", len(diff.Removed),
		"duplicates", merged.Duplicates,
		"first_run", diff.FirstRun(),
	)

	if opts.DryRun {
		return res, nil
	}

	if err := p.persist(dir, merged.Snapshot, res); err != nil {
		return res, err
	}
	p.publish(ctx, logger, merged.Snapshot, res)
	return res, nil
}

func (p *Pipeline) middlewares(opts Options, logger *slog.Logger) []scheduler.Middleware {
	limiter := ratelimit.NewHostLimiter(opts.HostMinDelay)
	mws := []scheduler.Middleware{}
	if opts.MaxRetries > 0 {
		mws = append(mws, func(f model.Fetcher) model.Fetcher {
			return retry.NewRetryFetcher(f, opts.MaxRetries, retryBaseDelay, logger)
		})
	}
	// Pacing applies to every attempt, so it sits inside the retry.
	mws = append(mws, func(f model.Fetcher) model.Fetcher {
		return ratelimit.NewRateLimitedFetcher(f, limiter)
	})
	return mws
}

func (p *Pipeline) reportData(runID string, run scheduler.RunResult, diff changes.Report, tracker *timing.Tracker, sources []model.SourceConfig, opts Options) report.Data {
	names := make(map[string]string, len(sources))
	for _, s := range sources {
		names[s.ID] = s.Name
	}
	d := report.Data{
		RunID:       runID,
		GeneratedAt: run.StartedAt,
		Status:      run.Status,
		Aborted:     run.Aborted,
		Outcomes:    run.Outcomes,
		Skipped:     run.Skipped,
		Changes:     diff,
		Delay:       opts.Scheduler.Delay,
		Names:       names,
	}
	if prevAvg, ok := tracker.PreviousRunAverage(run.StartedAt); ok {
		if rt, ok := timing.SummarizeRun(run.Outcomes); ok {
			tr := timing.CompareRuns(prevAvg, rt.Average)
			d.Trend = &tr
		}
	}
	if p.highlight != nil {
		d.Highlights = p.highlight.Apply(diff.AddedJobs)
		d.Removed = p.highlight.Apply(diff.RemovedJobs)
	}
	return d
}

// persist writes the snapshot and the report. An aborted run writes its
// partial merge beside the snapshot instead of replacing it.
func (p *Pipeline) persist(dir string, cur *snapshot.Snapshot, res *Result) error {
	snapPath := filepath.Join(dir, SnapshotFile)
	if res.Run.Aborted {
		snapPath = filepath.Join(dir, PartialFile)
	} else if err := snapshot.Backup(snapPath, filepath.Join(dir, BackupFile)); err != nil {
		return err
	}
	if err := snapshot.Save(snapPath, cur); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	res.SnapshotPath = snapPath

	txt, js, err := report.Write(dir, res.Report)
	if err != nil {
		return err
	}
	res.ReportPath, res.ReportJSONPath = txt, js
	return nil
}

// publish hands the finished run to every configured sink. Sink failures
// are logged and never fail the run.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, cur *snapshot.Snapshot, res *Result) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	summary := p.summary(res)

	if err := p.archive.SaveRun(ctx, summary); err != nil {
		logger.Error("archive run failed", "error", err)
	}
	if p.exporter != nil && !res.Run.Aborted {
		if err := p.exporter.Export(ctx, res.RunID, cur, res.Changes); err != nil {
			logger.Error("export snapshot failed", "error", err)
		}
	}
	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, summary); err != nil {
			logger.Error("notify failed", "error", err)
		}
	}
	if p.uploader != nil {
		files := []string{res.SnapshotPath, res.ReportPath, res.ReportJSONPath, filepath.Join(filepath.Dir(res.SnapshotPath), HistoryFile)}
		if err := p.uploader.Upload(ctx, res.RunID, res.Run.StartedAt, files); err != nil {
			logger.Error("upload artifacts failed", "error", err)
		}
	}
}

func (p *Pipeline) summary(res *Result) model.RunSummary {
	diff := res.Changes
	jobs := diff.AddedJobs
	if p.highlight != nil {
		jobs = p.highlight.Apply(jobs)
	}
	if len(jobs) > maxNotifyJobs {
		jobs = jobs[:maxNotifyJobs]
	}
	return model.RunSummary{
		RunID:         res.RunID,
		StartedAt:     res.Run.StartedAt,
		FinishedAt:    res.Run.FinishedAt,
		Status:        res.Run.Status,
		Aborted:       res.Run.Aborted,
		Outcomes:      res.Run.Outcomes,
		PreviousCount: diff.PreviousCount,
		CurrentCount:  diff.CurrentCount,
		Added:         len(diff.Added),
		Removed:       len(diff.Removed),
		FirstRun:      diff.FirstRun(),
		ReportPath:    res.ReportPath,
		NewJobs:       jobs,
	}
}
