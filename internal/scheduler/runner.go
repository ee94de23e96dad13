// Package scheduler drives one run across the source registry and, in daemon
// mode, repeats runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/poller"
	"github.com/amishk599/jobsweep/internal/ratelimit"
	"github.com/amishk599/jobsweep/internal/timing"
)

// ErrRunInProgress is returned when Run is called while another run on the
// same Runner has not returned yet.
var ErrRunInProgress = errors.New("a run is already in progress")

// Config controls how a run is scheduled.
type Config struct {
	Concurrency   int           // worker count; values below 1 mean sequential
	Delay         time.Duration // minimum pause between calls on one worker
	AdaptiveDelay bool          // stretch Delay for sources throttled on earlier runs
	Timeout       time.Duration // per-call deadline; 0 disables it
	Limit         int           // max sources processed; 0 means all
}

// Resolver finds the adapter for a source-type label.
type Resolver interface {
	Resolve(label string) (model.Fetcher, string, bool)
}

// Middleware decorates a resolved adapter, e.g. with retries or host pacing.
type Middleware func(model.Fetcher) model.Fetcher

// Sink receives the records of every source whose outcome succeeded, tagged
// with the source's position in the registry.
type Sink interface {
	Add(index int, recs []model.JobRecord)
}

// RunResult describes one completed or aborted run.
type RunResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []model.RunOutcome // registry order, processed sources only
	Status     model.RunStatus
	Aborted    bool
	Skipped    []string // enabled sources not processed (limit or abort)
}

// Runner polls every enabled source once per Run.
type Runner struct {
	resolver    Resolver
	tracker     *timing.Tracker
	cfg         Config
	logger      *slog.Logger
	middlewares []Middleware

	running atomic.Bool
	locks   keyedMutex
}

// NewRunner creates a runner. Middlewares wrap each resolved adapter, the
// first one outermost.
func NewRunner(resolver Resolver, tracker *timing.Tracker, cfg Config, logger *slog.Logger, mws ...Middleware) *Runner {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Runner{
		resolver:    resolver,
		tracker:     tracker,
		cfg:         cfg,
		logger:      logger,
		middlewares: mws,
	}
}

type slot struct {
	index int
	src   model.SourceConfig
}

// Run processes sources in registry order. A failing source never stops the
// run. When ctx is cancelled no new source is started, but calls already in
// flight complete (bounded by the timeout) and are recorded. Every
// successful outcome's records go to sink.
func (r *Runner) Run(ctx context.Context, sources []model.SourceConfig, sink Sink) (RunResult, error) {
	if !r.running.CompareAndSwap(false, true) {
		return RunResult{}, ErrRunInProgress
	}
	defer r.running.Store(false)

	res := RunResult{StartedAt: time.Now()}

	var todo []slot
	for i, src := range sources {
		if !src.Enabled {
			continue
		}
		if r.cfg.Limit > 0 && len(todo) >= r.cfg.Limit {
			res.Skipped = append(res.Skipped, src.ID)
			continue
		}
		todo = append(todo, slot{index: i, src: src})
	}

	r.logger.Info("starting run",
		"sources", len(todo),
		"skipped", len(res.Skipped),
		"concurrency", r.cfg.Concurrency,
		"delay", r.cfg.Delay.String(),
		"timeout", r.cfg.Timeout.String(),
	)

	var (
		mu       sync.Mutex
		outcomes = make([]*model.RunOutcome, len(todo))
		skipped  = make([]bool, len(todo))
	)

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)

	for n, s := range todo {
		if ctx.Err() != nil {
			skipped[n] = true
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				mu.Lock()
				skipped[n] = true
				mu.Unlock()
				return nil
			}

			mu.Lock()
			wait := r.delayFor(s.src, res.StartedAt, n < r.cfg.Concurrency)
			mu.Unlock()
			if !sleep(ctx, wait) {
				mu.Lock()
				skipped[n] = true
				mu.Unlock()
				return nil
			}

			out := r.pollOne(ctx, s.src)

			mu.Lock()
			defer mu.Unlock()
			r.tracker.Record(s.src.ID, out.Outcome, out.StartedAt)
			if out.Outcome.Kind.Succeeded() && sink != nil {
				sink.Add(s.index, out.Records)
			}
			o := out.Outcome
			outcomes[n] = &o
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	for n, o := range outcomes {
		if o != nil {
			res.Outcomes = append(res.Outcomes, *o)
		} else if skipped[n] {
			res.Skipped = append(res.Skipped, todo[n].src.ID)
		}
	}
	res.Aborted = ctx.Err() != nil
	res.FinishedAt = time.Now()
	res.Status = model.StatusOf(res.Outcomes)

	r.logger.Info("run finished",
		"processed", len(res.Outcomes),
		"skipped", len(res.Skipped),
		"status", string(res.Status),
		"aborted", res.Aborted,
		"elapsed", res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond),
	)
	return res, nil
}

// delayFor returns the pause before calling src. The first call on each
// worker only waits out the adaptive surplus above the base delay.
func (r *Runner) delayFor(src model.SourceConfig, runStart time.Time, first bool) time.Duration {
	wait := r.cfg.Delay
	if r.cfg.AdaptiveDelay {
		wait = ratelimit.AdaptiveDelay(r.cfg.Delay, r.tracker.HistoryFor(src.ID), runStart)
		if wait > r.cfg.Delay {
			r.logger.Info("adaptive delay applied", "source", src.ID, "delay", wait.String())
		}
	}
	if first {
		wait -= r.cfg.Delay
	}
	return max(wait, 0)
}

func (r *Runner) pollOne(ctx context.Context, src model.SourceConfig) poller.Result {
	unlock := r.locks.Lock(src.ID)
	defer unlock()

	if src.URL == "" {
		return r.unusable(src, "source has no career page URL")
	}
	fetcher, _, ok := r.resolver.Resolve(src.Type)
	if !ok {
		return r.unusable(src, fmt.Sprintf("no adapter for source type %q", src.Type))
	}
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		fetcher = r.middlewares[i](fetcher)
	}

	return poller.NewSourcePoller(src, fetcher, r.cfg.Timeout, r.logger).Poll(ctx)
}

func (r *Runner) unusable(src model.SourceConfig, msg string) poller.Result {
	r.logger.Error("source skipped", "source", src.ID, "type", src.Type, "error", msg)
	return poller.Result{
		Outcome: model.RunOutcome{
			SourceID: src.ID,
			Kind:     model.OutcomeUnknownError,
			Message:  msg,
		},
		StartedAt: time.Now(),
	}
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// keyedMutex serializes work per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
