package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/outcome"
)

const (
	slowWarnAfter    = 30 * time.Second
	slowProblemAfter = 60 * time.Second
)

// Result is what one poll of a source produced.
type Result struct {
	Outcome   model.RunOutcome
	Records   []model.JobRecord // nil unless the outcome succeeded
	StartedAt time.Time
}

// SourcePoller owns a single adapter invocation for one source:
// call under a deadline → recover → time → classify.
type SourcePoller struct {
	source  model.SourceConfig
	fetcher model.Fetcher
	timeout time.Duration
	logger  *slog.Logger
}

// NewSourcePoller creates a poller for src. A zero timeout disables the
// per-call deadline.
func NewSourcePoller(src model.SourceConfig, fetcher model.Fetcher, timeout time.Duration, logger *slog.Logger) *SourcePoller {
	return &SourcePoller{
		source:  src,
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger,
	}
}

type callResult struct {
	records []model.JobRecord
	err     error
}

// Poll invokes the adapter once. The call is detached from ctx cancellation
// so an operator abort lets in-flight calls finish; it is still bounded by
// the poller's timeout. An adapter that ignores its context is abandoned
// when the deadline passes.
func (p *SourcePoller) Poll(ctx context.Context) Result {
	callCtx := context.WithoutCancel(ctx)
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: &outcome.PanicError{Value: r}}
			}
		}()
		records, err := p.fetcher.FetchJobs(callCtx, p.source)
		done <- callResult{records: records, err: err}
	}()

	var res callResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = callResult{err: outcome.ErrTimedOut}
	}
	elapsed := time.Since(start)

	kind, msg := outcome.Classify(outcome.Result{
		Records: res.records,
		Err:     res.err,
		Elapsed: elapsed,
	}, p.timeout)

	out := Result{
		Outcome: model.RunOutcome{
			SourceID: p.source.ID,
			Kind:     kind,
			Duration: elapsed,
			Message:  msg,
		},
		StartedAt: start,
	}
	if kind.Succeeded() {
		out.Records = res.records
		out.Outcome.JobCount = len(res.records)
	}

	p.log(out.Outcome)
	return out
}

func (p *SourcePoller) log(o model.RunOutcome) {
	attrs := []any{
		"source", p.source.ID,
		"outcome", string(o.Kind),
		"elapsed", o.Duration.Round(time.Millisecond),
	}

	switch o.Kind {
	case model.OutcomeSuccess:
		rate := 0.0
		if s := o.Duration.Seconds(); s > 0 {
			rate = float64(o.JobCount) / s
		}
		p.logger.Info("polled source", append(attrs, "jobs", o.JobCount, "jobs_per_sec", round1(rate))...)
	case model.OutcomeEmptySuccess:
		p.logger.Info("no jobs available (not an error)", attrs...)
	case model.OutcomeRateLimited:
		p.logger.Warn("source is rate limiting", append(attrs, "error", o.Message)...)
	case model.OutcomeTimeout:
		p.logger.Warn("source timed out", append(attrs, "error", o.Message)...)
	default:
		p.logger.Error("poll failed", append(attrs, "error", o.Message)...)
	}

	switch {
	case o.Duration > slowProblemAfter:
		p.logger.Warn("slow source", "source", p.source.ID, "elapsed", o.Duration.Round(time.Second), "jobs", o.JobCount)
	case o.Duration > slowWarnAfter:
		p.logger.Warn("slow response", "source", p.source.ID, "elapsed", o.Duration.Round(time.Second))
	}
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
