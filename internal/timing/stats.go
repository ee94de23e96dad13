package timing

import (
	"time"

	"github.com/amishk599/jobsweep/internal/model"
)

// DefaultWindow is the number of recent entries Summarize considers.
const DefaultWindow = 10

// Summary is the rolling view of one source's recent history.
type Summary struct {
	SourceID          string
	Runs              int // entries in the window
	TotalRuns         int
	MeanJobsPerSecond float64
	SuccessRate       float64 // 0..1, EmptySuccess counts as success
	MeanDuration      time.Duration
	LastOutcome       model.OutcomeKind // empty when no history
	LastRun           time.Time
}

// Summarize computes statistics over the last n entries for sourceID. n <= 0
// uses DefaultWindow.
func (t *Tracker) Summarize(sourceID string, n int) Summary {
	if n <= 0 {
		n = DefaultWindow
	}
	entries := t.history[sourceID]
	s := Summary{SourceID: sourceID, TotalRuns: len(entries)}
	if len(entries) == 0 {
		return s
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}

	var (
		rateSum   float64
		rated     int
		succeeded int
		total     time.Duration
	)
	for _, e := range entries {
		if e.Outcome.Succeeded() {
			succeeded++
		}
		total += e.Duration()
		if e.DurationSeconds > 0 {
			rateSum += float64(e.JobCount) / e.DurationSeconds
			rated++
		}
	}

	s.Runs = len(entries)
	s.SuccessRate = float64(succeeded) / float64(len(entries))
	s.MeanDuration = total / time.Duration(len(entries))
	if rated > 0 {
		s.MeanJobsPerSecond = rateSum / float64(rated)
	}
	last := entries[len(entries)-1]
	s.LastOutcome = last.Outcome
	s.LastRun = last.Timestamp
	return s
}

// LastBefore returns the most recent entry for sourceID strictly before ts.
func (t *Tracker) LastBefore(sourceID string, ts time.Time) (Entry, bool) {
	entries := t.history[sourceID]
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Timestamp.Before(ts) {
			return entries[i], true
		}
	}
	return Entry{}, false
}

// PreviousRunAverage averages, over all sources, the duration of each
// source's last call before ts. It approximates the previous run's mean call
// time. ok is false when there is no earlier history.
func (t *Tracker) PreviousRunAverage(ts time.Time) (time.Duration, bool) {
	var (
		total time.Duration
		n     int
	)
	for id := range t.history {
		if e, ok := t.LastBefore(id, ts); ok {
			total += e.Duration()
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return total / time.Duration(n), true
}

// RunTiming summarizes the call durations of a single run.
type RunTiming struct {
	Total   time.Duration
	Average time.Duration
	Fastest time.Duration
	Slowest time.Duration
	AvgJobs float64
}

// SummarizeRun computes timing statistics for outcomes. ok is false when
// there are none.
func SummarizeRun(outcomes []model.RunOutcome) (RunTiming, bool) {
	if len(outcomes) == 0 {
		return RunTiming{}, false
	}
	rt := RunTiming{Fastest: outcomes[0].Duration, Slowest: outcomes[0].Duration}
	jobs := 0
	for _, o := range outcomes {
		rt.Total += o.Duration
		jobs += o.JobCount
		if o.Duration < rt.Fastest {
			rt.Fastest = o.Duration
		}
		if o.Duration > rt.Slowest {
			rt.Slowest = o.Duration
		}
	}
	rt.Average = rt.Total / time.Duration(len(outcomes))
	rt.AvgJobs = float64(jobs) / float64(len(outcomes))
	return rt, true
}

// Trend direction of the current run against the previous one.
type Trend string

const (
	TrendSlower Trend = "slower"
	TrendFaster Trend = "faster"
	TrendStable Trend = "stable"
)

// TrendReport compares average call durations of two runs.
type TrendReport struct {
	Trend         Trend
	ChangePercent float64
	PreviousAvg   time.Duration
	CurrentAvg    time.Duration
}

// CompareRuns reports slower when current exceeds previous by more than 20%,
// faster when it is more than 20% below, stable otherwise.
func CompareRuns(previous, current time.Duration) TrendReport {
	tr := TrendReport{Trend: TrendStable, PreviousAvg: previous, CurrentAvg: current}
	if previous <= 0 {
		return tr
	}
	ratio := float64(current) / float64(previous)
	tr.ChangePercent = (ratio - 1) * 100
	switch {
	case ratio > 1.2:
		tr.Trend = TrendSlower
	case ratio < 0.8:
		tr.Trend = TrendFaster
	}
	return tr
}

// SlowThreshold marks a call as slow in run reports.
const SlowThreshold = 20 * time.Second

// SlowOutcomes returns outcomes whose duration exceeds threshold, in input order.
func SlowOutcomes(outcomes []model.RunOutcome, threshold time.Duration) []model.RunOutcome {
	var slow []model.RunOutcome
	for _, o := range outcomes {
		if o.Duration > threshold {
			slow = append(slow, o)
		}
	}
	return slow
}

// RequestStats counts calls of one run by how they ended.
type RequestStats struct {
	Total       int
	Successful  int
	RateLimited int
	Timeouts    int
	Errors      int
}

// CountRequests tallies outcomes.
func CountRequests(outcomes []model.RunOutcome) RequestStats {
	var s RequestStats
	for _, o := range outcomes {
		s.Total++
		switch {
		case o.Kind.Succeeded():
			s.Successful++
		case o.Kind == model.OutcomeRateLimited:
			s.RateLimited++
		case o.Kind == model.OutcomeTimeout:
			s.Timeouts++
		default:
			s.Errors++
		}
	}
	return s
}

// ErrorRate is the share of calls that were throttled or timed out.
func (s RequestStats) ErrorRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.RateLimited+s.Timeouts) / float64(s.Total)
}

// HighErrorRate reports whether at least five calls were made and more than
// a fifth of them were throttled or timed out.
func (s RequestStats) HighErrorRate() bool {
	return s.Total >= 5 && s.ErrorRate() > 0.2
}
