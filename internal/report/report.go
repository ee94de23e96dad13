// Package report turns a finished run into the human-readable change report,
// its JSON twin and the console summary.
package report

import (
	"time"

	"github.com/amishk599/jobsweep/internal/changes"
	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/ratelimit"
	"github.com/amishk599/jobsweep/internal/timing"
)

// maxListed caps the no-jobs list in the text report.
const maxListed = 20

// Data is everything a report is built from.
type Data struct {
	RunID       string
	GeneratedAt time.Time
	Status      model.RunStatus
	Aborted     bool
	Outcomes    []model.RunOutcome
	Skipped     []string
	Changes     changes.Report
	Delay       time.Duration       // inter-call delay used for the run
	Trend       *timing.TrendReport // nil without a previous run
	Names       map[string]string   // source ID to display name
	Highlights  []model.JobRecord   // new jobs matching the notification filter
	Removed     []model.JobRecord   // removed jobs matching the notification filter
}

// Report is Data with the derived sections filled in.
type Report struct {
	Data

	NoJobs         []model.RunOutcome
	Problems       []model.RunOutcome
	Throttled      []model.RunOutcome
	Requests       timing.RequestStats
	RecommendDelay time.Duration // zero when no change is advised
	Timing         *timing.RunTiming
	Slow           []model.RunOutcome
}

// Build derives the report sections.
func Build(d Data) Report {
	r := Report{Data: d, Requests: timing.CountRequests(d.Outcomes)}
	for _, o := range d.Outcomes {
		switch o.Kind {
		case model.OutcomeSuccess:
		case model.OutcomeEmptySuccess:
			r.NoJobs = append(r.NoJobs, o)
		case model.OutcomeRateLimited, model.OutcomeTimeout:
			r.Throttled = append(r.Throttled, o)
			r.Problems = append(r.Problems, o)
		default:
			r.Problems = append(r.Problems, o)
		}
	}
	if rec, ok := ratelimit.RecommendDelay(r.Requests, d.Delay); ok {
		r.RecommendDelay = rec
	}
	if rt, ok := timing.SummarizeRun(d.Outcomes); ok {
		r.Timing = &rt
	}
	r.Slow = timing.SlowOutcomes(d.Outcomes, timing.SlowThreshold)
	return r
}

// Name returns the display name for a source ID.
func (r Report) Name(id string) string {
	if n, ok := r.Names[id]; ok && n != "" {
		return n
	}
	return id
}
