package report

import (
	"encoding/json"
	"time"

	"github.com/amishk599/jobsweep/internal/model"
)

type jsonOutcome struct {
	Source          string  `json:"source"`
	Name            string  `json:"name"`
	Outcome         string  `json:"outcome"`
	Jobs            int     `json:"jobs"`
	DurationSeconds float64 `json:"duration_seconds"`
	Message         string  `json:"message,omitempty"`
}

type jsonTiming struct {
	TotalSeconds   float64 `json:"total_seconds"`
	AverageSeconds float64 `json:"average_seconds"`
	FastestSeconds float64 `json:"fastest_seconds"`
	SlowestSeconds float64 `json:"slowest_seconds"`
	AverageJobs    float64 `json:"average_jobs"`
	Trend          string  `json:"trend,omitempty"`
	ChangePercent  float64 `json:"change_percent,omitempty"`
}

type jsonReport struct {
	RunID         string        `json:"run_id"`
	GeneratedAt   time.Time     `json:"generated_at"`
	Status        string        `json:"status"`
	Aborted       bool          `json:"aborted"`
	Skipped       []string      `json:"skipped"`
	Baseline      string        `json:"baseline"`
	PreviousCount int           `json:"previous_count"`
	CurrentCount  int           `json:"current_count"`
	NetChange     int           `json:"net_change"`
	Added         []model.Key   `json:"added"`
	Removed       []model.Key   `json:"removed"`
	Unchanged     int           `json:"unchanged"`
	Outcomes      []jsonOutcome `json:"outcomes"`
	Requests      struct {
		Total       int `json:"total"`
		Successful  int `json:"successful"`
		RateLimited int `json:"rate_limited"`
		Timeouts    int `json:"timeouts"`
		Errors      int `json:"errors"`
	} `json:"requests"`
	DelaySeconds          float64     `json:"delay_seconds"`
	RecommendDelaySeconds float64     `json:"recommended_delay_seconds,omitempty"`
	Timing                *jsonTiming `json:"timing,omitempty"`
}

// MarshalJSON encodes the machine-readable twin of the text report.
func MarshalJSON(r Report) ([]byte, error) {
	c := r.Changes
	out := jsonReport{
		RunID:         r.RunID,
		GeneratedAt:   r.GeneratedAt.UTC(),
		Status:        string(r.Status),
		Aborted:       r.Aborted,
		Skipped:       append([]string{}, r.Skipped...),
		Baseline:      string(c.Baseline),
		PreviousCount: c.PreviousCount,
		CurrentCount:  c.CurrentCount,
		NetChange:     c.NetChange,
		Added:         append([]model.Key{}, c.Added...),
		Removed:       append([]model.Key{}, c.Removed...),
		Unchanged:     c.Unchanged,
		Outcomes:      make([]jsonOutcome, 0, len(r.Outcomes)),
		DelaySeconds:  r.Delay.Seconds(),
	}
	for _, o := range r.Outcomes {
		out.Outcomes = append(out.Outcomes, jsonOutcome{
			Source:          o.SourceID,
			Name:            r.Name(o.SourceID),
			Outcome:         string(o.Kind),
			Jobs:            o.JobCount,
			DurationSeconds: o.Duration.Seconds(),
			Message:         o.Message,
		})
	}
	out.Requests.Total = r.Requests.Total
	out.Requests.Successful = r.Requests.Successful
	out.Requests.RateLimited = r.Requests.RateLimited
	out.Requests.Timeouts = r.Requests.Timeouts
	out.Requests.Errors = r.Requests.Errors
	out.RecommendDelaySeconds = r.RecommendDelay.Seconds()

	if t := r.Timing; t != nil {
		out.Timing = &jsonTiming{
			TotalSeconds:   t.Total.Seconds(),
			AverageSeconds: t.Average.Seconds(),
			FastestSeconds: t.Fastest.Seconds(),
			SlowestSeconds: t.Slowest.Seconds(),
			AverageJobs:    t.AvgJobs,
		}
		if r.Trend != nil {
			out.Timing.Trend = string(r.Trend.Trend)
			out.Timing.ChangePercent = r.Trend.ChangePercent
		}
	}
	return json.MarshalIndent(out, "", "  ")
}
