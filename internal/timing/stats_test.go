package timing

import (
	"math"
	"testing"
	"time"

	"github.com/amishk599/jobsweep/internal/model"
)

func TestSummarize(t *testing.T) {
	tr := New()
	tr.Record("acme", outcome(model.OutcomeSuccess, 10, 2*time.Second), t0)
	tr.Record("acme", outcome(model.OutcomeRateLimited, 0, time.Second), t0.Add(time.Hour))
	tr.Record("acme", outcome(model.OutcomeEmptySuccess, 0, 4*time.Second), t0.Add(2*time.Hour))
	tr.Record("acme", outcome(model.OutcomeSuccess, 6, 2*time.Second), t0.Add(3*time.Hour))

	s := tr.Summarize("acme", 3)
	if s.Runs != 3 || s.TotalRuns != 4 {
		t.Fatalf("runs = %d total = %d", s.Runs, s.TotalRuns)
	}
	// window: rate limited (0/1), empty (0/4), success (6/2)
	if want := 1.0; math.Abs(s.MeanJobsPerSecond-want) > 1e-9 {
		t.Errorf("mean jobs/sec = %v, want %v", s.MeanJobsPerSecond, want)
	}
	if want := 2.0 / 3.0; math.Abs(s.SuccessRate-want) > 1e-9 {
		t.Errorf("success rate = %v, want %v", s.SuccessRate, want)
	}
	if s.LastOutcome != model.OutcomeSuccess {
		t.Errorf("last outcome = %s", s.LastOutcome)
	}
	if s.MeanDuration != 7*time.Second/3 {
		t.Errorf("mean duration = %v", s.MeanDuration)
	}
}

func TestSummarize_NoHistory(t *testing.T) {
	s := New().Summarize("ghost", 0)
	if s.Runs != 0 || s.LastOutcome != "" || s.SuccessRate != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestSummarizeRun(t *testing.T) {
	outs := []model.RunOutcome{
		outcome(model.OutcomeSuccess, 4, 3*time.Second),
		outcome(model.OutcomeTimeout, 0, 30*time.Second),
		outcome(model.OutcomeEmptySuccess, 0, time.Second),
	}
	rt, ok := SummarizeRun(outs)
	if !ok {
		t.Fatal("expected timing")
	}
	if rt.Total != 34*time.Second || rt.Fastest != time.Second || rt.Slowest != 30*time.Second {
		t.Fatalf("unexpected timing: %+v", rt)
	}
	if math.Abs(rt.AvgJobs-4.0/3.0) > 1e-9 {
		t.Errorf("avg jobs = %v", rt.AvgJobs)
	}
	if _, ok := SummarizeRun(nil); ok {
		t.Error("expected no timing for empty run")
	}
}

func TestCompareRuns(t *testing.T) {
	tests := []struct {
		prev, cur time.Duration
		want      Trend
	}{
		{10 * time.Second, 13 * time.Second, TrendSlower},
		{10 * time.Second, 12 * time.Second, TrendStable},
		{10 * time.Second, 7 * time.Second, TrendFaster},
		{0, 7 * time.Second, TrendStable},
	}
	for _, tt := range tests {
		if got := CompareRuns(tt.prev, tt.cur).Trend; got != tt.want {
			t.Errorf("CompareRuns(%v, %v) = %s, want %s", tt.prev, tt.cur, got, tt.want)
		}
	}
	if got := CompareRuns(10*time.Second, 15*time.Second).ChangePercent; math.Abs(got-50) > 1e-9 {
		t.Errorf("change percent = %v, want 50", got)
	}
}

func TestPreviousRunAverage(t *testing.T) {
	tr := New()
	runStart := t0.Add(24 * time.Hour)
	tr.Record("acme", outcome(model.OutcomeSuccess, 1, 2*time.Second), t0)
	tr.Record("globex", outcome(model.OutcomeSuccess, 1, 4*time.Second), t0)
	tr.Record("acme", outcome(model.OutcomeSuccess, 1, 60*time.Second), runStart.Add(time.Minute))

	avg, ok := tr.PreviousRunAverage(runStart)
	if !ok || avg != 3*time.Second {
		t.Fatalf("avg = %v ok = %v", avg, ok)
	}
}

func TestRequestStats(t *testing.T) {
	outs := []model.RunOutcome{
		outcome(model.OutcomeSuccess, 1, 0),
		outcome(model.OutcomeEmptySuccess, 0, 0),
		outcome(model.OutcomeRateLimited, 0, 0),
		outcome(model.OutcomeTimeout, 0, 0),
		outcome(model.OutcomeParseError, 0, 0),
	}
	s := CountRequests(outs)
	want := RequestStats{Total: 5, Successful: 2, RateLimited: 1, Timeouts: 1, Errors: 1}
	if s != want {
		t.Fatalf("got %+v, want %+v", s, want)
	}
	if !s.HighErrorRate() {
		t.Error("expected high error rate at 40%")
	}
	if (RequestStats{Total: 4, RateLimited: 4}).HighErrorRate() {
		t.Error("fewer than five requests must not be flagged")
	}
}

func TestSlowOutcomes(t *testing.T) {
	outs := []model.RunOutcome{
		{SourceID: "a", Duration: 5 * time.Second},
		{SourceID: "b", Duration: 21 * time.Second},
		{SourceID: "c", Duration: 20 * time.Second},
	}
	slow := SlowOutcomes(outs, SlowThreshold)
	if len(slow) != 1 || slow[0].SourceID != "b" {
		t.Fatalf("unexpected slow list: %+v", slow)
	}
}
