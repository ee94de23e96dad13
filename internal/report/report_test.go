package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/amishk599/jobsweep/internal/changes"
	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/snapshot"
	"github.com/amishk599/jobsweep/internal/timing"
)

var runDate = time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)

func job(company, link, title string) model.JobRecord {
	return model.JobRecord{CompanyName: company, JobLink: link, JobTitle: title, Remote: model.RemoteUnknown}
}

func snap(recs ...model.JobRecord) *snapshot.Snapshot {
	s := snapshot.New()
	for _, r := range recs {
		s.Put(r)
	}
	return s
}

func sampleData() Data {
	prev := snap(job("Acme", "https://acme.test/1", "Engineer"), job("Acme", "https://acme.test/2", "Designer"))
	cur := snap(job("Acme", "https://acme.test/2", "Designer"), job("Acme", "https://acme.test/3", "SRE"))
	return Data{
		RunID:       "run-1",
		GeneratedAt: runDate,
		Status:      model.StatusSomeFailed,
		Outcomes: []model.RunOutcome{
			{SourceID: "acme", Kind: model.OutcomeSuccess, JobCount: 2, Duration: 2 * time.Second},
			{SourceID: "quiet", Kind: model.OutcomeEmptySuccess, Duration: time.Second},
			{SourceID: "busy", Kind: model.OutcomeRateLimited, Duration: 25 * time.Second, Message: "HTTP 429"},
			{SourceID: "broken", Kind: model.OutcomeParseError, Duration: 500 * time.Millisecond, Message: "bad json"},
		},
		Changes: changes.Detect(prev, cur, runDate),
		Delay:   2 * time.Second,
		Names:   map[string]string{"acme": "Acme Corp"},
	}
}

func TestBuild_Sections(t *testing.T) {
	r := Build(sampleData())

	ids := func(outs []model.RunOutcome) []string {
		var out []string
		for _, o := range outs {
			out = append(out, o.SourceID)
		}
		return out
	}
	if diff := cmp.Diff([]string{"quiet"}, ids(r.NoJobs)); diff != "" {
		t.Errorf("no-jobs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"busy", "broken"}, ids(r.Problems)); diff != "" {
		t.Errorf("problems (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"busy"}, ids(r.Throttled)); diff != "" {
		t.Errorf("throttled (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"busy"}, ids(r.Slow)); diff != "" {
		t.Errorf("slow (-want +got):\n%s", diff)
	}
	want := timing.RequestStats{Total: 4, Successful: 2, RateLimited: 1, Errors: 1}
	if diff := cmp.Diff(want, r.Requests); diff != "" {
		t.Errorf("requests (-want +got):\n%s", diff)
	}
	if r.Timing == nil || r.Timing.Slowest != 25*time.Second {
		t.Errorf("unexpected timing %+v", r.Timing)
	}
}

func TestBuild_NoOutcomes(t *testing.T) {
	r := Build(Data{GeneratedAt: runDate})
	if r.Timing != nil || r.RecommendDelay != 0 {
		t.Fatalf("expected no timing or recommendation, got %+v", r)
	}
}

func TestName_FallsBackToID(t *testing.T) {
	r := Build(sampleData())
	if got := r.Name("acme"); got != "Acme Corp" {
		t.Errorf("Name(acme) = %q", got)
	}
	if got := r.Name("busy"); got != "busy" {
		t.Errorf("Name(busy) = %q", got)
	}
}

func TestWriteText(t *testing.T) {
	var b strings.Builder
	if err := WriteText(&b, Build(sampleData())); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{
		"JOB CHANGES REPORT",
		"Previous: 2 jobs",
		"Current:  2 jobs",
		"Net change: +0 jobs",
		"New jobs:     1",
		"Removed jobs: 1",
		"Unchanged:    1",
		"SOURCES WITH NO JOBS - NORMAL (1):",
		"  - quiet (1.0s)",
		"SOURCES WITH PROBLEMS (2):",
		"  - broken: parse_error: bad json",
		"REQUEST ISSUES & RATE LIMITING:",
		"  - Rate limited: 1",
		"TIMING STATISTICS:",
		"Slow sources (>20.0s):",
		"  - busy: 25.0s for 0 jobs",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteText_FirstRun(t *testing.T) {
	d := sampleData()
	d.Changes = changes.Detect(nil, snap(job("Acme", "https://acme.test/1", "Engineer")), runDate)
	var b strings.Builder
	if err := WriteText(&b, Build(d)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "Previous: none (first run)") {
		t.Errorf("first run not reported:\n%s", b.String())
	}
}

func TestWriteText_CapsNoJobsList(t *testing.T) {
	d := Data{GeneratedAt: runDate}
	for i := 0; i < maxListed+5; i++ {
		d.Outcomes = append(d.Outcomes, model.RunOutcome{SourceID: "s", Kind: model.OutcomeEmptySuccess})
	}
	var b strings.Builder
	if err := WriteText(&b, Build(d)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "... and 5 more sources") {
		t.Errorf("expected truncation line:\n%s", b.String())
	}
}

func TestWrite_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	r := Build(sampleData())

	var txts []string
	for i := 0; i < 3; i++ {
		txt, js, err := Write(dir, r)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(js); err != nil {
			t.Errorf("json twin missing: %v", err)
		}
		txts = append(txts, filepath.Base(txt))
	}
	want := []string{"job_changes_2025-03-02.txt", "job_changes_2025-03-02_2.txt", "job_changes_2025-03-02_3.txt"}
	if diff := cmp.Diff(want, txts); diff != "" {
		t.Errorf("report names (-want +got):\n%s", diff)
	}
}

func TestMarshalJSON(t *testing.T) {
	data, err := MarshalJSON(Build(sampleData()))
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		RunID    string      `json:"run_id"`
		Baseline string      `json:"baseline"`
		Added    []model.Key `json:"added"`
		Removed  []model.Key `json:"removed"`
		Outcomes []struct {
			Source  string `json:"source"`
			Name    string `json:"name"`
			Outcome string `json:"outcome"`
		} `json:"outcomes"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.RunID != "run-1" || got.Baseline != "present" {
		t.Errorf("unexpected header %+v", got)
	}
	if diff := cmp.Diff([]model.Key{{JobLink: "https://acme.test/3", CompanyName: "Acme"}}, got.Added); diff != "" {
		t.Errorf("added (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]model.Key{{JobLink: "https://acme.test/1", CompanyName: "Acme"}}, got.Removed); diff != "" {
		t.Errorf("removed (-want +got):\n%s", diff)
	}
	if len(got.Outcomes) != 4 || got.Outcomes[0].Name != "Acme Corp" {
		t.Errorf("unexpected outcomes %+v", got.Outcomes)
	}
}

func TestConsole(t *testing.T) {
	out := Console(Build(sampleData()))
	for _, want := range []string{"run-1", "Acme Corp", "rate_limited", "some_failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
}
