package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/amishk599/jobsweep/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func summary(id string, started time.Time) model.RunSummary {
	return model.RunSummary{
		RunID:         id,
		StartedAt:     started,
		FinishedAt:    started.Add(90 * time.Second),
		Status:        model.StatusSomeFailed,
		PreviousCount: 10,
		CurrentCount:  12,
		Added:         3,
		Removed:       1,
		ReportPath:    "output/job_changes_2024-03-01.txt",
		Outcomes: []model.RunOutcome{
			{SourceID: "acme", Kind: model.OutcomeSuccess, JobCount: 12, Duration: 1500 * time.Millisecond},
			{SourceID: "globex", Kind: model.OutcomeRateLimited, Duration: 200 * time.Millisecond, Message: "HTTP 429"},
		},
	}
}

func TestSaveRunThenRecentRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	want := summary("run-1", start)
	if err := s.SaveRun(ctx, want); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if diff := cmp.Diff([]model.RunSummary{want}, got); diff != "" {
		t.Errorf("runs (-want +got):\n%s", diff)
	}
}

func TestRecentRunsNewestFirstAndLimited(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := s.SaveRun(ctx, summary(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveRun(%s): %v", id, err)
		}
	}

	got, err := s.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(got) != 2 || got[0].RunID != "c" || got[1].RunID != "b" {
		t.Fatalf("unexpected runs: %+v", got)
	}
}

func TestSaveRunIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := summary("run-1", time.Now().UTC())

	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	run.Outcomes = run.Outcomes[:1]
	run.Status = model.StatusAllSucceeded
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("second SaveRun: %v", err)
	}

	got, err := s.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || len(got[0].Outcomes) != 1 || got[0].Status != model.StatusAllSucceeded {
		t.Fatalf("expected replaced run, got %+v", got)
	}
}

func TestPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveRun(ctx, summary("old", time.Now().Add(-72*time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRun(ctx, summary("new", time.Now())); err != nil {
		t.Fatal(err)
	}

	n, err := s.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d runs, want 1", n)
	}
	got, _ := s.RecentRuns(ctx, 10)
	if len(got) != 1 || got[0].RunID != "new" {
		t.Fatalf("unexpected runs after prune: %+v", got)
	}
}

func TestNopStore(t *testing.T) {
	var a model.RunArchive = NewNopStore()
	if err := a.SaveRun(context.Background(), summary("x", time.Now())); err != nil {
		t.Fatal(err)
	}
	runs, err := a.RecentRuns(context.Background(), 5)
	if err != nil || len(runs) != 0 {
		t.Fatalf("nop store returned %v, %v", runs, err)
	}
}
