package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/jobsweep/internal/model"
)

var acmeGem = model.SourceConfig{
	ID:   "acme-gem",
	Name: "Acme",
	URL:  "https://jobs.gem.com/acme",
	Type: "gem",
}

func TestGemFetchJobs_Success(t *testing.T) {
	payload := `[
		{
			"id": "g1",
			"title": "ML Engineer",
			"location": {"name": "London"},
			"absolute_url": "https://jobs.gem.com/acme/g1",
			"first_published_at": "2026-01-20T10:00:00Z",
			"content": "<p>Train models.</p>",
			"employment_type": "Full-time",
			"location_type": "HYBRID",
			"departments": [{"name": "Research"}]
		},
		{
			"id": "g2",
			"title": "Recruiter",
			"location": {"name": "Remote - UK"},
			"absolute_url": "https://jobs.gem.com/acme/g2",
			"updated_at": "2026-01-22T10:00:00Z",
			"content_plain": "Hire people."
		}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/job_board/v0/acme/job_posts/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	jobs, err := NewGemAdapter(testClient(srv)).FetchJobs(context.Background(), acmeGem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.Description != "Train models." || j.Department != "Research" || j.EmploymentType != "Full-time" {
		t.Errorf("unexpected job fields: %+v", j)
	}
	if j.Remote != model.RemoteHybrid || j.PostedDate != "2026-01-20" {
		t.Errorf("unexpected remote/date: %s %q", j.Remote, j.PostedDate)
	}

	r := jobs[1]
	if r.Description != "Hire people." {
		t.Errorf("expected plain content, got %q", r.Description)
	}
	if r.Remote != model.RemoteYes {
		t.Errorf("expected remote from location, got %s", r.Remote)
	}
	if r.PostedDate != "2026-01-22" {
		t.Errorf("expected updated_at fallback, got %q", r.PostedDate)
	}
}

func TestGemFetchJobs_MissingTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "g3", "title": "Ops", "absolute_url": "https://jobs.gem.com/acme/g3"}]`))
	}))
	defer srv.Close()

	jobs, err := NewGemAdapter(testClient(srv)).FetchJobs(context.Background(), acmeGem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].PostedDate != "" || jobs[0].Remote != model.RemoteUnknown {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
	if err := jobs[0].Validate(); err != nil {
		t.Errorf("record without optional fields should validate: %v", err)
	}
}

func TestGemFetchJobs_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewGemAdapter(testClient(srv)).FetchJobs(context.Background(), acmeGem); err == nil {
		t.Fatal("expected error for HTTP 404, got nil")
	}
}
