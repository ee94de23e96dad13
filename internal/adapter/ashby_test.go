package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/jobsweep/internal/model"
)

var acmeAshby = model.SourceConfig{
	ID:   "acme-ashby",
	Name: "Acme",
	URL:  "https://jobs.ashbyhq.com/acme",
	Type: "Ashby",
}

func TestAshbyFetchJobs_Success(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"title": "Platform Engineer",
				"location": "Berlin",
				"department": "Engineering",
				"employmentType": "FullTime",
				"jobUrl": "https://jobs.ashbyhq.com/acme/1111",
				"publishedAt": "2026-02-14T12:30:00.123+00:00",
				"isListed": true,
				"isRemote": false,
				"workplaceType": "Hybrid",
				"descriptionPlain": "Keep the lights on."
			},
			{
				"title": "Data Engineer",
				"location": "Remote",
				"team": "Data",
				"jobUrl": "https://jobs.ashbyhq.com/acme/2222",
				"publishedAt": "2026-02-12T08:00:00Z",
				"isListed": true,
				"isRemote": true
			},
			{
				"title": "Secret Role",
				"jobUrl": "https://jobs.ashbyhq.com/acme/3333",
				"isListed": false
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posting-api/job-board/acme" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	jobs, err := NewAshbyAdapter(testClient(srv)).FetchJobs(context.Background(), acmeAshby)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 listed jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.JobTitle != "Platform Engineer" || j.Location != "Berlin" {
		t.Errorf("unexpected job: %+v", j)
	}
	if j.EmploymentType != "Full Time" {
		t.Errorf("expected employment type 'Full Time', got %q", j.EmploymentType)
	}
	if j.PostedDate != "2026-02-14" {
		t.Errorf("expected posted date 2026-02-14, got %q", j.PostedDate)
	}
	if j.Remote != model.RemoteHybrid {
		t.Errorf("expected Hybrid, got %s", j.Remote)
	}
	if j.ATS != "Ashby" {
		t.Errorf("expected ATS Ashby, got %s", j.ATS)
	}

	if jobs[1].Remote != model.RemoteYes {
		t.Errorf("expected isRemote fallback to Yes, got %s", jobs[1].Remote)
	}
	if jobs[1].Department != "Data" {
		t.Errorf("expected team fallback, got %q", jobs[1].Department)
	}
}

func TestAshbyFetchJobs_EmptyBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs": []}`))
	}))
	defer srv.Close()

	jobs, err := NewAshbyAdapter(testClient(srv)).FetchJobs(context.Background(), acmeAshby)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected 0 jobs, got %d", len(jobs))
	}
}

func TestAshbyFetchJobs_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewAshbyAdapter(testClient(srv)).FetchJobs(context.Background(), acmeAshby)
	if err == nil {
		t.Fatal("expected error for unexpected JSON shape, got nil")
	}
}

func TestAshbyFetchJobs_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewAshbyAdapter(testClient(srv)).FetchJobs(context.Background(), acmeAshby)
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Category() != model.CategoryAuth {
		t.Fatalf("expected auth HTTPError, got %v", err)
	}
}
