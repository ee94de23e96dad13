package adapter

import (
	"testing"
	"time"

	"github.com/amishk599/jobsweep/internal/model"
)

func TestIsoDate(t *testing.T) {
	tests := map[string]string{
		"2026-02-10T09:00:00Z":          "2026-02-10",
		"2026-02-10T09:00:00.5+02:00":   "2026-02-10",
		"2026-02-10 09:00:00 UTC":       "2026-02-10",
		"2026-02-10":                    "2026-02-10",
		"2026-02-10T09:00:00 something": "2026-02-10",
		"10/02/2026":                    "",
		"":                              "",
	}
	for in, want := range tests {
		if got := isoDate(in); got != want {
			t.Errorf("isoDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUnixMillisDate(t *testing.T) {
	ms := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC).UnixMilli()
	if got := unixMillisDate(ms); got != "2026-03-01" {
		t.Errorf("got %q", got)
	}
	if got := unixMillisDate(0); got != "" {
		t.Errorf("expected empty for zero, got %q", got)
	}
}

func TestRemoteFromLocation(t *testing.T) {
	tests := map[string]model.RemoteStatus{
		"":                 model.RemoteUnknown,
		"Remote, US":       model.RemoteYes,
		"Hybrid - Berlin":  model.RemoteHybrid,
		"New York, NY":     model.RemoteNo,
		"Remote or Hybrid": model.RemoteHybrid,
	}
	for in, want := range tests {
		if got := remoteFromLocation(in); got != want {
			t.Errorf("remoteFromLocation(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestBoardSlug(t *testing.T) {
	tests := []struct {
		url, marker, want string
	}{
		{"https://job-boards.greenhouse.io/acme", "boards", "acme"},
		{"https://boards.greenhouse.io/embed/job_board?for=acme", "boards", "acme"},
		{"https://boards-api.greenhouse.io/v1/boards/acme/jobs", "boards", "acme"},
		{"https://jobs.lever.co/acme/", "postings", "acme"},
		{"https://api.lever.co/v0/postings/acme?mode=json", "postings", "acme"},
	}
	for _, tt := range tests {
		got, err := boardSlug(tt.url, tt.marker)
		if err != nil || got != tt.want {
			t.Errorf("boardSlug(%q) = %q, %v; want %q", tt.url, got, err, tt.want)
		}
	}
}

func TestNewRecord_FallsBackToSourceID(t *testing.T) {
	r := newRecord(model.SourceConfig{ID: "acme", Type: "lever"}, "Lever")
	if r.CompanyName != "acme" || r.Remote != model.RemoteUnknown || r.ATS != "Lever" {
		t.Fatalf("unexpected record: %+v", r)
	}
}
