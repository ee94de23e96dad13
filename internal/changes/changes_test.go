package changes

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/snapshot"
)

var runDate = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func key(company, link string) model.Key {
	return model.Key{JobLink: link, CompanyName: company}
}

func snap(keys ...model.Key) *snapshot.Snapshot {
	s := snapshot.New()
	for _, k := range keys {
		s.Put(model.JobRecord{CompanyName: k.CompanyName, JobLink: k.JobLink, JobTitle: "t-" + k.JobLink, Remote: model.RemoteUnknown})
	}
	return s
}

func TestDetect_AddedAndRemoved(t *testing.T) {
	k1, k2, k3 := key("Acme", "https://a/1"), key("Acme", "https://a/2"), key("Acme", "https://a/3")

	r := Detect(snap(k1, k2), snap(k2, k3), runDate)

	if diff := cmp.Diff([]model.Key{k3}, r.Added); diff != "" {
		t.Errorf("added (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]model.Key{k1}, r.Removed); diff != "" {
		t.Errorf("removed (-want +got):\n%s", diff)
	}
	if r.NetChange != 0 || r.PreviousCount != 2 || r.CurrentCount != 2 || r.Unchanged != 1 {
		t.Errorf("unexpected counts: %+v", r)
	}
	if r.Baseline != BaselinePresent || r.FirstRun() {
		t.Errorf("unexpected baseline %s", r.Baseline)
	}
	if r.AddedJobs[0].JobTitle != "t-https://a/3" || r.RemovedJobs[0].JobTitle != "t-https://a/1" {
		t.Errorf("records not resolved: %+v / %+v", r.AddedJobs, r.RemovedJobs)
	}
}

func TestDetect_FirstRun(t *testing.T) {
	k1, k2 := key("Globex", "https://g/1"), key("Acme", "https://a/9")

	r := Detect(nil, snap(k1, k2), runDate)

	if !r.FirstRun() {
		t.Fatal("expected first run")
	}
	// Sorted by company then link.
	if diff := cmp.Diff([]model.Key{k2, k1}, r.Added); diff != "" {
		t.Errorf("added (-want +got):\n%s", diff)
	}
	if len(r.Removed) != 0 {
		t.Errorf("expected nothing removed, got %v", r.Removed)
	}
	if r.NetChange != 2 {
		t.Errorf("expected net change 2, got %d", r.NetChange)
	}
}

func TestDetect_EmptyPreviousIsNotFirstRun(t *testing.T) {
	r := Detect(snapshot.New(), snap(key("Acme", "https://a/1")), runDate)
	if r.FirstRun() || r.Baseline != BaselineEmpty {
		t.Fatalf("expected empty baseline, got %s", r.Baseline)
	}
	if len(r.Added) != 1 {
		t.Fatalf("expected 1 added, got %d", len(r.Added))
	}
}

func TestDetect_SameLinkDifferentCompany(t *testing.T) {
	r := Detect(snap(key("Acme", "https://x/1")), snap(key("Globex", "https://x/1")), runDate)
	if len(r.Added) != 1 || len(r.Removed) != 1 {
		t.Fatalf("company is part of the key: %+v", r)
	}
}

func TestDetect_Idempotent(t *testing.T) {
	prev := snap(key("A", "1"), key("B", "2"), key("C", "3"))
	cur := snap(key("B", "2"), key("D", "4"))

	first := Detect(prev, cur, runDate)
	second := Detect(prev, cur, runDate)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("reports differ (-first +second):\n%s", diff)
	}
}

func TestDetect_ConsistentCounts(t *testing.T) {
	prev := snap(key("A", "1"), key("A", "2"), key("B", "1"), key("C", "5"))
	cur := snap(key("A", "2"), key("B", "1"), key("B", "2"), key("D", "1"), key("E", "1"))

	r := Detect(prev, cur, runDate)

	if r.NetChange != r.CurrentCount-r.PreviousCount {
		t.Errorf("net change %d != %d - %d", r.NetChange, r.CurrentCount, r.PreviousCount)
	}
	if r.CurrentCount != r.Unchanged+len(r.Added) || r.PreviousCount != r.Unchanged+len(r.Removed) {
		t.Errorf("counts inconsistent: %+v", r)
	}
	added := make(map[model.Key]bool)
	for _, k := range r.Added {
		added[k] = true
		if prev.Has(k) {
			t.Errorf("added key %s was unchanged", k)
		}
	}
	for _, k := range r.Removed {
		if added[k] || cur.Has(k) {
			t.Errorf("removed key %s overlaps current", k)
		}
	}
}

func TestDetect_NilCurrent(t *testing.T) {
	r := Detect(snap(key("A", "1")), nil, runDate)
	if r.CurrentCount != 0 || len(r.Removed) != 1 || r.NetChange != -1 {
		t.Fatalf("unexpected report %+v", r)
	}
}
