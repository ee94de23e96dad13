// Package changes compares two successive snapshots.
package changes

import (
	"sort"
	"time"

	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/snapshot"
)

// Baseline describes what the current run was compared against.
type Baseline string

const (
	// BaselineMissing means no previous snapshot exists: this is the first run.
	BaselineMissing Baseline = "missing"
	// BaselineEmpty means a previous snapshot exists but holds no records.
	BaselineEmpty Baseline = "empty"
	// BaselinePresent means a non-empty previous snapshot was compared.
	BaselinePresent Baseline = "present"
)

// Report is the difference between the previous and the current snapshot.
// Added and Removed are sorted by company then job link.
type Report struct {
	RunDate       time.Time         `json:"run_date"`
	Baseline      Baseline          `json:"baseline"`
	PreviousCount int               `json:"previous_count"`
	CurrentCount  int               `json:"current_count"`
	NetChange     int               `json:"net_change"`
	Added         []model.Key       `json:"added"`
	Removed       []model.Key       `json:"removed"`
	Unchanged     int               `json:"unchanged"`
	AddedJobs     []model.JobRecord `json:"-"`
	RemovedJobs   []model.JobRecord `json:"-"`
}

// FirstRun reports whether there was no previous snapshot at all.
func (r Report) FirstRun() bool {
	return r.Baseline == BaselineMissing
}

// HasChanges reports whether anything was added or removed.
func (r Report) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

// Detect compares prev with cur. A nil prev means no previous snapshot
// exists; every current key is then reported as added.
func Detect(prev, cur *snapshot.Snapshot, runDate time.Time) Report {
	if cur == nil {
		cur = snapshot.New()
	}

	r := Report{
		RunDate:      runDate,
		CurrentCount: cur.Len(),
		Added:        []model.Key{},
		Removed:      []model.Key{},
	}
	switch {
	case prev == nil:
		r.Baseline = BaselineMissing
		prev = snapshot.New()
	case prev.Len() == 0:
		r.Baseline = BaselineEmpty
	default:
		r.Baseline = BaselinePresent
	}
	r.PreviousCount = prev.Len()
	r.NetChange = r.CurrentCount - r.PreviousCount

	for _, k := range cur.Keys() {
		if prev.Has(k) {
			r.Unchanged++
			continue
		}
		r.Added = append(r.Added, k)
	}
	for _, k := range prev.Keys() {
		if !cur.Has(k) {
			r.Removed = append(r.Removed, k)
		}
	}

	sortKeys(r.Added)
	sortKeys(r.Removed)

	r.AddedJobs = lookup(cur, r.Added)
	r.RemovedJobs = lookup(prev, r.Removed)
	return r
}

func sortKeys(keys []model.Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

func lookup(s *snapshot.Snapshot, keys []model.Key) []model.JobRecord {
	out := make([]model.JobRecord, 0, len(keys))
	for _, k := range keys {
		r, _ := s.Get(k)
		out = append(out, r)
	}
	return out
}
