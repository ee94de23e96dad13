// Package aggregate merges the records forwarded by one run into a single
// deduplicated snapshot.
package aggregate

import (
	"sort"
	"sync"

	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/snapshot"
)

// Aggregator collects record batches tagged with their source's registry
// index. It is safe for concurrent use; batches may arrive in any order but
// are merged in registry order, so the result does not depend on which
// worker finished first.
type Aggregator struct {
	mu      sync.Mutex
	batches map[int][]model.JobRecord
}

// New returns an empty aggregator.
func New() *Aggregator {
	return &Aggregator{batches: make(map[int][]model.JobRecord)}
}

// Add stores the records of the source at registry position index. A second
// Add for the same index replaces the first.
func (a *Aggregator) Add(index int, recs []model.JobRecord) {
	cp := make([]model.JobRecord, len(recs))
	copy(cp, recs)

	a.mu.Lock()
	a.batches[index] = cp
	a.mu.Unlock()
}

// Sources returns how many sources contributed a batch.
func (a *Aggregator) Sources() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.batches)
}

// Result is a merged snapshot plus merge statistics.
type Result struct {
	Snapshot   *snapshot.Snapshot
	Received   int // records across all batches
	Duplicates int // records that replaced an earlier one with the same key
}

// Snapshot merges every batch in ascending registry index. On a duplicate
// key the later source wins.
func (a *Aggregator) Snapshot() Result {
	a.mu.Lock()
	indexes := make([]int, 0, len(a.batches))
	for i := range a.batches {
		indexes = append(indexes, i)
	}
	batches := make(map[int][]model.JobRecord, len(a.batches))
	for i, b := range a.batches {
		batches[i] = b
	}
	a.mu.Unlock()

	sort.Ints(indexes)

	res := Result{Snapshot: snapshot.New()}
	for _, i := range indexes {
		for _, r := range batches[i] {
			res.Received++
			if res.Snapshot.Put(r) {
				res.Duplicates++
			}
		}
	}
	return res
}
