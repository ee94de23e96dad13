// Package snapshot holds the deduplicated job set of one run and its tabular
// file format.
package snapshot

import (
	"github.com/amishk599/jobsweep/internal/model"
)

// Snapshot maps natural keys to job records. Iteration follows first
// insertion order so written files are stable across runs.
type Snapshot struct {
	records map[model.Key]model.JobRecord
	order   []model.Key
}

// New returns an empty snapshot.
func New() *Snapshot {
	return &Snapshot{records: make(map[model.Key]model.JobRecord)}
}

// Put stores r under its key, replacing any earlier record with the same
// key. It reports whether a record was replaced.
func (s *Snapshot) Put(r model.JobRecord) bool {
	k := r.Key()
	_, exists := s.records[k]
	if !exists {
		s.order = append(s.order, k)
	}
	s.records[k] = r
	return exists
}

// Get returns the record for k.
func (s *Snapshot) Get(k model.Key) (model.JobRecord, bool) {
	r, ok := s.records[k]
	return r, ok
}

// Has reports whether k is present.
func (s *Snapshot) Has(k model.Key) bool {
	_, ok := s.records[k]
	return ok
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Keys returns the keys in insertion order.
func (s *Snapshot) Keys() []model.Key {
	out := make([]model.Key, len(s.order))
	copy(out, s.order)
	return out
}

// Records returns the records in insertion order.
func (s *Snapshot) Records() []model.JobRecord {
	out := make([]model.JobRecord, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.records[k])
	}
	return out
}
