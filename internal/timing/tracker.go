// Package timing keeps the append-only, per-source history of adapter calls
// and derives rolling statistics from it.
package timing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/amishk599/jobsweep/internal/fileutil"
	"github.com/amishk599/jobsweep/internal/model"
)

// Entry is one historical adapter call.
type Entry struct {
	Timestamp       time.Time         `json:"timestamp"`
	DurationSeconds float64           `json:"duration_seconds"`
	JobCount        int               `json:"job_count"`
	Outcome         model.OutcomeKind `json:"outcome"`
}

// Duration returns the entry's duration.
func (e Entry) Duration() time.Duration {
	return time.Duration(e.DurationSeconds * float64(time.Second))
}

// Tracker holds the process-wide timing history. It does no locking of its
// own: the runner serializes Record calls.
type Tracker struct {
	path    string
	history map[string][]Entry
	loaded  map[string]int // entries per source at load time
}

// New returns an empty tracker with no backing file. Flush is a no-op.
func New() *Tracker {
	return &Tracker{
		history: make(map[string][]Entry),
		loaded:  make(map[string]int),
	}
}

// Load reads the history file at path. A missing file yields an empty
// tracker; an unreadable or corrupt one is an error.
func Load(path string) (*Tracker, error) {
	t := New()
	t.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read timing history: %w", err)
	}
	if len(data) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(data, &t.history); err != nil {
		return nil, fmt.Errorf("parse timing history %s: %w", path, err)
	}
	if t.history == nil {
		t.history = make(map[string][]Entry)
	}
	for id, entries := range t.history {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		})
		t.loaded[id] = len(entries)
	}
	return t, nil
}

// Path returns the backing file, empty for in-memory trackers.
func (t *Tracker) Path() string {
	return t.path
}

// Record appends one entry for sourceID.
func (t *Tracker) Record(sourceID string, o model.RunOutcome, ts time.Time) {
	t.history[sourceID] = append(t.history[sourceID], Entry{
		Timestamp:       ts.UTC(),
		DurationSeconds: o.Duration.Seconds(),
		JobCount:        o.JobCount,
		Outcome:         o.Kind,
	})
}

// HistoryFor returns a copy of the entries for sourceID, oldest first.
func (t *Tracker) HistoryFor(sourceID string) []Entry {
	entries := t.history[sourceID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Sources returns every source with history, sorted.
func (t *Tracker) Sources() []string {
	ids := make([]string, 0, len(t.history))
	for id := range t.history {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Appended reports how many entries were recorded since load.
func (t *Tracker) Appended() int {
	n := 0
	for id, entries := range t.history {
		n += len(entries) - t.loaded[id]
	}
	return n
}

// Flush writes the full history to the backing file atomically.
func (t *Tracker) Flush() error {
	if t.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(t.history, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal timing history: %w", err)
	}

	if err := fileutil.WriteAtomic(t.path, data); err != nil {
		return fmt.Errorf("flush timing history: %w", err)
	}
	return nil
}
