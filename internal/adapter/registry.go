package adapter

import (
	"net/http"
	"sort"
	"strings"

	"github.com/amishk599/jobsweep/internal/model"
)

// Registry maps normalized source-type labels to adapters.
type Registry struct {
	adapters map[string]model.Fetcher
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]model.Fetcher)}
}

// DefaultRegistry registers every built-in adapter, all sharing client.
func DefaultRegistry(client *http.Client) *Registry {
	r := NewRegistry()
	r.Register("greenhouse", NewGreenhouseAdapter(client))
	r.Register("ashby", NewAshbyAdapter(client))
	r.Register("lever", NewLeverAdapter(client))
	r.Register("gem", NewGemAdapter(client))
	r.Register("workday", NewWorkdayAdapter(client))
	r.Register("myworkdayjobs", NewWorkdayAdapter(client))
	r.Register("workable", NewWorkableAdapter(client))
	r.Register("recruitee", NewRecruiteeAdapter(client))
	r.Register("microsoft", NewMicrosoftAdapter(client))
	return r
}

// Register binds label to f, replacing any previous binding.
func (r *Registry) Register(label string, f model.Fetcher) {
	r.adapters[NormalizeLabel(label)] = f
}

// Labels returns the registered labels, sorted.
func (r *Registry) Labels() []string {
	out := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolve finds the adapter for a source-type label. An exact match on the
// normalized label wins; otherwise the shortest registered label that
// contains, or is contained in, the normalized label is used. Ties break
// alphabetically.
func (r *Registry) Resolve(label string) (model.Fetcher, string, bool) {
	norm := NormalizeLabel(label)
	if norm == "" {
		return nil, "", false
	}
	if f, ok := r.adapters[norm]; ok {
		return f, norm, true
	}

	best := ""
	for _, key := range r.Labels() {
		if !strings.Contains(norm, key) && !strings.Contains(key, norm) {
			continue
		}
		if best == "" || len(key) < len(best) {
			best = key
		}
	}
	if best == "" {
		return nil, "", false
	}
	return r.adapters[best], best, true
}

// NormalizeLabel lowercases a label and strips spaces and dashes.
func NormalizeLabel(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	l = strings.ReplaceAll(l, " ", "")
	return strings.ReplaceAll(l, "-", "")
}
