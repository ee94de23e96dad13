// Package filter decides which sources take part in a run and which new
// jobs are worth announcing.
package filter

import (
	"strings"

	"github.com/amishk599/jobsweep/internal/model"
)

// TitleAndLocationFilter keeps job records whose title contains one of the
// title keywords and whose location contains one of the location keywords,
// case-insensitively. An empty keyword list matches everything.
type TitleAndLocationFilter struct {
	titleKeywords []string
	locations     []string
}

// NewTitleAndLocationFilter builds the filter notifiers use to pick which
// new jobs to announce.
func NewTitleAndLocationFilter(titleKeywords []string, locations []string) *TitleAndLocationFilter {
	return &TitleAndLocationFilter{
		titleKeywords: lowerAll(titleKeywords),
		locations:     lowerAll(locations),
	}
}

// Match reports whether job passes both keyword lists.
func (f *TitleAndLocationFilter) Match(job model.JobRecord) bool {
	return containsAny(job.JobTitle, f.titleKeywords) && containsAny(job.Location, f.locations)
}

// Apply returns the records in jobs that f matches.
func (f *TitleAndLocationFilter) Apply(jobs []model.JobRecord) []model.JobRecord {
	var out []model.JobRecord
	for _, j := range jobs {
		if f.Match(j) {
			out = append(out, j)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	s = strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
