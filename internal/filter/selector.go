package filter

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/amishk599/jobsweep/internal/model"
)

// SourceSelector narrows the registry with glob patterns. Each pattern is
// tried against the source ID and against "<type>/<id>", so both "acme*" and
// "greenhouse/*" work. Patterns starting with "!" exclude.
type SourceSelector struct {
	include []string
	exclude []string
}

// NewSourceSelector compiles patterns. No include patterns means every
// source is included.
func NewSourceSelector(patterns []string) (*SourceSelector, error) {
	s := &SourceSelector{}
	for _, raw := range patterns {
		p := strings.ToLower(strings.TrimSpace(raw))
		neg := strings.HasPrefix(p, "!")
		p = strings.TrimPrefix(p, "!")
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", raw)
		}
		if neg {
			s.exclude = append(s.exclude, p)
		} else {
			s.include = append(s.include, p)
		}
	}
	return s, nil
}

// Match reports whether src is selected.
func (s *SourceSelector) Match(src model.SourceConfig) bool {
	values := []string{
		strings.ToLower(src.ID),
		strings.ToLower(src.Type) + "/" + strings.ToLower(src.ID),
	}
	if len(s.include) > 0 && !matchAny(s.include, values) {
		return false
	}
	return !matchAny(s.exclude, values)
}

// Select returns the selected sources in their original order. Unselected
// sources are returned disabled rather than dropped, so registry positions
// and aggregation order stay stable.
func (s *SourceSelector) Select(sources []model.SourceConfig) []model.SourceConfig {
	out := make([]model.SourceConfig, len(sources))
	for i, src := range sources {
		out[i] = src
		if !s.Match(src) {
			out[i].Enabled = false
		}
	}
	return out
}

func matchAny(patterns, values []string) bool {
	for _, p := range patterns {
		for _, v := range values {
			// Patterns are validated in the constructor, so Match cannot fail.
			if ok, _ := doublestar.Match(p, v); ok {
				return true
			}
		}
	}
	return false
}
