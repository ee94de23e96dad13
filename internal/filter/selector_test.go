package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/amishk599/jobsweep/internal/model"
)

var registry = []model.SourceConfig{
	{ID: "acme", Type: "greenhouse", Enabled: true},
	{ID: "acme-eu", Type: "lever", Enabled: true},
	{ID: "globex", Type: "Greenhouse", Enabled: true},
	{ID: "initech", Type: "workday", Enabled: false},
}

func enabledIDs(srcs []model.SourceConfig) []string {
	var ids []string
	for _, s := range srcs {
		if s.Enabled {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func TestSourceSelector_Select(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{name: "no patterns keeps everything enabled", patterns: nil, want: []string{"acme", "acme-eu", "globex"}},
		{name: "id prefix", patterns: []string{"acme*"}, want: []string{"acme", "acme-eu"}},
		{name: "by type, case insensitive", patterns: []string{"greenhouse/*"}, want: []string{"acme", "globex"}},
		{name: "exclude only", patterns: []string{"!globex"}, want: []string{"acme", "acme-eu"}},
		{name: "include then exclude", patterns: []string{"acme*", "!lever/*"}, want: []string{"acme"}},
		{name: "disabled stays disabled", patterns: []string{"initech"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := NewSourceSelector(tt.patterns)
			if err != nil {
				t.Fatal(err)
			}
			got := sel.Select(registry)
			if len(got) != len(registry) {
				t.Fatalf("Select must keep registry positions, got %d sources", len(got))
			}
			if diff := cmp.Diff(tt.want, enabledIDs(got)); diff != "" {
				t.Errorf("enabled (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewSourceSelector_InvalidPattern(t *testing.T) {
	if _, err := NewSourceSelector([]string{"acme["}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}
