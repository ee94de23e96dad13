package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobsweep/internal/config"
	"github.com/amishk599/jobsweep/internal/model"
)

func TestStatusExit(t *testing.T) {
	tests := []struct {
		status model.RunStatus
		code   int
	}{
		{model.StatusAllSucceeded, 0},
		{model.StatusSomeFailed, 2},
		{model.StatusAllFailed, 3},
	}
	for _, tt := range tests {
		err := statusExit(tt.status)
		var exit *exitError
		switch {
		case tt.code == 0 && err != nil:
			t.Errorf("%s: unexpected error %v", tt.status, err)
		case tt.code != 0 && (!errors.As(err, &exit) || exit.code != tt.code):
			t.Errorf("%s: want exit %d, got %v", tt.status, tt.code, err)
		}
	}
}

func TestHTTPClient_FollowsEffectiveTimeout(t *testing.T) {
	cfg := &config.Config{Run: config.RunConfig{Timeout: 30 * time.Second, Concurrency: 1}}

	var f runFlags
	cmd := &cobra.Command{Use: "test"}
	addRunFlags(cmd, &f)
	if err := cmd.ParseFlags([]string{"--timeout", "90s"}); err != nil {
		t.Fatal(err)
	}
	opts := pipelineOptions(cmd, cfg, f)
	if opts.Scheduler.Timeout != 90*time.Second {
		t.Fatalf("timeout flag not applied: %v", opts.Scheduler.Timeout)
	}
	if got := newHTTPClient(opts.Scheduler.Timeout).Timeout; got <= opts.Scheduler.Timeout {
		t.Errorf("client timeout %v would cut calls short of %v", got, opts.Scheduler.Timeout)
	}

	if got := newHTTPClient(0).Timeout; got != 0 {
		t.Errorf("disabled call timeout should leave the client unbounded, got %v", got)
	}
}

func TestPipelineOptions_FlagsOverrideConfig(t *testing.T) {
	cfg := &config.Config{
		Run: config.RunConfig{
			Delay:       2 * time.Second,
			Timeout:     30 * time.Second,
			Concurrency: 1,
			MaxRetries:  1,
			OutputDir:   "output",
		},
		RateLimit: config.RateLimitConfig{MinDelay: time.Second},
	}

	var f runFlags
	cmd := &cobra.Command{Use: "test"}
	addRunFlags(cmd, &f)
	if err := cmd.ParseFlags([]string{"--delay", "500ms", "--concurrency", "4", "--select", "acme*,!acme-old"}); err != nil {
		t.Fatal(err)
	}

	opts := pipelineOptions(cmd, cfg, f)
	if opts.Scheduler.Delay != 500*time.Millisecond || opts.Scheduler.Concurrency != 4 {
		t.Errorf("flags not applied: %+v", opts.Scheduler)
	}
	if opts.Scheduler.Timeout != 30*time.Second || opts.OutputDir != "output" {
		t.Errorf("config values lost: %+v", opts)
	}
	if opts.MaxRetries != 1 || opts.HostMinDelay != time.Second {
		t.Errorf("unexpected retry/pacing %+v", opts)
	}
	if diff := cmp.Diff([]string{"acme*", "!acme-old"}, opts.Select); diff != "" {
		t.Errorf("select (-want +got):\n%s", diff)
	}
}

func TestFirstPerType(t *testing.T) {
	in := []model.SourceConfig{
		{ID: "a", Type: "greenhouse", Enabled: true},
		{ID: "b", Type: "greenhouse", Enabled: true},
		{ID: "c", Type: "lever", Enabled: false},
		{ID: "d", Type: "lever", Enabled: true},
	}
	var enabled []string
	for _, s := range firstPerType(in) {
		if s.Enabled {
			enabled = append(enabled, s.ID)
		}
	}
	if diff := cmp.Diff([]string{"a", "d"}, enabled); diff != "" {
		t.Errorf("enabled (-want +got):\n%s", diff)
	}
	if !in[1].Enabled {
		t.Error("input must not be modified")
	}
}

func TestTable(t *testing.T) {
	tb := table{header: []string{"ID", "Name"}}
	tb.add("a", "Acme")
	tb.add("longer", "日本")

	var b strings.Builder
	tb.write(&b)
	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	want := []string{
		"ID      Name",
		"────────────",
		"a       Acme",
		"longer  日本",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("table (-want +got):\n%s", diff)
	}
}

func TestVersionString(t *testing.T) {
	got := versionString()
	if !strings.HasPrefix(got, "jobsweep ") || !strings.Contains(got, "go1.") {
		t.Errorf("unexpected version string %q", got)
	}
}
