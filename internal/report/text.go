package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/timing"
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

// WriteText renders the plain-text change report.
func WriteText(w io.Writer, r Report) error {
	tw := &textWriter{w: w}

	tw.line("")
	tw.line(heavyRule)
	tw.line("JOB CHANGES REPORT")
	tw.line(heavyRule)
	tw.linef("Generated: %s", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	tw.linef("Run:       %s (%s)", r.RunID, r.Status)
	if r.Aborted {
		tw.linef("Run was aborted; %d source(s) not processed", len(r.Skipped))
	}
	tw.line("")

	c := r.Changes
	if c.FirstRun() {
		tw.line("Previous: none (first run)")
	} else {
		tw.linef("Previous: %s jobs", humanize.Comma(int64(c.PreviousCount)))
	}
	tw.linef("Current:  %s jobs", humanize.Comma(int64(c.CurrentCount)))
	tw.linef("Net change: %+d jobs", c.NetChange)
	tw.line("")
	tw.linef("New jobs:     %d", len(c.Added))
	tw.linef("Removed jobs: %d", len(c.Removed))
	tw.linef("Unchanged:    %d", c.Unchanged)
	tw.line(heavyRule)

	if len(r.Highlights) > 0 {
		tw.section(fmt.Sprintf("HIGHLIGHTED NEW JOBS (%d):", len(r.Highlights)))
		for _, j := range r.Highlights {
			tw.job(j)
		}
		tw.line(lightRule)
	}
	if len(r.Removed) > 0 {
		tw.section(fmt.Sprintf("HIGHLIGHTED REMOVED JOBS (%d):", len(r.Removed)))
		for _, j := range r.Removed {
			tw.job(j)
		}
		tw.line(lightRule)
	}

	if len(r.NoJobs) > 0 {
		tw.section(fmt.Sprintf("SOURCES WITH NO JOBS - NORMAL (%d):", len(r.NoJobs)))
		tw.line("(These adapters work fine; the source just has no openings)")
		for i, o := range r.NoJobs {
			if i == maxListed {
				tw.linef("  ... and %d more sources", len(r.NoJobs)-maxListed)
				break
			}
			tw.linef("  - %s (%s)", r.Name(o.SourceID), seconds(o.Duration))
		}
		tw.line(lightRule)
	}

	if len(r.Problems) > 0 {
		tw.section(fmt.Sprintf("SOURCES WITH PROBLEMS (%d):", len(r.Problems)))
		tw.line("(These need investigation)")
		for _, o := range r.Problems {
			msg := string(o.Kind)
			if o.Message != "" {
				msg += ": " + o.Message
			}
			tw.linef("  - %s: %s", r.Name(o.SourceID), msg)
		}
		tw.line(lightRule)
	}

	if len(r.Throttled) > 0 {
		rs := r.Requests
		tw.section("REQUEST ISSUES & RATE LIMITING:")
		tw.linef("Request stats (current delay: %s):", seconds(r.Delay))
		tw.linef("  - Total requests: %d", rs.Total)
		tw.linef("  - Successful: %d", rs.Successful)
		tw.linef("  - Rate limited: %d", rs.RateLimited)
		tw.linef("  - Timeouts: %d", rs.Timeouts)
		tw.linef("  - Other errors: %d", rs.Errors)
		if r.RecommendDelay > 0 {
			tw.line("")
			tw.linef("RECOMMENDATION: increase delay from %s to %s", seconds(r.Delay), seconds(r.RecommendDelay))
		}
		tw.line("")
		tw.line("Affected sources:")
		for _, o := range r.Throttled {
			tw.linef("  - %s: %s", r.Name(o.SourceID), o.Kind)
		}
		tw.line(lightRule)
	}

	if r.Timing != nil {
		t := r.Timing
		tw.section("TIMING STATISTICS:")
		tw.linef("  - Total time: %s", seconds(t.Total))
		tw.linef("  - Average per source: %s", seconds(t.Average))
		tw.linef("  - Fastest source: %s", seconds(t.Fastest))
		tw.linef("  - Slowest source: %s", seconds(t.Slowest))
		tw.linef("  - Average jobs per source: %.0f", t.AvgJobs)
		if tr := r.Trend; tr != nil {
			tw.line("")
			tw.line("Performance trend vs last run:")
			tw.linef("  %s (%+.1f%%)", strings.ToUpper(string(tr.Trend)), tr.ChangePercent)
			tw.linef("  - Previous avg: %s", seconds(tr.PreviousAvg))
			tw.linef("  - Current avg: %s", seconds(tr.CurrentAvg))
		}
		if len(r.Slow) > 0 {
			tw.line("")
			tw.linef("Slow sources (>%s):", seconds(timing.SlowThreshold))
			for _, o := range r.Slow {
				rate := ""
				if o.JobCount > 0 {
					rate = fmt.Sprintf(" (%.1f jobs/sec)", float64(o.JobCount)/o.Duration.Seconds())
				}
				tw.linef("  - %s: %s for %d jobs%s", r.Name(o.SourceID), seconds(o.Duration), o.JobCount, rate)
			}
		}
		tw.line(lightRule)
	}

	return tw.err
}

type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) line(s string) {
	if t.err != nil {
		return
	}
	_, t.err = io.WriteString(t.w, s+"\n")
}

func (t *textWriter) linef(format string, args ...any) {
	t.line(fmt.Sprintf(format, args...))
}

func (t *textWriter) section(title string) {
	t.line("")
	t.line(title)
	t.line(lightRule)
}

func (t *textWriter) job(j model.JobRecord) {
	loc := j.Location
	if loc == "" {
		loc = "Unknown"
	}
	t.linef("  * %s", orUnknown(j.JobTitle))
	t.linef("    @ %s | %s", orUnknown(j.CompanyName), loc)
	t.linef("    %s", j.JobLink)
	t.line("")
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
