package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobsweep/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes the run summary and each new job to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one summary line, each failed source, and each new job.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, s model.RunSummary) error {
	ok, failed := countOutcomes(s.Outcomes)
	n.logger.Info("run complete",
		"run_id", s.RunID,
		"status", string(s.Status),
		"sources_ok", ok,
		"sources_failed", failed,
		"jobs", s.CurrentCount,
		"added", s.Added,
		"removed", s.Removed,
		"first_run", s.FirstRun,
		"report", s.ReportPath,
	)
	for _, o := range s.Outcomes {
		if !o.Kind.Succeeded() {
			n.logger.Warn("source failed", "source", o.SourceID, "outcome", string(o.Kind), "error", o.Message)
		}
	}
	for _, j := range s.NewJobs {
		args := []any{"company", j.CompanyName, "title", j.JobTitle, "location", j.Location, "url", j.JobLink}
		if j.PostedDate != "" {
			args = append(args, "posted", j.PostedDate)
		}
		n.logger.Info("new job", args...)
	}
	return nil
}

func countOutcomes(outcomes []model.RunOutcome) (ok, failed int) {
	for _, o := range outcomes {
		if o.Kind.Succeeded() {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
