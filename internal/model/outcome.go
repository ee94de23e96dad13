package model

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// OutcomeKind classifies one adapter invocation.
type OutcomeKind string

const (
	OutcomeSuccess      OutcomeKind = "success"
	OutcomeEmptySuccess OutcomeKind = "empty_success"
	OutcomeRateLimited  OutcomeKind = "rate_limited"
	OutcomeAuthError    OutcomeKind = "auth_error"
	OutcomeTimeout      OutcomeKind = "timeout"
	OutcomeParseError   OutcomeKind = "parse_error"
	OutcomeUnknownError OutcomeKind = "unknown_error"
)

// OutcomeKinds lists every kind in report order.
var OutcomeKinds = []OutcomeKind{
	OutcomeSuccess,
	OutcomeEmptySuccess,
	OutcomeRateLimited,
	OutcomeAuthError,
	OutcomeTimeout,
	OutcomeParseError,
	OutcomeUnknownError,
}

// Succeeded reports whether the kind is a valid terminal state whose records
// are forwarded to aggregation.
func (k OutcomeKind) Succeeded() bool {
	return k == OutcomeSuccess || k == OutcomeEmptySuccess
}

func (k OutcomeKind) Valid() bool {
	for _, v := range OutcomeKinds {
		if k == v {
			return true
		}
	}
	return false
}

// UnmarshalJSON rejects kinds this build does not know about.
func (k *OutcomeKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if !OutcomeKind(s).Valid() {
		return fmt.Errorf("unknown outcome kind %q", s)
	}
	*k = OutcomeKind(s)
	return nil
}

// RunOutcome is the result of one adapter invocation.
type RunOutcome struct {
	SourceID string
	Kind     OutcomeKind
	JobCount int
	Duration time.Duration
	Message  string
}

// RunStatus is the overall status of a run.
type RunStatus string

const (
	StatusAllSucceeded RunStatus = "all_succeeded"
	StatusSomeFailed   RunStatus = "some_failed"
	StatusAllFailed    RunStatus = "all_failed"
)

// StatusOf derives the run status from its outcomes. A run with no outcomes
// counts as all succeeded.
func StatusOf(outcomes []RunOutcome) RunStatus {
	failed := 0
	for _, o := range outcomes {
		if !o.Kind.Succeeded() {
			failed++
		}
	}
	switch {
	case failed == 0:
		return StatusAllSucceeded
	case failed == len(outcomes):
		return StatusAllFailed
	}
	return StatusSomeFailed
}

// RunSummary is what sinks (archive, notifiers) see of a finished run.
type RunSummary struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Status        RunStatus
	Aborted       bool
	Outcomes      []RunOutcome
	PreviousCount int
	CurrentCount  int
	Added         int
	Removed       int
	FirstRun      bool
	ReportPath    string
	NewJobs       []JobRecord // added records, possibly truncated
}

// Notifier announces a finished run.
type Notifier interface {
	Notify(ctx context.Context, summary RunSummary) error
}

// RunArchive persists run summaries for later inspection.
type RunArchive interface {
	SaveRun(ctx context.Context, summary RunSummary) error
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
	Close() error
}
