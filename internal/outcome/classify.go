// Package outcome triages the terminal state of one adapter call into an
// OutcomeKind.
package outcome

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amishk599/jobsweep/internal/model"
)

// PanicError carries a value recovered from a panicking adapter.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("adapter panic: %v", e.Value)
}

// ErrTimedOut is reported when a call is abandoned after its deadline.
var ErrTimedOut = errors.New("call timed out")

// Result is the terminal state of one adapter invocation.
type Result struct {
	Records []model.JobRecord
	Err     error
	Elapsed time.Duration
}

// Classify applies the triage rules in priority order, first match wins:
// timeout, throttling, auth, other errors or malformed records, empty, non-empty.
// Panics and run cancellation land in UnknownError. The returned message is
// empty on success.
func Classify(r Result, timeout time.Duration) (model.OutcomeKind, string) {
	if isTimeout(r, timeout) {
		msg := fmt.Sprintf("no response within %s", timeout)
		if r.Err != nil && !errors.Is(r.Err, ErrTimedOut) {
			msg = fmt.Sprintf("%s: %v", msg, r.Err)
		}
		return model.OutcomeTimeout, msg
	}

	if r.Err != nil {
		var c model.Categorized
		if errors.As(r.Err, &c) {
			switch c.Category() {
			case model.CategoryRateLimited:
				return model.OutcomeRateLimited, r.Err.Error()
			case model.CategoryAuth:
				return model.OutcomeAuthError, r.Err.Error()
			}
		}
		var p *PanicError
		if errors.As(r.Err, &p) || errors.Is(r.Err, context.Canceled) {
			return model.OutcomeUnknownError, r.Err.Error()
		}
		return model.OutcomeParseError, r.Err.Error()
	}

	for i, rec := range r.Records {
		if err := rec.Validate(); err != nil {
			return model.OutcomeParseError, fmt.Sprintf("record %d: %v", i, err)
		}
	}

	if len(r.Records) == 0 {
		return model.OutcomeEmptySuccess, ""
	}
	return model.OutcomeSuccess, ""
}

func isTimeout(r Result, timeout time.Duration) bool {
	if timeout > 0 && r.Elapsed >= timeout {
		return true
	}
	if r.Err == nil {
		return false
	}
	if errors.Is(r.Err, ErrTimedOut) || errors.Is(r.Err, context.DeadlineExceeded) {
		return true
	}
	// net/http client and dialer timeouts.
	var te interface{ Timeout() bool }
	return errors.As(r.Err, &te) && te.Timeout()
}
