package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/jobsweep/internal/model"
)

// RetryFetcher is a decorator that retries transient failures with exponential
// backoff and jitter before giving up.
type RetryFetcher struct {
	inner      model.Fetcher
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetryFetcher wraps a Fetcher with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetryFetcher(inner model.Fetcher, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryFetcher {
	return &RetryFetcher{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// FetchJobs runs the wrapped fetch, retrying server and network failures up
// to maxRetries times. Any other failure is returned as is.
func (f *RetryFetcher) FetchJobs(ctx context.Context, src model.SourceConfig) ([]model.JobRecord, error) {
	for attempt := 0; ; attempt++ {
		jobs, err := f.inner.FetchJobs(ctx, src)
		if err == nil || attempt >= f.maxRetries || !isRetryable(err) {
			return jobs, err
		}

		delay := f.backoffDelay(attempt+1, err)
		f.logger.Warn("retrying after transient error",
			"source", src.ID,
			"attempt", attempt+1,
			"max_retries", f.maxRetries,
			"delay", delay,
			"error", err,
		)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-t.C:
		}
	}
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A Retry-After duration on the error takes precedence.
func (f *RetryFetcher) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := f.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable reports whether err is a transient server or network failure.
// Throttling, timeouts and auth failures are never retried in-run: hitting a
// source again right after it pushed back only makes things worse.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return false
	}

	var c model.Categorized
	if !errors.As(err, &c) {
		return false
	}
	switch c.Category() {
	case model.CategoryServer, model.CategoryNetwork:
		return true
	}
	return false
}
