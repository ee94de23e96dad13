package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/jobsweep/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockFetcher calls a function on each invocation, tracking call count.
type mockFetcher struct {
	calls int
	fn    func(attempt int) ([]model.JobRecord, error)
}

func (m *mockFetcher) FetchJobs(_ context.Context, _ model.SourceConfig) ([]model.JobRecord, error) {
	m.calls++
	return m.fn(m.calls)
}

var src = model.SourceConfig{ID: "acme", Type: "greenhouse"}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	jobs := []model.JobRecord{{JobLink: "https://x/1", JobTitle: "Engineer"}}
	mock := &mockFetcher{fn: func(_ int) ([]model.JobRecord, error) {
		return jobs, nil
	}}

	rf := NewRetryFetcher(mock, 1, 10*time.Millisecond, discardLogger())
	got, err := rf.FetchJobs(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].JobLink != "https://x/1" {
		t.Fatalf("unexpected jobs: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	jobs := []model.JobRecord{{JobLink: "https://x/1"}}
	mock := &mockFetcher{fn: func(attempt int) ([]model.JobRecord, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 502, Err: errors.New("bad gateway")}
		}
		return jobs, nil
	}}

	rf := NewRetryFetcher(mock, 1, 10*time.Millisecond, discardLogger())
	got, err := rf.FetchJobs(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 job, got %d", len(got))
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_RetriesNetworkError(t *testing.T) {
	mock := &mockFetcher{fn: func(attempt int) ([]model.JobRecord, error) {
		if attempt == 1 {
			return nil, model.NetworkError(errors.New("connection reset"), "request failed")
		}
		return nil, nil
	}}

	rf := NewRetryFetcher(mock, 1, 10*time.Millisecond, discardLogger())
	if _, err := rf.FetchJobs(context.Background(), src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_NeverRetriesThrottling(t *testing.T) {
	for _, status := range []int{429, 403, 503} {
		mock := &mockFetcher{fn: func(_ int) ([]model.JobRecord, error) {
			return nil, &model.HTTPError{StatusCode: status}
		}}

		rf := NewRetryFetcher(mock, 1, 10*time.Millisecond, discardLogger())
		if _, err := rf.FetchJobs(context.Background(), src); err == nil {
			t.Fatalf("status %d: expected error", status)
		}
		if mock.calls != 1 {
			t.Fatalf("status %d: expected 1 call (no retry), got %d", status, mock.calls)
		}
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) ([]model.JobRecord, error) {
		return nil, &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}
	}}

	rf := NewRetryFetcher(mock, 1, 10*time.Millisecond, discardLogger())
	_, err := rf.FetchJobs(context.Background(), src)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected HTTPError with status 404, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryParseError(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) ([]model.JobRecord, error) {
		return nil, model.ParseErrorf(errors.New("invalid character"), "decode response")
	}}

	rf := NewRetryFetcher(mock, 1, 10*time.Millisecond, discardLogger())
	if _, err := rf.FetchJobs(context.Background(), src); err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) ([]model.JobRecord, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	rf := NewRetryFetcher(mock, 1, 10*time.Millisecond, discardLogger())
	_, err := rf.FetchJobs(context.Background(), src)
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 1 retry
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_ZeroRetriesIsPassthrough(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) ([]model.JobRecord, error) {
		return nil, &model.HTTPError{StatusCode: 500}
	}}

	rf := NewRetryFetcher(mock, 0, 10*time.Millisecond, discardLogger())
	if _, err := rf.FetchJobs(context.Background(), src); err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) ([]model.JobRecord, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	// Cancel immediately so the backoff sleep is interrupted.
	cancel()

	rf := NewRetryFetcher(mock, 1, time.Second, discardLogger())
	_, err := rf.FetchJobs(ctx, src)
	if err == nil {
		t.Fatal("expected error from context cancellation, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}
