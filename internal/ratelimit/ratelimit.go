package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobsweep/internal/model"
)

// HostLimiter enforces a minimum delay between requests to the same upstream
// host. Sources hosted by one ATS share its budget.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter // key: host
	minDelay time.Duration
}

// NewHostLimiter creates a limiter that allows one request per minDelay for
// each host. A zero minDelay disables limiting.
func NewHostLimiter(minDelay time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		minDelay: minDelay,
	}
}

func (h *HostLimiter) limiter(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(h.minDelay), 1)
		h.limiters[host] = l
	}
	return l
}

// Wait blocks until a request to host is allowed. It fails when ctx is done,
// or at once when the slot would open after ctx's deadline; the latter wraps
// context.DeadlineExceeded so the call counts as a timeout.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if h.minDelay <= 0 {
		return nil
	}
	err := h.limiter(host).Wait(ctx)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("rate limiter wait for %s: %w", host, ctx.Err())
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("rate limiter wait for %s: %w (%v)", host, context.DeadlineExceeded, err)
	}
	return fmt.Errorf("rate limiter wait for %s: %w", host, err)
}

// HostKey returns the limiter key for a source: the host of its URL, or the
// source type when the URL does not parse.
func HostKey(src model.SourceConfig) string {
	u, err := url.Parse(src.URL)
	if err != nil || u.Host == "" {
		return strings.ToLower(src.Type)
	}
	return strings.ToLower(u.Hostname())
}

// RateLimitedFetcher is a decorator that enforces host-level rate limiting
// before delegating to the wrapped Fetcher.
type RateLimitedFetcher struct {
	inner   model.Fetcher
	limiter *HostLimiter
}

// NewRateLimitedFetcher wraps a Fetcher with host-level rate limiting. All
// fetchers should share one limiter so hosts are paced globally.
func NewRateLimitedFetcher(inner model.Fetcher, limiter *HostLimiter) *RateLimitedFetcher {
	return &RateLimitedFetcher{inner: inner, limiter: limiter}
}

// FetchJobs waits for the limiter, then delegates to the wrapped fetcher.
func (f *RateLimitedFetcher) FetchJobs(ctx context.Context, src model.SourceConfig) ([]model.JobRecord, error) {
	if err := f.limiter.Wait(ctx, HostKey(src)); err != nil {
		return nil, err
	}
	return f.inner.FetchJobs(ctx, src)
}
