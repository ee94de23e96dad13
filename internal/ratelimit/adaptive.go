package ratelimit

import (
	"time"

	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/timing"
)

// MaxAdaptiveDelay caps the delay AdaptiveDelay will ask for.
const MaxAdaptiveDelay = 30 * time.Second

// AdaptiveDelay returns the delay to apply before calling a source, given its
// timing history. Only entries strictly before runStart are considered, so a
// source throttled earlier in the same run is not penalized twice. Each
// consecutive RateLimited entry at the tail of that history doubles base.
func AdaptiveDelay(base time.Duration, history []timing.Entry, runStart time.Time) time.Duration {
	streak := 0
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		if !e.Timestamp.Before(runStart) {
			continue
		}
		if e.Outcome != model.OutcomeRateLimited {
			break
		}
		streak++
	}
	if streak == 0 {
		return base
	}

	d := base
	if d < time.Second {
		d = time.Second
	}
	for i := 0; i < streak; i++ {
		d *= 2
		if d >= MaxAdaptiveDelay {
			return MaxAdaptiveDelay
		}
	}
	return d
}

// RecommendDelay suggests a new inter-call delay after a run with a high
// throttle/timeout rate. When rate limits outnumber timeouts the delay is
// doubled up to 5s, otherwise raised by half up to 3s. ok is false when no
// change is advised.
func RecommendDelay(stats timing.RequestStats, current time.Duration) (time.Duration, bool) {
	if !stats.HighErrorRate() {
		return current, false
	}
	var rec time.Duration
	if stats.RateLimited > stats.Timeouts {
		rec = min(current*2, 5*time.Second)
	} else {
		rec = min(current*3/2, 3*time.Second)
	}
	if rec <= current {
		return current, false
	}
	return rec, true
}
