package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestDaemon_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	job := func(context.Context) error {
		runs.Add(1)
		cancel()
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- NewDaemon("@every 1h", job, discardLogger()).Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
	if runs.Load() != 1 {
		t.Fatalf("expected one immediate run, got %d", runs.Load())
	}
}

func TestDaemon_InvalidSchedule(t *testing.T) {
	if err := NewDaemon("not a schedule", func(context.Context) error { return nil }, discardLogger()).Run(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if err := ValidateSchedule("*/5 * * * *"); err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}
}
