package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/jobsweep/internal/model"
)

// Ensure RedisNotifier implements model.Notifier.
var _ model.Notifier = (*RedisNotifier)(nil)

// EventRunCompleted is the type field of every published run event.
const EventRunCompleted = "EVENT_RUN_COMPLETED"

// Publisher is the subset of *redis.Client the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier publishes a JSON run event on a Redis pub/sub channel so
// downstream services can react to new postings.
type RedisNotifier struct {
	rdb     Publisher
	channel string
	logger  *slog.Logger
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedisNotifier returns a notifier publishing on channel.
func NewRedisNotifier(rdb Publisher, channel string, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel, logger: logger}
}

type eventOutcome struct {
	Source          string  `json:"source"`
	Outcome         string  `json:"outcome"`
	Jobs            int     `json:"jobs"`
	DurationSeconds float64 `json:"duration_seconds"`
	Message         string  `json:"message,omitempty"`
}

type eventJob struct {
	Company  string `json:"company"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
	URL      string `json:"url"`
}

type runEvent struct {
	Type          string         `json:"type"`
	RunID         string         `json:"runId"`
	Status        string         `json:"status"`
	Aborted       bool           `json:"aborted"`
	StartedAt     time.Time      `json:"startedAt"`
	FinishedAt    time.Time      `json:"finishedAt"`
	FirstRun      bool           `json:"firstRun"`
	PreviousCount int            `json:"previousCount"`
	CurrentCount  int            `json:"currentCount"`
	Added         int            `json:"added"`
	Removed       int            `json:"removed"`
	Outcomes      []eventOutcome `json:"outcomes"`
	NewJobs       []eventJob     `json:"newJobs"`
}

func newRunEvent(s model.RunSummary) runEvent {
	ev := runEvent{
		Type:          EventRunCompleted,
		RunID:         s.RunID,
		Status:        string(s.Status),
		Aborted:       s.Aborted,
		StartedAt:     s.StartedAt.UTC(),
		FinishedAt:    s.FinishedAt.UTC(),
		FirstRun:      s.FirstRun,
		PreviousCount: s.PreviousCount,
		CurrentCount:  s.CurrentCount,
		Added:         s.Added,
		Removed:       s.Removed,
		Outcomes:      make([]eventOutcome, 0, len(s.Outcomes)),
		NewJobs:       make([]eventJob, 0, len(s.NewJobs)),
	}
	for _, o := range s.Outcomes {
		ev.Outcomes = append(ev.Outcomes, eventOutcome{
			Source:          o.SourceID,
			Outcome:         string(o.Kind),
			Jobs:            o.JobCount,
			DurationSeconds: o.Duration.Seconds(),
			Message:         o.Message,
		})
	}
	for _, j := range s.NewJobs {
		ev.NewJobs = append(ev.NewJobs, eventJob{Company: j.CompanyName, Title: j.JobTitle, Location: j.Location, URL: j.JobLink})
	}
	return ev
}

// Notify publishes the run event. It reports how many subscribers got it.
func (n *RedisNotifier) Notify(ctx context.Context, s model.RunSummary) error {
	payload, err := json.Marshal(newRunEvent(s))
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	receivers, err := n.rdb.Publish(ctx, n.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish %s on %s: %w", EventRunCompleted, n.channel, err)
	}
	n.logger.Info("run event published", "channel", n.channel, "run_id", s.RunID, "receivers", receivers)
	return nil
}
