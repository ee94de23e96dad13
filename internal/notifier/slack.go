package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobsweep/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// maxSlackJobs caps how many new jobs are listed in one message; Slack
// rejects messages with more than 50 blocks.
const maxSlackJobs = 15

// SlackNotifier posts a run summary to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends one Block Kit message describing the run. A 429 response is
// retried once after its Retry-After delay.
func (s *SlackNotifier) Notify(ctx context.Context, summary model.RunSummary) error {
	body, err := json.Marshal(buildPayload(summary))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		select {
		case <-ctx.Done():
			return fmt.Errorf("slack retry cancelled: %w", ctx.Err())
		case <-time.After(retryAfter):
		}

		status, _, err = s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack message sent", "run_id", summary.RunID, "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack message sent", "run_id", summary.RunID)
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style,omitempty"`
}

// SendTestMessage sends a dummy run summary to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	now := time.Now()
	return n.Notify(ctx, model.RunSummary{
		RunID:         "test-run",
		StartedAt:     now.Add(-time.Minute),
		FinishedAt:    now,
		Status:        model.StatusAllSucceeded,
		Outcomes:      []model.RunOutcome{{SourceID: "test", Kind: model.OutcomeSuccess, JobCount: 1, Duration: time.Second}},
		PreviousCount: 0,
		CurrentCount:  1,
		Added:         1,
		NewJobs: []model.JobRecord{{
			CompanyName: "jobsweep Test",
			JobTitle:    "Test Notification (Integration Verified)",
			Location:    "Everywhere",
			JobLink:     "https://example.com/jobs/test",
			Remote:      model.RemoteUnknown,
			ATS:         "test",
		}},
	})
}

var statusEmoji = map[model.RunStatus]string{
	model.StatusAllSucceeded: "✅",
	model.StatusSomeFailed:   "⚠️",
	model.StatusAllFailed:    "🛑",
}

func headline(s model.RunSummary) string {
	h := fmt.Sprintf("%s jobsweep: %d new, %d removed", statusEmoji[s.Status], s.Added, s.Removed)
	if s.FirstRun {
		h = fmt.Sprintf("%s jobsweep: first run, %d jobs", statusEmoji[s.Status], s.CurrentCount)
	}
	if s.Aborted {
		h += " (aborted)"
	}
	return h
}

func buildPayload(s model.RunSummary) slackPayload {
	ok, failed := countOutcomes(s.Outcomes)
	title := headline(s)

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Jobs:*\n%d (net %+d)", s.CurrentCount, s.CurrentCount-s.PreviousCount)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Sources:*\n%d ok, %d failed", ok, failed)},
			},
		},
	}

	if failed > 0 {
		var lines []string
		for _, o := range s.Outcomes {
			if !o.Kind.Succeeded() {
				lines = append(lines, fmt.Sprintf("• *%s*: %s", o.SourceID, o.Kind))
			}
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Problems:*\n" + strings.Join(lines, "\n")},
		})
	}

	jobs := s.NewJobs
	if len(jobs) > maxSlackJobs {
		jobs = jobs[:maxSlackJobs]
	}
	for _, j := range jobs {
		text := fmt.Sprintf("*%s*: %s", j.CompanyName, j.JobTitle)
		if j.Location != "" {
			text += "\n" + j.Location
		}
		blocks = append(blocks,
			slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: text}},
			slackBlock{
				Type: "actions",
				Elements: []slackElement{{
					Type:  "button",
					Text:  slackText{Type: "plain_text", Text: "Apply Now"},
					URL:   j.JobLink,
					Style: "primary",
				}},
			},
		)
	}
	if more := s.Added - len(jobs); more > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("_…and %d more in %s_", more, s.ReportPath)},
		})
	}

	blocks = append(blocks, slackBlock{Type: "divider"})
	return slackPayload{Text: title, Blocks: blocks}
}
