package notifier

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLogNotifier_Notify(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.Notify(context.Background(), sampleSummary()); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	out := buf.String()
	for _, want := range []string{
		"run complete", "status=some_failed", "sources_ok=1", "sources_failed=1", "added=2",
		"source failed", "source=globex", "outcome=rate_limited",
		"new job", `title="Backend Engineer"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
