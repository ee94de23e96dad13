package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/amishk599/jobsweep/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // bright blue

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

const nameWidth = 28

func kindStyle(k model.OutcomeKind) lipgloss.Style {
	switch k {
	case model.OutcomeSuccess:
		return okStyle
	case model.OutcomeEmptySuccess, model.OutcomeRateLimited, model.OutcomeTimeout:
		return warnStyle
	}
	return failStyle
}

// Console renders a compact, colored summary for the terminal.
func Console(r Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Run "+r.RunID) + "\n")
	c := r.Changes
	prev := "none (first run)"
	if !c.FirstRun() {
		prev = humanize.Comma(int64(c.PreviousCount))
	}
	fmt.Fprintf(&b, "%s %s  %s %s  %s %+d\n",
		labelStyle.Render("previous:"), prev,
		labelStyle.Render("current:"), humanize.Comma(int64(c.CurrentCount)),
		labelStyle.Render("net:"), c.NetChange)
	fmt.Fprintf(&b, "%s %d  %s %d  %s %d\n\n",
		labelStyle.Render("new:"), len(c.Added),
		labelStyle.Render("removed:"), len(c.Removed),
		labelStyle.Render("unchanged:"), c.Unchanged)

	var rows []string
	rows = append(rows, labelStyle.Render(
		runewidth.FillRight("SOURCE", nameWidth)+"  "+runewidth.FillRight("OUTCOME", 14)+"  "+
			runewidth.FillLeft("JOBS", 6)+"  "+runewidth.FillLeft("TIME", 7)))
	for _, o := range r.Outcomes {
		name := runewidth.Truncate(r.Name(o.SourceID), nameWidth, "…")
		rows = append(rows,
			runewidth.FillRight(name, nameWidth)+"  "+
				kindStyle(o.Kind).Render(runewidth.FillRight(string(o.Kind), 14))+"  "+
				runewidth.FillLeft(humanize.Comma(int64(o.JobCount)), 6)+"  "+
				runewidth.FillLeft(seconds(o.Duration), 7))
	}
	b.WriteString(boxStyle.Render(strings.Join(rows, "\n")) + "\n")

	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "%s %s\n", warnStyle.Render("skipped:"), strings.Join(r.Skipped, ", "))
	}
	if r.RecommendDelay > 0 {
		fmt.Fprintf(&b, "%s consider --delay %s\n", warnStyle.Render("throttled:"), seconds(r.RecommendDelay))
	}
	status := okStyle
	switch r.Status {
	case model.StatusSomeFailed:
		status = warnStyle
	case model.StatusAllFailed:
		status = failStyle
	}
	line := "status: " + string(r.Status)
	if r.Aborted {
		line += " (aborted)"
	}
	b.WriteString(status.Render(line) + "\n")
	return b.String()
}
