// Package inspect is the interactive terminal browser for sources, their
// timing history and the jobs they contributed.
package inspect

import (
	"fmt"
	"os/exec"
	"runtime"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/timing"
)

// Lines per list item (title + subtitle + blank separator).
const itemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

const (
	paneHistory = iota
	paneJobs
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	descDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	descHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	descBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func outcomeStyle(k model.OutcomeKind) lipgloss.Style {
	switch k {
	case model.OutcomeSuccess:
		return okStyle
	case "", model.OutcomeEmptySuccess, model.OutcomeRateLimited, model.OutcomeTimeout:
		return warnStyle
	}
	return failStyle
}

// View is what the browser shows for one source.
type View struct {
	Source  model.SourceConfig
	Summary timing.Summary
	History []timing.Entry // oldest first, as the tracker returns it
	Jobs    []model.JobRecord
	Live    bool // jobs come from a poll made just now, not the snapshot
}

type inspectModel struct {
	source  model.SourceConfig
	summary timing.Summary
	history []timing.Entry // newest first
	jobs    []model.JobRecord
	live    bool

	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	view            viewState
	detailJob       model.JobRecord
	detailViewport  viewport.Model
	showDescription bool

	wantQuit bool
}

func newModel(v View) inspectModel {
	history := slices.Clone(v.History)
	slices.Reverse(history)
	jobs := slices.Clone(v.Jobs)
	sortJobsByDate(jobs)
	return inspectModel{
		source:     v.Source,
		summary:    v.Summary,
		history:    history,
		jobs:       jobs,
		live:       v.Live,
		activePane: paneJobs,
	}
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m inspectModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	if m.activePane == paneHistory {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m inspectModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detailJob.JobLink)
		return m, nil
	case "r":
		if m.detailJob.Description != "" {
			m.showDescription = !m.showDescription
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *inspectModel) moveCursor(delta int) {
	if m.activePane == paneHistory {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.history)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.jobs)-1, 0))
	}
}

func (m *inspectModel) ensureCursorVisible() {
	vp, cursor := &m.leftViewport, m.leftCursor
	if m.activePane == paneJobs {
		vp, cursor = &m.rightViewport, m.rightCursor
	}

	top := cursor * itemHeight
	bottom := top + itemHeight - 1

	if top < vp.YOffset {
		vp.SetYOffset(top)
	} else if bottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(bottom - vp.Height + 1)
	}
}

// openDetailView opens the selected job. History entries have no detail.
func (m inspectModel) openDetailView() (tea.Model, tea.Cmd) {
	if m.activePane != paneJobs || len(m.jobs) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.detailJob = m.jobs[m.rightCursor]
	m.showDescription = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *inspectModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Summary (1) + header (1) + border top/bottom (2) + status bar (1).
	paneHeight := max(m.height-5, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *inspectModel) recalcContent() {
	m.leftViewport.SetContent(renderHistory(m.history, m.leftCursor, m.activePane == paneHistory))
	m.rightViewport.SetContent(renderJobs(m.jobs, m.rightCursor, m.activePane == paneJobs))
}

func (m inspectModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m inspectModel) summaryLine() string {
	s := m.summary
	if s.TotalRuns == 0 {
		return fmt.Sprintf(" %s (%s) · no history yet", m.source.Name, m.source.Type)
	}
	return fmt.Sprintf(" %s (%s) · %d calls · last %d: %.0f%% ok, avg %.1fs, %.1f jobs/s · last run %s",
		m.source.Name, m.source.Type, s.TotalRuns, s.Runs, s.SuccessRate*100,
		s.MeanDuration.Seconds(), s.MeanJobsPerSecond, humanize.Time(s.LastRun))
}

func (m inspectModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" History (%d)", len(m.history))
	jobsLabel := "Snapshot Jobs"
	if m.live {
		jobsLabel = "Live Jobs"
	}
	rightHeader := fmt.Sprintf(" %s (%d)", jobsLabel, len(m.jobs))

	leftHeaderStyle, rightHeaderStyle := activeHeaderStyle, inactiveHeaderStyle
	leftBorder, rightBorder := activeBorderStyle, inactiveBorderStyle
	if m.activePane == paneJobs {
		leftHeaderStyle, rightHeaderStyle = inactiveHeaderStyle, activeHeaderStyle
		leftBorder, rightBorder = inactiveBorderStyle, activeBorderStyle
	}

	leftPane := leftBorder.Width(paneWidth).Render(m.leftViewport.View())
	rightPane := rightBorder.Width(paneWidth).Render(m.rightViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderStyle.Render(leftHeader)),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderStyle.Render(rightHeader)),
	)
	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	statusText := " ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit"
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return itemSubtitleStyle.Render(m.summaryLine()) + "\n" + headerRow + "\n" + panes + "\n" + statusBar
}

func (m inspectModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusText := " o open URL  esc/backspace back  ↑/↓ scroll  q quit"
	if m.detailJob.Description != "" {
		statusText = " o open URL  r desc  esc/backspace back  ↑/↓ scroll  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m inspectModel) renderDetail() string {
	j := m.detailJob
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", j.JobTitle)
	addField("Company", j.CompanyName)
	addField("Location", j.Location)
	addField("Department", j.Department)
	addField("Employment", j.EmploymentType)
	addField("Remote", string(j.Remote))

	b.WriteByte('\n')
	addField("Posted", j.PostedDate)
	addField("ATS", j.ATS)
	addField("Label", j.Label)

	b.WriteByte('\n')
	addField("Job URL", j.JobLink)

	if j.Description != "" {
		wrapWidth := max(m.width-8, 20)
		b.WriteByte('\n')
		if m.showDescription {
			label := "── Job Description "
			fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
			b.WriteString(descDividerStyle.Render(label+fill) + "\n\n")
			b.WriteString(descBodyStyle.Render(wordWrap(j.Description, wrapWidth)) + "\n")
		} else {
			b.WriteString(descHintStyle.Render("  press r to read job description") + "\n")
		}
	}

	return b.String()
}

func renderHistory(entries []timing.Entry, cursor int, isActive bool) string {
	if len(entries) == 0 {
		return "  (no history)"
	}

	var b strings.Builder
	for i, e := range entries {
		titleSt, subtitleSt, prefix := itemTitleStyle, itemSubtitleStyle, "  "
		if isActive && i == cursor {
			titleSt, subtitleSt, prefix = selectedTitleStyle, selectedSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(e.Timestamp.Local().Format("2006-01-02 15:04")))
		b.WriteString("  ")
		b.WriteString(outcomeStyle(e.Outcome).Render(string(e.Outcome)))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%.1fs · %d jobs", e.Duration().Seconds(), e.JobCount)))
		b.WriteByte('\n')

		if i < len(entries)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderJobs(jobs []model.JobRecord, cursor int, isActive bool) string {
	if len(jobs) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, j := range jobs {
		titleSt, subtitleSt, prefix := itemTitleStyle, itemSubtitleStyle, "  "
		if isActive && i == cursor {
			titleSt, subtitleSt, prefix = selectedTitleStyle, selectedSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(j.JobTitle))
		b.WriteByte('\n')

		posted := j.PostedDate
		if posted == "" {
			posted = "n/a"
		}
		loc := j.Location
		if loc == "" {
			loc = "Unknown"
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s", loc, posted)))
		b.WriteByte('\n')

		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// sortJobsByDate puts the newest postings first; undated ones go last.
// Posted dates are YYYY-MM-DD, so they compare as strings.
func sortJobsByDate(jobs []model.JobRecord) {
	slices.SortStableFunc(jobs, func(a, b model.JobRecord) int {
		switch {
		case a.PostedDate == b.PostedDate:
			return 0
		case a.PostedDate == "":
			return 1
		case b.PostedDate == "":
			return -1
		}
		return strings.Compare(b.PostedDate, a.PostedDate)
	})
}

// JobsFor returns the records in recs that src contributed.
func JobsFor(recs []model.JobRecord, src model.SourceConfig) []model.JobRecord {
	company := src.Name
	if company == "" {
		company = src.ID
	}
	var out []model.JobRecord
	for _, r := range recs {
		if r.CompanyName == company {
			out = append(out, r)
		}
	}
	return out
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	if url == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunInspectTUI launches the split-pane browser for one source.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed
// esc to return to the picker.
func RunInspectTUI(v View) (bool, error) {
	p := tea.NewProgram(newModel(v), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(inspectModel)
	return final.wantQuit, nil
}
