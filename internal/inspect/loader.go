package inspect

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobsweep/internal/poller"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// errCancelled is returned when the user aborts a live poll.
var errCancelled = errors.New("cancelled")

type pollDoneMsg struct {
	res poller.Result
}

type spinnerTickMsg struct{}

type loaderModel struct {
	name   string
	pollFn func(ctx context.Context) poller.Result
	frame  int
	result poller.Result
	err    error
	done   bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doPoll(), m.tick())
}

func (m loaderModel) doPoll() tea.Cmd {
	pollFn := m.pollFn
	return func() tea.Msg {
		return pollDoneMsg{res: pollFn(context.Background())}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pollDoneMsg:
		m.result = msg.res
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = errCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	return fmt.Sprintf("%s Polling %s...\n", spinner, m.name)
}

// RunLoader shows a spinner while pollFn runs. It renders inline (no alt
// screen). pollFn must bound its own duration.
func RunLoader(name string, pollFn func(ctx context.Context) poller.Result) (poller.Result, error) {
	m := loaderModel{
		name:   name,
		pollFn: pollFn,
	}
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return poller.Result{}, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
