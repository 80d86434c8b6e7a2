// Package monitor shows a running sweep in the terminal.
package monitor

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/shipnav/internal/db"
	"github.com/unklstewy/shipnav/internal/sweep"
	"github.com/unklstewy/shipnav/pkg/navigation"
)

// How many finished jobs the recent list shows
const recentRows = 10

const barWidth = 40

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	barFullStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	barRestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))

	statusStyles = map[navigation.Status]lipgloss.Style{
		navigation.StatusArrived:   lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		navigation.StatusExhausted: lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
	}
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type eventMsg sweep.Event

type closedMsg struct{}

type finishedMsg struct {
	outcome *sweep.Outcome
	err     error
}

// Model is the bubbletea model of a sweep in progress.
type Model struct {
	title  string
	events <-chan sweep.Event
	cancel context.CancelFunc

	total  int
	done   int
	counts map[navigation.Status]int
	recent []sweep.Result

	finished bool
	outcome  *sweep.Outcome
	err      error
}

// New creates a model reading events until the channel is closed.
// cancel is called when the user quits before the sweep finishes.
func New(title string, total int, events <-chan sweep.Event, cancel context.CancelFunc) Model {
	return Model{
		title:  title,
		events: events,
		cancel: cancel,
		total:  total,
		counts: make(map[navigation.Status]int),
	}
}

func waitForEvent(events <-chan sweep.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.finished && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case eventMsg:
		m.done = msg.Done
		if msg.Total > 0 {
			m.total = msg.Total
		}
		m.counts[msg.Result.Status()]++

		m.recent = append(m.recent, msg.Result)
		if len(m.recent) > recentRows {
			m.recent = m.recent[len(m.recent)-recentRows:]
		}
		return m, waitForEvent(m.events)

	case closedMsg:
		return m, nil

	case finishedMsg:
		m.finished = true
		m.outcome = msg.outcome
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(m.title))
	s.WriteString("\n\n")

	s.WriteString(m.renderProgress())
	s.WriteString("\n\n")

	fmt.Fprintf(&s, "%s %s  %s %s  %s %s\n\n",
		statusStyles[navigation.StatusArrived].Render("arrived"), fmt.Sprint(m.counts[navigation.StatusArrived]),
		statusStyles[navigation.StatusExhausted].Render("exhausted"), fmt.Sprint(m.counts[navigation.StatusExhausted]),
		failedStyle.Render("failed"), fmt.Sprint(m.counts[db.StatusFailed]))

	s.WriteString(m.renderRecent())

	if m.finished {
		s.WriteString("\n")
		s.WriteString(m.renderSummary())
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("Q: Quit"))
	} else {
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("Q: Cancel sweep"))
	}
	s.WriteString("\n")

	return s.String()
}

func (m Model) renderProgress() string {
	frac := 0.0
	if m.total > 0 {
		frac = float64(m.done) / float64(m.total)
	}
	full := int(frac * barWidth)
	if full > barWidth {
		full = barWidth
	}

	return fmt.Sprintf("%s%s %d/%d",
		barFullStyle.Render(strings.Repeat("█", full)),
		barRestStyle.Render(strings.Repeat("░", barWidth-full)),
		m.done, m.total)
}

func (m Model) renderRecent() string {
	var list strings.Builder

	list.WriteString(headerStyle.Render("Recent runs:"))
	list.WriteString("\n")

	if len(m.recent) == 0 {
		list.WriteString(helpStyle.Render("  waiting for the first run"))
		list.WriteString("\n")
		return list.String()
	}

	for _, r := range m.recent {
		status := r.Status()
		style, ok := statusStyles[status]
		if !ok {
			style = failedStyle
		}

		line := fmt.Sprintf("  #%-4d fi=%-8.4f", r.Job.Index, r.Job.Bearing)
		if r.Job.Seed != nil {
			line += fmt.Sprintf(" seed=%-6d", *r.Job.Seed)
		}
		line += " " + style.Render(fmt.Sprintf("%-9s", status))

		if r.Info != nil {
			line += fmt.Sprintf(" steps=%-6d T=%-10.4f d=%.3g", r.Info.Steps(), r.Info.TotalTime(), r.Info.FinalDistance())
		} else if r.Err != nil {
			line += " " + errStyle.Render(r.Err.Error())
		}

		list.WriteString(line)
		list.WriteString("\n")
	}
	return list.String()
}

func (m Model) renderSummary() string {
	if m.err != nil {
		return errStyle.Render(fmt.Sprintf("Sweep stopped: %v", m.err))
	}
	if m.outcome == nil {
		return ""
	}

	s := m.outcome.Summary
	return headerStyle.Render("Summary: ") + fmt.Sprintf(
		"%d runs, mean total time %.4f, mean final distance %.4g",
		s.Total, s.MeanTotalTime, s.MeanFinalDistance)
}
