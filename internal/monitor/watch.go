package monitor

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/shipnav/internal/sweep"
)

// Watch runs spec on runner while showing its progress.
// The runner must have been created with sweep.WithEvents(events).
// Quitting the view early cancels the sweep.
func Watch(ctx context.Context, runner *sweep.Runner, spec sweep.Spec, events <-chan sweep.Event) (*sweep.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	title := "SHIPNAV SWEEP"
	if spec.Moving {
		title = "SHIPNAV PURSUIT SWEEP"
	}

	p := tea.NewProgram(New(title, len(spec.Jobs()), events, cancel), tea.WithAltScreen())

	type result struct {
		outcome *sweep.Outcome
		err     error
	}
	resCh := make(chan result, 1)

	go func() {
		out, err := runner.Run(ctx, spec)
		resCh <- result{out, err}
		p.Send(finishedMsg{outcome: out, err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-resCh
		return nil, err
	}

	res := <-resCh
	return res.outcome, res.err
}
