// Package browser is an interactive terminal browser for stored runs.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/unklstewy/shipnav/internal/db"
	"github.com/unklstewy/shipnav/internal/report"
	"github.com/unklstewy/shipnav/pkg/navigation"
)

// RunSource loads stored runs.
type RunSource interface {
	ListRuns(ctx context.Context, limit int) ([]db.RunRecord, error)
	GetRun(ctx context.Context, id uuid.UUID) (*db.RunRecord, error)
}

var tableHeaders = []string{"Created", "Kind", "Drift", "fi", "Status", "Steps", "Total time"}

// Browser shows a table of runs, the report of the selected run and its plot.
type Browser struct {
	ctx    context.Context
	source RunSource
	limit  int
	logger *zap.Logger

	// UI components
	app     *tview.Application
	table   *tview.Table
	details *tview.TextView
	plot    *TrajectoryView
	status  *tview.TextView

	mu   sync.RWMutex
	runs []db.RunRecord
}

// New creates a browser listing up to limit runs from source.
func New(ctx context.Context, source RunSource, limit int, logger *zap.Logger) *Browser {
	b := &Browser{
		ctx:    ctx,
		source: source,
		limit:  limit,
		logger: logger.Named("browser"),
	}
	b.setupUI()
	return b
}

func (b *Browser) setupUI() {
	b.app = tview.NewApplication()

	b.table = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)
	b.table.SetBorder(true).SetTitle(" Runs ")
	b.table.SetSelectionChangedFunc(func(row, _ int) {
		b.showRun(row - 1)
	})

	b.details = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	b.details.SetBorder(true).SetTitle(" Report ")

	b.plot = NewTrajectoryView()

	b.status = tview.NewTextView().SetDynamicColors(true)
	b.status.SetText("[white]↑/↓[-] select  [white]r[-] reload  [white]q/Esc[-] quit")

	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(b.plot, 0, 3, false).
		AddItem(b.details, 0, 2, false)

	body := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(b.table, 0, 2, true).
		AddItem(right, 0, 3, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(b.status, 1, 0, false)

	b.app.SetRoot(root, true)
	b.app.SetInputCapture(b.handleKeyboard)
}

func (b *Browser) handleKeyboard(event *tcell.EventKey) *tcell.EventKey {
	switch {
	case event.Key() == tcell.KeyEscape || event.Rune() == 'q':
		b.app.Stop()
		return nil
	case event.Rune() == 'r':
		if err := b.reload(); err != nil {
			b.setStatus("red", err.Error())
		}
		return nil
	}
	return event
}

// Run loads the run list and blocks until the user quits.
func (b *Browser) Run() error {
	if err := b.reload(); err != nil {
		return err
	}
	return b.app.Run()
}

func (b *Browser) reload() error {
	runs, err := b.source.ListRuns(b.ctx, b.limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	b.mu.Lock()
	b.runs = runs
	b.mu.Unlock()

	fillTable(b.table, runs)
	b.logger.Debug("Runs loaded", zap.Int("count", len(runs)))

	if len(runs) > 0 {
		b.table.Select(1, 0)
		b.showRun(0)
	} else {
		b.details.SetText("[gray]no stored runs[-]")
		b.plot.SetTrajectory(nil, nil)
	}
	return nil
}

// showRun loads the samples of the i-th listed run and shows it.
func (b *Browser) showRun(i int) {
	b.mu.RLock()
	if i < 0 || i >= len(b.runs) {
		b.mu.RUnlock()
		return
	}
	id := b.runs[i].ID
	b.mu.RUnlock()

	rec, err := b.source.GetRun(b.ctx, id)
	if err != nil {
		b.logger.Warn("Failed to load run", zap.String("run_id", id.String()), zap.Error(err))
		b.setStatus("red", fmt.Sprintf("failed to load run %s: %v", id, err))
		return
	}

	b.details.SetText(detailsText(i+1, *rec))
	b.details.ScrollToBeginning()
	b.plot.SetTrajectory(rec.Ship, rec.Destination)
	b.plot.SetTitle(fmt.Sprintf(" Trajectory %s ", shortID(rec.ID)))
}

func (b *Browser) setStatus(color, msg string) {
	b.status.SetText(fmt.Sprintf("[%s]%s[-]", color, tview.Escape(msg)))
}

// fillTable replaces the table contents with a header row and one row per run.
// Each row's first cell references the run ID.
func fillTable(table *tview.Table, runs []db.RunRecord) {
	table.Clear()

	for col, h := range tableHeaders {
		table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetAttributes(tcell.AttrBold))
	}

	for i, r := range runs {
		row := i + 1
		cells := []string{
			r.CreatedAt.Format("01-02 15:04:05"),
			r.Kind,
			r.Drift,
			fmt.Sprintf("%.4f", r.Params.Fi),
			string(r.Status),
			fmt.Sprint(r.Steps),
			fmt.Sprintf("%.4f", r.TotalTime),
		}
		for col, text := range cells {
			cell := tview.NewTableCell(tview.Escape(text)).SetExpansion(1)
			if col == 4 {
				cell.SetTextColor(statusColor(r.Status))
			}
			if col == 0 {
				cell.SetReference(r.ID)
			}
			table.SetCell(row, col, cell)
		}
	}
}

func statusColor(s navigation.Status) tcell.Color {
	switch s {
	case navigation.StatusArrived:
		return tcell.ColorGreen
	case navigation.StatusExhausted:
		return tcell.ColorYellow
	default:
		return tcell.ColorRed
	}
}

// detailsText renders the run report for the details pane.
func detailsText(n int, rec db.RunRecord) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[yellow]RUN[-] [white]%s[-]\n", rec.ID)
	if rec.SweepID.Valid {
		fmt.Fprintf(&sb, "[gray]sweep:[-] [white]%s[-]\n", rec.SweepID.UUID)
	}

	if info := rec.Info(); info != nil {
		var text strings.Builder
		if err := report.WriteReport(&text, report.RecordInput(n, rec), info); err != nil {
			fmt.Fprintf(&sb, "[red]%s[-]\n", tview.Escape(err.Error()))
		} else {
			sb.WriteString(tview.Escape(text.String()))
		}
		return sb.String()
	}

	fmt.Fprintf(&sb, "[gray]kind:[-] %s  [gray]drift:[-] %s\n", rec.Kind, tview.Escape(rec.Drift))
	fmt.Fprintf(&sb, "[gray]status:[-] [%s]%s[-]\n", statusColorName(rec.Status), rec.Status)
	if rec.Error != "" {
		fmt.Fprintf(&sb, "[red]%s[-]\n", tview.Escape(rec.Error))
	}
	return sb.String()
}

func statusColorName(s navigation.Status) string {
	switch s {
	case navigation.StatusArrived:
		return "green"
	case navigation.StatusExhausted:
		return "yellow"
	default:
		return "red"
	}
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
