package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unklstewy/shipnav/internal/db"
	"github.com/unklstewy/shipnav/internal/sweep"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// WriteSweep prints one row per sweep job followed by the summary.
func WriteSweep(w io.Writer, out *sweep.Outcome) error {
	t := newTable("#", "bearing", "seed", "status", "steps", "total time", "final distance")

	for _, r := range out.Results {
		seed := "-"
		if r.Job.Seed != nil {
			seed = strconv.FormatUint(*r.Job.Seed, 10)
		}

		steps, total, dist := "-", "-", "-"
		if r.Info != nil {
			steps = strconv.Itoa(r.Info.Steps())
			total = fmt.Sprintf("%.4f", r.Info.TotalTime())
			dist = fmt.Sprintf("%.4g", r.Info.FinalDistance())
		}

		t.Row(
			strconv.Itoa(r.Job.Index),
			fmt.Sprintf("%.4f", r.Job.Bearing),
			seed,
			string(r.Status()),
			steps, total, dist,
		)
	}

	s := out.Summary
	_, err := fmt.Fprintf(w, "%s\nsweep %s: %d runs, %d arrived, %d exhausted, %d failed, mean total time %.4f\n",
		t.Render(), out.SweepID, s.Total, s.Arrived, s.Exhausted, s.Failed, s.MeanTotalTime)
	return err
}

// WriteRuns prints stored runs, newest first.
func WriteRuns(w io.Writer, runs []db.RunRecord) error {
	if len(runs) == 0 {
		_, err := io.WriteString(w, "no stored runs\n")
		return err
	}

	t := newTable("id", "created", "kind", "drift", "fi", "status", "steps", "total time")
	for _, r := range runs {
		t.Row(
			r.ID.String(),
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Kind,
			r.Drift,
			fmt.Sprintf("%.4f", r.Params.Fi),
			string(r.Status),
			strconv.Itoa(r.Steps),
			fmt.Sprintf("%.4f", r.TotalTime),
		)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// RecordInput rebuilds the inputs of a stored run for WriteReport.
func RecordInput(run int, rec db.RunRecord) RunInput {
	return RunInput{
		Run:    run,
		Drift:  rec.Drift,
		Moving: rec.Kind == db.KindMoving,
		Params: rec.Params,
		Seed:   rec.Seed,
	}
}
