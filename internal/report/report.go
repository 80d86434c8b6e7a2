// Package report renders trajectory runs for people and for other tools.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/unklstewy/shipnav/pkg/coordinates"
	"github.com/unklstewy/shipnav/pkg/navigation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const ruler = "============================================"

// RunInput is what a run was asked to do.
type RunInput struct {
	// Run numbers reports within one session, starting at 1
	Run int `json:"run"`

	// Drift is the drift profile as the user gave it
	Drift string `json:"drift"`

	// Moving is true for the moving-destination engine
	Moving bool `json:"moving"`

	Params navigation.PursuitParams `json:"params"`

	// Seed is the heading seed of a moving run
	Seed *uint64 `json:"seed,omitempty"`
}

// WriteReport prints the run header, inputs and trajectory summary.
func WriteReport(w io.Writer, in RunInput, info *navigation.TrajectoryInfo) error {
	p := in.Params
	var b strings.Builder

	fmt.Fprintf(&b, "==========> Run %d ================\n", in.Run)
	b.WriteString("input parameters:\n")
	fmt.Fprintf(&b, "    f       = %s\n", in.Drift)
	fmt.Fprintf(&b, "    s0      = %s\n", num(p.S0))
	fmt.Fprintf(&b, "    vShip   = %s\n", num(p.V))
	fmt.Fprintf(&b, "    l       = %s\n", num(p.L))
	fmt.Fprintf(&b, "    fi      = %s\n", num(p.Fi))
	fmt.Fprintf(&b, "    epsilon = %s\n", num(p.Epsilon))
	fmt.Fprintf(&b, "    N       = %d\n", p.N)
	fmt.Fprintf(&b, "    K       = %d\n", p.K)
	if in.Moving {
		fmt.Fprintf(&b, "    vDest   = %s\n", num(p.VDestination))
		fmt.Fprintf(&b, "    aMin    = %s\n", num(p.AMin))
		fmt.Fprintf(&b, "    aMax    = %s\n", num(p.AMax))
		if in.Seed != nil {
			fmt.Fprintf(&b, "    seed    = %d\n", *in.Seed)
		}
	}
	b.WriteString("trajectory:\n")
	fmt.Fprintf(&b, "    ship trajectory start        = %s\n", info.ShipStart())
	fmt.Fprintf(&b, "    ship trajectory end          = %s\n", info.ShipEnd())
	fmt.Fprintf(&b, "    destination trajectory start = %s\n", info.DestinationStart())
	fmt.Fprintf(&b, "    destination trajectory end   = %s\n", info.DestinationEnd())
	fmt.Fprintf(&b, "    tau                          = %s\n", num(info.Tau))
	fmt.Fprintf(&b, "    total time                   = %s\n", num(info.TotalTime()))
	fmt.Fprintf(&b, "    status                       = %s\n", info.Status)
	fmt.Fprintf(&b, "    steps                        = %d\n", info.Steps())
	fmt.Fprintf(&b, "    final distance               = %s\n", num(info.FinalDistance()))
	b.WriteString(ruler + "\n\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSamples lists every ship position as "(x1;x2)" under a run header.
func WriteSamples(w io.Writer, run int, ship []coordinates.V2) error {
	var b strings.Builder

	fmt.Fprintf(&b, "==========> Run %d ================\n", run)
	for _, p := range ship {
		b.WriteString(p.String())
		b.WriteByte('\n')
	}
	b.WriteString(ruler + "\n\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WritePlain prints the sample count, then "x1 x2" per line.
// The format is easy to feed to plotting tools.
func WritePlain(w io.Writer, ship []coordinates.V2) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%d\n", len(ship))
	for _, p := range ship {
		fmt.Fprintf(&b, "%s %s\n", num(p.X1), num(p.X2))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteCSV writes one row per step with ship and destination positions.
// A fixed destination is repeated on every row.
func WriteCSV(w io.Writer, info *navigation.TrajectoryInfo) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"step", "time", "ship_x1", "ship_x2", "dest_x1", "dest_x2"}); err != nil {
		return err
	}

	moving := len(info.DestinationTrajectory) == len(info.ShipTrajectory)
	for i, p := range info.ShipTrajectory {
		d := info.DestinationEnd()
		if moving {
			d = info.DestinationTrajectory[i]
		}

		row := []string{
			strconv.Itoa(i),
			num(float64(i) * info.Tau),
			num(p.X1), num(p.X2),
			num(d.X1), num(d.X2),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// jsonRun is the JSON document for one run.
type jsonRun struct {
	Input         RunInput                   `json:"input"`
	Trajectory    *navigation.TrajectoryInfo `json:"trajectory"`
	TotalTime     float64                    `json:"total_time"`
	Steps         int                        `json:"steps"`
	FinalDistance float64                    `json:"final_distance"`
}

// WriteJSON writes the run inputs and full trajectories as indented JSON.
func WriteJSON(w io.Writer, in RunInput, info *navigation.TrajectoryInfo) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(jsonRun{
		Input:         in,
		Trajectory:    info,
		TotalTime:     info.TotalTime(),
		Steps:         info.Steps(),
		FinalDistance: info.FinalDistance(),
	})
}

// Write dispatches on format: "text", "json" or "csv".
// Text output appends the sample listing when showSamples is set.
func Write(w io.Writer, format string, in RunInput, info *navigation.TrajectoryInfo, showSamples bool) error {
	switch format {
	case "", "text":
		if err := WriteReport(w, in, info); err != nil {
			return err
		}
		if showSamples {
			return WriteSamples(w, in.Run, info.ShipTrajectory)
		}
		return nil
	case "json":
		return WriteJSON(w, in, info)
	case "csv":
		return WriteCSV(w, info)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
