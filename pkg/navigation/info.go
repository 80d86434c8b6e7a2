package navigation

import "github.com/unklstewy/shipnav/pkg/coordinates"

// Status is the terminal state of a run.
type Status string

const (
	// StatusArrived means the ship ended within epsilon of the destination.
	StatusArrived Status = "arrived"

	// StatusExhausted means the N+K step budget ran out first.
	StatusExhausted Status = "exhausted"
)

// TrajectoryInfo summarizes a finished run.
// It references the slices produced by the engine and does not copy them;
// callers must treat both trajectories as read-only.
type TrajectoryInfo struct {
	// ShipTrajectory holds the ship positions, starting at the origin
	ShipTrajectory []coordinates.V2 `json:"ship_trajectory"`

	// DestinationTrajectory holds the destination positions.
	// For a fixed destination it holds the same point twice (start and end).
	DestinationTrajectory []coordinates.V2 `json:"destination_trajectory"`

	// Tau is the time step of the run
	Tau float64 `json:"tau"`

	// Status is arrived or exhausted
	Status Status `json:"status"`
}

// NewTrajectoryInfo wraps engine output (or stored samples) in a summary.
func NewTrajectoryInfo(ship, destination []coordinates.V2, tau float64, status Status) *TrajectoryInfo {
	return &TrajectoryInfo{
		ShipTrajectory:        ship,
		DestinationTrajectory: destination,
		Tau:                   tau,
		Status:                status,
	}
}

// ShipStart returns the first ship position.
func (t *TrajectoryInfo) ShipStart() coordinates.V2 {
	return first(t.ShipTrajectory)
}

// ShipEnd returns the last ship position.
func (t *TrajectoryInfo) ShipEnd() coordinates.V2 {
	return last(t.ShipTrajectory)
}

// DestinationStart returns the first destination position.
func (t *TrajectoryInfo) DestinationStart() coordinates.V2 {
	return first(t.DestinationTrajectory)
}

// DestinationEnd returns the last destination position.
func (t *TrajectoryInfo) DestinationEnd() coordinates.V2 {
	return last(t.DestinationTrajectory)
}

// TotalTime returns Tau times the number of ship samples.
// The initial sample is counted, matching the reported run time.
func (t *TrajectoryInfo) TotalTime() float64 {
	return t.Tau * float64(len(t.ShipTrajectory))
}

// Steps returns how many guidance steps were taken.
func (t *TrajectoryInfo) Steps() int {
	if len(t.ShipTrajectory) == 0 {
		return 0
	}
	return len(t.ShipTrajectory) - 1
}

// FinalDistance returns the distance between the last ship and destination positions.
func (t *TrajectoryInfo) FinalDistance() float64 {
	return coordinates.Distance(t.ShipEnd(), t.DestinationEnd())
}

func first(vs []coordinates.V2) coordinates.V2 {
	if len(vs) == 0 {
		return coordinates.V2{}
	}
	return vs[0]
}

func last(vs []coordinates.V2) coordinates.V2 {
	if len(vs) == 0 {
		return coordinates.V2{}
	}
	return vs[len(vs)-1]
}
