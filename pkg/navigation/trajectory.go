package navigation

import (
	"fmt"

	"github.com/unklstewy/shipnav/pkg/coordinates"
)

// Trajectory computes the ship's path toward a fixed destination.
//
// The ship starts at the origin and the destination sits at
// (l*cos(fi), l*sin(fi)). Each step the ship steers against the stream
// s0*f(x2) toward the destination. The run stops as soon as the ship is
// within epsilon of the destination, and never takes more than N+K steps.
//
// Parameters:
//   - f: Drift profile across the stream
//   - s0: Stream speed scale
//   - v: Ship speed (> 0)
//   - l: Initial distance to the destination (> 0)
//   - fi: Bearing of the destination in radians
//   - n: Nominal step count (> 0), sets tau = l/(v*n)
//   - k: Extra steps allowed beyond n (>= 0)
//   - epsilon: Arrival radius (>= 0)
//
// Returns: Ship positions, first element (0,0), at most n+k+1 elements
func Trajectory(f DriftFunc, s0, v, l, fi float64, n, k int, epsilon float64) ([]coordinates.V2, error) {
	p := Params{S0: s0, V: v, L: l, Fi: fi, N: n, K: k, Epsilon: epsilon}
	ship, _, err := runFixed(f, p)
	return ship, err
}

// TrajectoryShip runs Trajectory and wraps the result in a TrajectoryInfo.
// The destination trajectory holds the fixed destination twice.
func TrajectoryShip(f DriftFunc, p Params) (*TrajectoryInfo, error) {
	ship, dest, err := runFixed(f, p)
	if err != nil {
		return nil, err
	}

	return NewTrajectoryInfo(
		ship,
		[]coordinates.V2{dest, dest},
		p.Tau(),
		statusOf(ship[len(ship)-1], dest, p.Epsilon),
	), nil
}

// TrajectoryShipAndDestination computes a pursuit of a moving destination.
//
// The destination starts at (l*cos(fi), l*sin(fi)) and each step:
//  1. draws a heading a from [AMin, AMax) using src
//  2. drifts with the stream and moves at VDestination along a
//  3. the ship then steers toward the destination's new position
//
// The arrival test at the top of each step uses the positions left by
// the previous step. Both trajectories grow by one sample per step.
//
// Parameters:
//   - f: Drift profile across the stream, applied to ship and destination
//   - p: Run parameters including the destination's speed and heading bounds
//   - src: Random heading source; share a LockedSource between goroutines
//
// Returns: A TrajectoryInfo with equal-length ship and destination trajectories
func TrajectoryShipAndDestination(f DriftFunc, p PursuitParams, src HeadingSource) (*TrajectoryInfo, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: drift function is nil", ErrInvalidParameter)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: heading source is nil", ErrInvalidParameter)
	}

	s := newStepper(f, p.Params)
	capacity := p.MaxSteps() + 1

	pos := coordinates.V2{}
	dest := p.Destination()
	ship := make([]coordinates.V2, 1, capacity)
	destinations := make([]coordinates.V2, 1, capacity)
	ship[0] = pos
	destinations[0] = dest

	for i := 0; i < p.MaxSteps() && !arrived(pos, dest, p.Epsilon); i++ {
		a := src.Uniform(p.AMin, p.AMax)

		next, err := s.advanceTarget(dest, p.VDestination, a)
		if err != nil {
			return nil, &StepError{Step: i, Position: pos, Err: err}
		}
		dest = next

		pos, err = s.steer(pos, dest)
		if err != nil {
			return nil, &StepError{Step: i, Position: pos, Err: err}
		}

		ship = append(ship, pos)
		destinations = append(destinations, dest)
	}

	return NewTrajectoryInfo(ship, destinations, s.tau, statusOf(pos, dest, p.Epsilon)), nil
}

// runFixed is the fixed-destination loop shared by Trajectory and TrajectoryShip.
func runFixed(f DriftFunc, p Params) ([]coordinates.V2, coordinates.V2, error) {
	if err := p.Validate(); err != nil {
		return nil, coordinates.V2{}, err
	}
	if f == nil {
		return nil, coordinates.V2{}, fmt.Errorf("%w: drift function is nil", ErrInvalidParameter)
	}

	s := newStepper(f, p)
	dest := p.Destination()

	pos := coordinates.V2{}
	ship := make([]coordinates.V2, 1, p.MaxSteps()+1)
	ship[0] = pos

	for i := 0; i < p.MaxSteps() && !arrived(pos, dest, p.Epsilon); i++ {
		next, err := s.steer(pos, dest)
		if err != nil {
			return nil, dest, &StepError{Step: i, Position: pos, Err: err}
		}
		pos = next
		ship = append(ship, pos)
	}

	return ship, dest, nil
}

func arrived(p, d coordinates.V2, epsilon float64) bool {
	return coordinates.Distance(p, d) <= epsilon
}

func statusOf(p, d coordinates.V2, epsilon float64) Status {
	if arrived(p, d, epsilon) {
		return StatusArrived
	}
	return StatusExhausted
}
