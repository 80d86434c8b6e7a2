package navigation

import (
	"fmt"
	"math"

	"github.com/unklstewy/shipnav/pkg/coordinates"
)

// DriftFunc maps the cross-stream coordinate x2 to a multiplier of the
// stream speed s0. The along-stream drift at x2 is s0*f(x2).
// It must be pure and defined at every x2 a run reaches.
type DriftFunc func(x2 float64) float64

// Params is the parameter bundle for a fixed-destination run.
type Params struct {
	// S0 is the stream speed scale
	S0 float64 `json:"s0"`

	// V is the ship's own speed (must be > 0)
	V float64 `json:"v"`

	// L is the initial distance to the destination (must be > 0)
	L float64 `json:"l"`

	// Fi is the initial bearing of the destination in radians
	Fi float64 `json:"fi"`

	// N is the nominal number of steps (must be > 0)
	N int `json:"n"`

	// K is the number of extra steps allowed beyond N (must be >= 0)
	K int `json:"k"`

	// Epsilon is the arrival radius (must be >= 0)
	Epsilon float64 `json:"epsilon"`
}

// PursuitParams extends Params for a run where the destination drifts
// with the stream and moves on its own at VDestination along a random
// heading drawn each step from [AMin, AMax].
type PursuitParams struct {
	Params

	// VDestination is the destination's own speed
	VDestination float64 `json:"v_destination"`

	// AMin is the lower bound of the destination heading in radians
	AMin float64 `json:"a_min"`

	// AMax is the upper bound of the destination heading in radians
	AMax float64 `json:"a_max"`
}

// Tau returns the time step l / (v * N).
func (p Params) Tau() float64 {
	return p.L / (p.V * float64(p.N))
}

// Destination returns the initial destination position (l*cos(fi), l*sin(fi)).
func (p Params) Destination() coordinates.V2 {
	return coordinates.FromPolar(p.L, p.Fi)
}

// MaxSteps returns the hard step cap N+K.
func (p Params) MaxSteps() int {
	return p.N + p.K
}

// Validate checks the parameters before any step is taken.
// All failures wrap ErrInvalidParameter.
func (p Params) Validate() error {
	if err := checkFinite(
		namedValue{"s0", p.S0},
		namedValue{"v", p.V},
		namedValue{"l", p.L},
		namedValue{"fi", p.Fi},
		namedValue{"epsilon", p.Epsilon},
	); err != nil {
		return err
	}

	if p.V <= 0 {
		return fmt.Errorf("%w: v must be positive, got %g", ErrInvalidParameter, p.V)
	}
	if p.N <= 0 {
		return fmt.Errorf("%w: n must be positive, got %d", ErrInvalidParameter, p.N)
	}
	if p.K < 0 {
		return fmt.Errorf("%w: k must not be negative, got %d", ErrInvalidParameter, p.K)
	}
	if p.L <= 0 {
		return fmt.Errorf("%w: l must be positive, got %g", ErrInvalidParameter, p.L)
	}
	if p.Epsilon < 0 {
		return fmt.Errorf("%w: epsilon must not be negative, got %g", ErrInvalidParameter, p.Epsilon)
	}

	return nil
}

// Validate checks the base parameters plus the destination motion bounds.
func (p PursuitParams) Validate() error {
	if err := p.Params.Validate(); err != nil {
		return err
	}

	if err := checkFinite(
		namedValue{"v_destination", p.VDestination},
		namedValue{"a_min", p.AMin},
		namedValue{"a_max", p.AMax},
	); err != nil {
		return err
	}

	if p.AMax < p.AMin {
		return fmt.Errorf("%w: a_max (%g) is less than a_min (%g)", ErrInvalidParameter, p.AMax, p.AMin)
	}

	return nil
}

type namedValue struct {
	name string
	val  float64
}

func checkFinite(values ...namedValue) error {
	for _, nv := range values {
		if math.IsNaN(nv.val) || math.IsInf(nv.val, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParameter, nv.name, nv.val)
		}
	}
	return nil
}
