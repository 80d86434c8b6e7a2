package navigation

import (
	"fmt"
	"math"

	"github.com/unklstewy/shipnav/pkg/coordinates"
)

// stepper holds the per-run constants of the steering law.
type stepper struct {
	f     DriftFunc
	s0    float64
	v     float64
	tau   float64
	vtau  float64
	vtau2 float64
}

func newStepper(f DriftFunc, p Params) stepper {
	tau := p.Tau()
	vtau := p.V * tau
	return stepper{
		f:     f,
		s0:    p.S0,
		v:     p.V,
		tau:   tau,
		vtau:  vtau,
		vtau2: vtau * vtau,
	}
}

// drift evaluates the stream speed s0*f(x2).
// A panic or a non-finite result is reported as ErrDriftFunction.
func (s stepper) drift(x2 float64) (speed float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic at x2=%g: %v", ErrDriftFunction, x2, r)
		}
	}()

	fx := s.f(x2)
	if math.IsNaN(fx) || math.IsInf(fx, 0) {
		return 0, fmt.Errorf("%w: f(%g) = %v", ErrDriftFunction, x2, fx)
	}

	return s.s0 * fx, nil
}

// steer advances the pursuer one step toward the target.
//
// The offset to the target is corrected for the drift the pursuer will
// experience during the step, then the pursuer's own velocity is pointed
// along that corrected offset:
//
//	dx1 = d.x1 - p.x1 - s0*f(p.x2)*tau
//	dx2 = d.x2 - p.x2
//	lagrangian = |dx|*vtau - vtau²
//	u = dx*vtau / (lagrangian + vtau²)
//	p.x1 += (s0*f(p.x2) + v*u.x1)*tau
//	p.x2 += u.x2*vtau
//
// f is evaluated once, at the pre-step pursuer position.
//
// Parameters:
//   - p: Pursuer position before the step
//   - d: Target position the pursuer steers toward
//
// Returns: The new pursuer position, or ErrDegenerateStep when the
// corrected offset is zero
func (s stepper) steer(p, d coordinates.V2) (coordinates.V2, error) {
	drift, err := s.drift(p.X2)
	if err != nil {
		return p, err
	}

	dx1 := d.X1 - p.X1 - drift*s.tau
	dx2 := d.X2 - p.X2

	lagrangian := math.Sqrt(dx1*dx1+dx2*dx2)*s.vtau - s.vtau2
	denom := lagrangian + s.vtau2
	if denom == 0 {
		return p, fmt.Errorf("%w: zero corrected offset", ErrDegenerateStep)
	}

	u1 := dx1 * s.vtau / denom
	u2 := dx2 * s.vtau / denom

	next := coordinates.V2{
		X1: p.X1 + (drift+s.v*u1)*s.tau,
		X2: p.X2 + u2*s.vtau,
	}
	if !next.IsFinite() {
		return p, fmt.Errorf("%w: position overflowed to %s", ErrDegenerateStep, next)
	}

	return next, nil
}

// advanceTarget moves the destination one step: stream drift along x1
// plus its own motion at speed vd along heading a.
func (s stepper) advanceTarget(d coordinates.V2, vd, a float64) (coordinates.V2, error) {
	drift, err := s.drift(d.X2)
	if err != nil {
		return d, err
	}

	next := coordinates.V2{
		X1: d.X1 + (drift+vd*math.Cos(a))*s.tau,
		X2: d.X2 + vd*math.Sin(a)*s.tau,
	}
	if !next.IsFinite() {
		return d, fmt.Errorf("%w: destination overflowed to %s", ErrDriftFunction, next)
	}

	return next, nil
}
