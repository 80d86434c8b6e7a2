package navigation

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unklstewy/shipnav/pkg/coordinates"
)

func constant(c float64) DriftFunc {
	return func(float64) float64 { return c }
}

// TestTrajectory covers the fixed-destination engine.
func TestTrajectory(t *testing.T) {
	t.Run("Still water run ends within epsilon of the destination", func(t *testing.T) {
		ship, err := Trajectory(constant(1), 0, 2, 10, math.Pi/3, 1000, 1, 0.01)
		require.NoError(t, err)

		dest := coordinates.NewV2(10*math.Cos(math.Pi/3), 10*math.Sin(math.Pi/3))
		assert.Equal(t, coordinates.V2{}, ship[0])
		assert.LessOrEqual(t, len(ship), 1002)
		assert.LessOrEqual(t, coordinates.Distance(ship[len(ship)-1], dest), 0.01)
	})

	t.Run("Constant stream run arrives or exhausts its budget", func(t *testing.T) {
		ship, err := Trajectory(constant(1), 1, 2, 2, 0, 10, 1000, 0.01)
		require.NoError(t, err)

		end := ship[len(ship)-1]
		if coordinates.Distance(end, coordinates.NewV2(2, 0)) > 0.01 {
			assert.Len(t, ship, 1011)
		}
		for i, p := range ship {
			assert.Zero(t, p.X2, "sample %d left the x1 axis", i)
		}
	})

	t.Run("Zero drift moves in a straight line at ship speed", func(t *testing.T) {
		ship, err := Trajectory(constant(0), 3, 2, 10, 0, 1000, 1, 0.01)
		require.NoError(t, err)

		vtau := 2 * (10.0 / (2 * 1000))
		for i := 1; i < len(ship); i++ {
			assert.Zero(t, ship[i].X2)
			assert.Greater(t, ship[i].X1, ship[i-1].X1)
			assert.InDelta(t, vtau, coordinates.Distance(ship[i-1], ship[i]), 1e-9)
		}
	})

	t.Run("Identical inputs give identical trajectories", func(t *testing.T) {
		f := func(x2 float64) float64 { return 1 - x2*x2/100 }
		a, err := Trajectory(f, 0.5, 2, 10, math.Pi/4, 500, 50, 0.05)
		require.NoError(t, err)
		b, err := Trajectory(f, 0.5, 2, 10, math.Pi/4, 500, 50, 0.05)
		require.NoError(t, err)

		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("trajectories differ (-first +second):\n%s", diff)
		}
	})

	t.Run("Generation stops at the first arriving sample", func(t *testing.T) {
		dest := coordinates.FromPolar(10, math.Pi/6)
		ship, err := Trajectory(constant(1), 0.3, 2, 10, math.Pi/6, 1000, 200, 0.05)
		require.NoError(t, err)

		for i := 0; i < len(ship)-1; i++ {
			assert.Greater(t, coordinates.Distance(ship[i], dest), 0.05, "sample %d already arrived", i)
		}
	})

	t.Run("Epsilon covering the destination takes no steps", func(t *testing.T) {
		ship, err := Trajectory(constant(1), 1, 2, 10, 0, 100, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []coordinates.V2{{}}, ship)
	})

	t.Run("Step cap bounds the length", func(t *testing.T) {
		ship, err := Trajectory(constant(1), 5, 1, 10, math.Pi/2, 1, 0, 0.01)
		require.NoError(t, err)
		assert.Len(t, ship, 2)
	})
}

// TestTrajectoryErrors covers parameter validation and step failures.
func TestTrajectoryErrors(t *testing.T) {
	tests := []struct {
		name    string
		f       DriftFunc
		s0, v   float64
		l, fi   float64
		n, k    int
		epsilon float64
		want    error
	}{
		{"Zero ship speed", constant(1), 0, 0, 10, 0, 10, 0, 0.1, ErrInvalidParameter},
		{"Negative ship speed", constant(1), 0, -1, 10, 0, 10, 0, 0.1, ErrInvalidParameter},
		{"Zero steps", constant(1), 0, 1, 10, 0, 0, 0, 0.1, ErrInvalidParameter},
		{"Negative extra steps", constant(1), 0, 1, 10, 0, 10, -1, 0.1, ErrInvalidParameter},
		{"Zero distance", constant(1), 0, 1, 0, 0, 10, 0, 0.1, ErrInvalidParameter},
		{"Negative epsilon", constant(1), 0, 1, 10, 0, 10, 0, -0.1, ErrInvalidParameter},
		{"NaN stream speed", constant(1), math.NaN(), 1, 10, 0, 10, 0, 0.1, ErrInvalidParameter},
		{"Infinite bearing", constant(1), 0, 1, 10, math.Inf(1), 10, 0, 0.1, ErrInvalidParameter},
		{"Nil drift function", nil, 0, 1, 10, 0, 10, 0, 0.1, ErrInvalidParameter},
		{"Drift returns NaN", constant(math.NaN()), 1, 1, 10, 0, 10, 0, 0.1, ErrDriftFunction},
		{"Drift undefined away from the start", func(x2 float64) float64 {
			if x2 > 1 {
				return math.Inf(1)
			}
			return 0
		}, 1, 1, 10, math.Pi / 2, 100, 0, 0.1, ErrDriftFunction},
		{"Drift panics", func(float64) float64 { panic("boom") }, 1, 1, 10, 0, 10, 0, 0.1, ErrDriftFunction},
		// s0*f*tau equals the full offset, so the corrected offset is zero.
		{"Degenerate corrected offset", constant(1), 1, 1, 1, 0, 1, 0, 0, ErrDegenerateStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ship, err := Trajectory(tt.f, tt.s0, tt.v, tt.l, tt.fi, tt.n, tt.k, tt.epsilon)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, ship)
		})
	}

	t.Run("Step failures carry the step index", func(t *testing.T) {
		_, err := Trajectory(constant(1), 1, 1, 1, 0, 1, 0, 0)

		var stepErr *StepError
		require.True(t, errors.As(err, &stepErr))
		assert.Equal(t, 0, stepErr.Step)
		assert.Equal(t, coordinates.V2{}, stepErr.Position)
	})
}

// TestTrajectoryShip covers the fixed-destination summary.
func TestTrajectoryShip(t *testing.T) {
	p := Params{S0: 0.2, V: 2, L: 10, Fi: math.Pi / 3, N: 1000, K: 500, Epsilon: 0.01}

	info, err := TrajectoryShip(constant(1), p)
	require.NoError(t, err)

	dest := p.Destination()
	assert.Equal(t, []coordinates.V2{dest, dest}, info.DestinationTrajectory)
	assert.Equal(t, coordinates.V2{}, info.ShipStart())
	assert.Equal(t, dest, info.DestinationStart())
	assert.Equal(t, dest, info.DestinationEnd())
	assert.InDelta(t, p.Tau(), info.Tau, 0)
	assert.InDelta(t, info.Tau*float64(len(info.ShipTrajectory)), info.TotalTime(), 1e-12)
	assert.Equal(t, StatusArrived, info.Status)
	assert.LessOrEqual(t, info.FinalDistance(), p.Epsilon)

	ship, err := Trajectory(constant(1), p.S0, p.V, p.L, p.Fi, p.N, p.K, p.Epsilon)
	require.NoError(t, err)
	assert.Equal(t, ship, info.ShipTrajectory)
}

// TestTrajectoryShipAndDestination covers the moving-destination engine.
func TestTrajectoryShipAndDestination(t *testing.T) {
	base := PursuitParams{
		Params:       Params{S0: 0.5, V: 2, L: 10, Fi: math.Pi / 3, N: 200, K: 50, Epsilon: 0.05},
		VDestination: 0.5,
		AMin:         0,
		AMax:         2 * math.Pi,
	}

	t.Run("Trajectories grow together", func(t *testing.T) {
		info, err := TrajectoryShipAndDestination(constant(1), base, NewLockedSource(7))
		require.NoError(t, err)

		assert.Equal(t, len(info.ShipTrajectory), len(info.DestinationTrajectory))
		assert.Equal(t, coordinates.V2{}, info.ShipStart())
		assert.Equal(t, base.Destination(), info.DestinationStart())
		assert.LessOrEqual(t, len(info.ShipTrajectory), base.MaxSteps()+1)
		assert.InDelta(t, base.Tau(), info.Tau, 0)
	})

	t.Run("Same seed reproduces the run", func(t *testing.T) {
		a, err := TrajectoryShipAndDestination(constant(1), base, NewLockedSource(42))
		require.NoError(t, err)
		b, err := TrajectoryShipAndDestination(constant(1), base, NewLockedSource(42))
		require.NoError(t, err)

		if diff := cmp.Diff(a.DestinationTrajectory, b.DestinationTrajectory); diff != "" {
			t.Errorf("destination trajectories differ:\n%s", diff)
		}
		if diff := cmp.Diff(a.ShipTrajectory, b.ShipTrajectory); diff != "" {
			t.Errorf("ship trajectories differ:\n%s", diff)
		}
	})

	t.Run("Different seeds move the destination differently", func(t *testing.T) {
		a, err := TrajectoryShipAndDestination(constant(1), base, NewLockedSource(1))
		require.NoError(t, err)
		b, err := TrajectoryShipAndDestination(constant(1), base, NewLockedSource(2))
		require.NoError(t, err)

		assert.False(t, cmp.Equal(a.DestinationTrajectory, b.DestinationTrajectory))
		assert.Equal(t, a.ShipStart(), b.ShipStart())
		assert.Equal(t, a.DestinationStart(), b.DestinationStart())
		assert.InDelta(t, a.Tau, b.Tau, 0)
	})

	t.Run("Destination advances before the ship steers", func(t *testing.T) {
		p := base
		p.S0 = 0
		p.AMin = math.Pi / 2
		p.AMax = math.Pi / 2

		info, err := TrajectoryShipAndDestination(constant(1), p, NewLockedSource(3))
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(info.ShipTrajectory), 2)

		tau := p.Tau()
		d1 := p.Destination().Add(coordinates.NewV2(0, p.VDestination*tau))
		assert.InDelta(t, d1.X1, info.DestinationTrajectory[1].X1, 1e-12)
		assert.InDelta(t, d1.X2, info.DestinationTrajectory[1].X2, 1e-12)

		// The first ship step points at the advanced destination.
		want := d1.Scale(p.V * tau / d1.Norm())
		assert.InDelta(t, want.X1, info.ShipTrajectory[1].X1, 1e-12)
		assert.InDelta(t, want.X2, info.ShipTrajectory[1].X2, 1e-12)
	})

	t.Run("Motionless destination stays put", func(t *testing.T) {
		p := base
		p.S0 = 0
		p.VDestination = 0

		info, err := TrajectoryShipAndDestination(constant(1), p, NewLockedSource(9))
		require.NoError(t, err)
		for _, d := range info.DestinationTrajectory {
			assert.Equal(t, p.Destination(), d)
		}
		assert.Equal(t, StatusArrived, info.Status)
	})

	t.Run("Inverted heading bounds are rejected", func(t *testing.T) {
		p := base
		p.AMin, p.AMax = 1, 0

		info, err := TrajectoryShipAndDestination(constant(1), p, NewLockedSource(1))
		assert.ErrorIs(t, err, ErrInvalidParameter)
		assert.Nil(t, info)
	})

	t.Run("Nil heading source is rejected", func(t *testing.T) {
		_, err := TrajectoryShipAndDestination(constant(1), base, nil)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("Destination drift failure is reported", func(t *testing.T) {
		f := func(x2 float64) float64 {
			if x2 > 5 {
				return math.NaN()
			}
			return 1
		}

		_, err := TrajectoryShipAndDestination(f, base, NewLockedSource(1))
		assert.ErrorIs(t, err, ErrDriftFunction)

		var stepErr *StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, 0, stepErr.Step)
	})
}
