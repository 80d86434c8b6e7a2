package coordinates

import "math"

// FromPolar converts a range and bearing into a point in the plane.
//
// Parameters:
//   - r: Distance from the origin
//   - fi: Bearing in radians, measured from the X1 axis toward X2
//
// Returns: The point (r*cos(fi), r*sin(fi))
func FromPolar(r, fi float64) V2 {
	return V2{
		X1: r * math.Cos(fi),
		X2: r * math.Sin(fi),
	}
}

// Distance returns the straight-line distance between two points.
func Distance(a, b V2) float64 {
	return b.Sub(a).Norm()
}

// Bearing returns the direction from one point to another in radians,
// measured from the X1 axis and normalized to [0, 2π).
func Bearing(from, to V2) float64 {
	d := to.Sub(from)
	return NormalizeAngle(math.Atan2(d.X2, d.X1))
}

// NormalizeAngle ensures an angle in radians is in the range [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
