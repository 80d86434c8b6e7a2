package coordinates

import (
	"fmt"
	"math"
	"strconv"
)

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi
)

// V2 is a point (or displacement) in the navigation plane.
// The plane uses a flat Cartesian frame: X1 runs along the stream,
// X2 runs across it. The drift field depends only on X2.
//
// V2 is a plain value. Copies never alias, so a trajectory slice
// holds an independent snapshot per sample.
type V2 struct {
	// X1 is the along-stream coordinate
	X1 float64 `json:"x1"`

	// X2 is the cross-stream coordinate
	X2 float64 `json:"x2"`
}

// NewV2 builds a vector from its two components.
func NewV2(x1, x2 float64) V2 {
	return V2{X1: x1, X2: x2}
}

// Add returns v + o.
func (v V2) Add(o V2) V2 {
	return V2{X1: v.X1 + o.X1, X2: v.X2 + o.X2}
}

// Sub returns v - o.
func (v V2) Sub(o V2) V2 {
	return V2{X1: v.X1 - o.X1, X2: v.X2 - o.X2}
}

// Scale returns v * k.
func (v V2) Scale(k float64) V2 {
	return V2{X1: v.X1 * k, X2: v.X2 * k}
}

// Norm returns the Euclidean length of v.
func (v V2) Norm() float64 {
	return math.Hypot(v.X1, v.X2)
}

// IsFinite reports whether both components are finite numbers.
func (v V2) IsFinite() bool {
	return !math.IsNaN(v.X1) && !math.IsInf(v.X1, 0) &&
		!math.IsNaN(v.X2) && !math.IsInf(v.X2, 0)
}

// String formats the vector as "(x1;x2)".
// Components use the shortest representation that round-trips.
func (v V2) String() string {
	return fmt.Sprintf("(%s;%s)",
		strconv.FormatFloat(v.X1, 'g', -1, 64),
		strconv.FormatFloat(v.X2, 'g', -1, 64))
}
