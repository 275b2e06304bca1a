// Package pose implements 2D pose algebra: vector/matrix operations, angle
// normalization, Gaussian sampling and symmetric 3x3 eigendecomposition,
// the numerical substrate shared by the motion model, sensor model and
// particle filter.
package pose

import "math"

// Vector is a planar pose (x, y, yaw) in meters and radians. Yaw is
// canonicalized to (-pi, pi].
type Vector struct {
	X, Y, Yaw float64
}

// Normalize maps an angle to (-pi, pi].
func Normalize(z float64) float64 {
	return math.Atan2(math.Sin(z), math.Cos(z))
}

// AngleDiff returns the signed shortest angular difference a-b, in (-pi, pi].
func AngleDiff(a, b float64) float64 {
	a = Normalize(a)
	b = Normalize(b)
	d1 := a - b
	d2 := 2*math.Pi - math.Abs(d1)
	if d1 > 0 {
		d2 *= -1.0
	}
	if math.Abs(d1) < math.Abs(d2) {
		return d1
	}
	return d2
}

// Add returns v+o with yaw summed through Normalize.
func (v Vector) Add(o Vector) Vector {
	return Vector{
		X:   v.X + o.X,
		Y:   v.Y + o.Y,
		Yaw: Normalize(v.Yaw + o.Yaw),
	}
}

// Sub returns v-o with yaw taken through AngleDiff.
func (v Vector) Sub(o Vector) Vector {
	return Vector{
		X:   v.X - o.X,
		Y:   v.Y - o.Y,
		Yaw: AngleDiff(v.Yaw, o.Yaw),
	}
}

// Norm returns the planar translation magnitude, ignoring yaw.
func (v Vector) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

// Finite reports whether every component is finite (no NaN/Inf).
func (v Vector) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Yaw) && !math.IsInf(v.Yaw, 0)
}
