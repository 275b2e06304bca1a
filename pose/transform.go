package pose

import "math"

// Compose treats a and b as SE(2) transforms and returns their composition
// a∘b: the transform equivalent to applying b's frame first, then a's.
// Matches homogeneous-matrix multiplication H(a)*H(b) and is associative.
func Compose(a, b Vector) Vector {
	cs, sn := math.Cos(a.Yaw), math.Sin(a.Yaw)
	return Vector{
		X:   a.X + cs*b.X - sn*b.Y,
		Y:   a.Y + sn*b.X + cs*b.Y,
		Yaw: Normalize(a.Yaw + b.Yaw),
	}
}

// Inverse returns the SE(2) inverse of v, such that Compose(v, Inverse(v))
// and Compose(Inverse(v), v) are both the identity transform.
func Inverse(v Vector) Vector {
	cs, sn := math.Cos(-v.Yaw), math.Sin(-v.Yaw)
	return Vector{
		X:   -(cs*v.X - sn*v.Y),
		Y:   -(sn*v.X + cs*v.Y),
		Yaw: Normalize(-v.Yaw),
	}
}

// TransformBetween returns the transform T such that Compose(T, from) ==
// to, i.e. T = to ∘ Inverse(from). Used to derive the map→odom correction
// from a filter pose estimate (map frame) and the paired odometry pose
// (odom frame).
func TransformBetween(to, from Vector) Vector {
	return Compose(to, Inverse(from))
}
