package particle

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"amcl-go/pose"
)

// mahalanobisXY returns the Mahalanobis distance of p's (x,y) from mean's
// (x,y) under the 2x2 top-left block of cov, using a pseudo-inverse via SVD
// so a singular or near-singular covariance (e.g. immediately after Init)
// degrades gracefully instead of panicking, the same guard fusion/utils.go
// applies before inverting an innovation covariance.
func mahalanobisXY(p, mean pose.Vector, cov pose.Matrix) float64 {
	dx := p.X - mean.X
	dy := p.Y - mean.Y

	c := mat.NewDense(2, 2, []float64{cov[0][0], cov[0][1], cov[1][0], cov[1][1]})
	var svd mat.SVD
	if !svd.Factorize(c, mat.SVDThin) {
		return 0
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	maxS := 0.0
	for _, val := range s {
		if val > maxS {
			maxS = val
		}
	}
	tol := 1e-12 * maxS

	sigInv := mat.NewDense(len(s), len(s), nil)
	for i, val := range s {
		if val > tol {
			sigInv.Set(i, i, 1.0/val)
		}
	}
	var tmp mat.Dense
	tmp.Mul(&v, sigInv)
	var inv mat.Dense
	inv.Mul(&tmp, u.T())

	d := mat.NewVecDense(2, []float64{dx, dy})
	var scored mat.VecDense
	scored.MulVec(&inv, d)
	q := dx*scored.AtVec(0) + dy*scored.AtVec(1)
	if q < 0 {
		q = 0
	}
	return math.Sqrt(q)
}
