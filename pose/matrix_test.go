package pose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func matVecMul(m Matrix, v [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i] += m[i][j] * v[j]
		}
	}
	return out
}

func TestEigenZeroMatrix(t *testing.T) {
	d := Eigen(ZeroMatrix())
	assert.Equal(t, [3]float64{0, 0, 0}, d.Values)
}

func TestEigenDiagonalAscending(t *testing.T) {
	m := Matrix{{5, 0, 0}, {0, 1, 0}, {0, 0, 3}}
	d := Eigen(m)
	assert.InDelta(t, 1, d.Values[0], 1e-9)
	assert.InDelta(t, 3, d.Values[1], 1e-9)
	assert.InDelta(t, 5, d.Values[2], 1e-9)
}

func TestEigenReconstructsSymmetricPSD(t *testing.T) {
	a := Matrix{
		{4, 1, 0.5},
		{1, 3, 0.2},
		{0.5, 0.2, 2},
	}
	d := Eigen(a)

	// V * diag(d) * V^T ~= A
	var recon Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum := 0.0
			for k := 0; k < 3; k++ {
				sum += d.Vectors[i][k] * d.Values[k] * d.Vectors[j][k]
			}
			recon[i][j] = sum
		}
	}
	maxDiff := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			diff := math.Abs(recon[i][j] - a[i][j])
			if diff > maxDiff {
				maxDiff = diff
			}
		}
	}
	assert.Less(t, maxDiff, 1e-9)

	// V^T V ~= I
	maxOrthoErr := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum := 0.0
			for k := 0; k < 3; k++ {
				sum += d.Vectors[k][i] * d.Vectors[k][j]
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			if diff := math.Abs(sum - want); diff > maxOrthoErr {
				maxOrthoErr = diff
			}
		}
	}
	assert.Less(t, maxOrthoErr, 1e-9)
}

func TestSymmetrize(t *testing.T) {
	m := Matrix{{1, 2, 3}, {0, 1, 4}, {0, 0, 1}}
	s := m.Symmetrize()
	assert.InDelta(t, 1.0, s[0][1], 1e-12)
	assert.InDelta(t, s[0][1], s[1][0], 1e-12)
}
