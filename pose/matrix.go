package pose

import "math"

// Matrix is a 3x3 real matrix, used as a pose covariance (real, symmetric,
// positive-semidefinite) or as scratch for eigendecomposition.
type Matrix [3][3]float64

// ZeroMatrix returns the additive identity.
func ZeroMatrix() Matrix { return Matrix{} }

// IdentityMatrix returns the 3x3 identity.
func IdentityMatrix() Matrix {
	return Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Add returns m+o.
func (m Matrix) Add(o Matrix) Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j] + o[i][j]
		}
	}
	return out
}

// Scale returns m*s.
func (m Matrix) Scale(s float64) Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j] * s
		}
	}
	return out
}

// Symmetrize returns (m+m^T)/2.
func (m Matrix) Symmetrize() Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = 0.5 * (m[i][j] + m[j][i])
		}
	}
	return out
}

// Trace returns the sum of the diagonal.
func (m Matrix) Trace() float64 {
	return m[0][0] + m[1][1] + m[2][2]
}

// EigenDecomposition holds ascending eigenvalues and their matched
// eigenvectors (columns of Vectors).
type EigenDecomposition struct {
	Values  [3]float64
	Vectors Matrix
}

// Eigen computes the eigendecomposition of a symmetric 3x3 matrix via
// Householder tridiagonalization followed by the implicit-shift QL
// algorithm, mirroring the classical JAMA tred2/tql2 routines. Eigenvalues
// are returned ascending with matched eigenvectors. A matrix that fails to
// converge (should not happen for a well-formed symmetric input) yields the
// identity decomposition with eigenvalues 0.
func Eigen(a Matrix) EigenDecomposition {
	const n = 3
	v := a
	var d, e [3]float64

	tred2(&v, &d, &e)
	if !tql2(&v, &d, &e) {
		return EigenDecomposition{Values: [3]float64{0, 0, 0}, Vectors: IdentityMatrix()}
	}
	return EigenDecomposition{Values: d, Vectors: v}
}

func hypot2(x, y float64) float64 { return math.Hypot(x, y) }

// tred2 performs symmetric Householder reduction to tridiagonal form.
// v is overwritten with the accumulated orthogonal transform, d receives
// the diagonal and e the subdiagonal of the tridiagonal form.
func tred2(v *Matrix, d, e *[3]float64) {
	const n = 3
	for j := 0; j < n; j++ {
		d[j] = v[n-1][j]
	}

	for i := n - 1; i > 0; i-- {
		scale := 0.0
		h := 0.0
		for k := 0; k < i; k++ {
			scale += math.Abs(d[k])
		}
		if scale == 0.0 {
			e[i] = d[i-1]
			for j := 0; j < i; j++ {
				d[j] = v[i-1][j]
				v[i][j] = 0.0
				v[j][i] = 0.0
			}
		} else {
			for k := 0; k < i; k++ {
				d[k] /= scale
				h += d[k] * d[k]
			}
			f := d[i-1]
			g := math.Sqrt(h)
			if f > 0 {
				g = -g
			}
			e[i] = scale * g
			h = h - f*g
			d[i-1] = f - g
			for j := 0; j < i; j++ {
				e[j] = 0.0
			}
			for j := 0; j < i; j++ {
				f = d[j]
				v[j][i] = f
				g = e[j] + v[j][j]*f
				for k := j + 1; k <= i-1; k++ {
					g += v[k][j] * d[k]
					e[k] += v[k][j] * f
				}
				e[j] = g
			}
			f = 0.0
			for j := 0; j < i; j++ {
				e[j] /= h
				f += e[j] * d[j]
			}
			hh := f / (h + h)
			for j := 0; j < i; j++ {
				e[j] -= hh * d[j]
			}
			for j := 0; j < i; j++ {
				f = d[j]
				g = e[j]
				for k := j; k <= i-1; k++ {
					v[k][j] -= f*e[k] + g*d[k]
				}
				d[j] = v[i-1][j]
				v[i][j] = 0.0
			}
		}
		d[i] = h
	}

	for i := 0; i < n-1; i++ {
		v[n-1][i] = v[i][i]
		v[i][i] = 1.0
		h := d[i+1]
		if h != 0.0 {
			for k := 0; k <= i; k++ {
				d[k] = v[k][i+1] / h
			}
			for j := 0; j <= i; j++ {
				g := 0.0
				for k := 0; k <= i; k++ {
					g += v[k][i+1] * v[k][j]
				}
				for k := 0; k <= i; k++ {
					v[k][j] -= g * d[k]
				}
			}
		}
		for k := 0; k <= i; k++ {
			v[k][i+1] = 0.0
		}
	}
	for j := 0; j < n; j++ {
		d[j] = v[n-1][j]
		v[n-1][j] = 0.0
	}
	v[n-1][n-1] = 1.0
	e[0] = 0.0
}

// tql2 runs the symmetric tridiagonal implicit-shift QL algorithm in place
// on d (diagonal), e (subdiagonal) and v (eigenvector accumulator), sorting
// the result ascending. Returns false if an iteration limit is exceeded.
func tql2(v *Matrix, d, e *[3]float64) bool {
	const n = 3
	for i := 1; i < n; i++ {
		e[i-1] = e[i]
	}
	e[n-1] = 0.0

	f := 0.0
	tst1 := 0.0
	eps := math.Pow(2.0, -52.0)
	for l := 0; l < n; l++ {
		tst1 = math.Max(math.Abs(d[l])+math.Abs(e[l]), tst1)
		m := l
		for m < n {
			if math.Abs(e[m]) <= eps*tst1 {
				break
			}
			m++
		}

		if m > l {
			iter := 0
			for {
				iter++
				if iter > 100 {
					return false
				}

				g := d[l]
				p := (d[l+1] - g) / (2.0 * e[l])
				r := hypot2(p, 1.0)
				if p < 0 {
					r = -r
				}
				d[l] = e[l] / (p + r)
				d[l+1] = e[l] * (p + r)
				dl1 := d[l+1]
				h := g - d[l]
				for i := l + 2; i < n; i++ {
					d[i] -= h
				}
				f += h

				p = d[m]
				c := 1.0
				c2 := c
				c3 := c
				el1 := e[l+1]
				s := 0.0
				s2 := 0.0
				for i := m - 1; i >= l; i-- {
					c3 = c2
					c2 = c
					s2 = s
					g = c * e[i]
					h = c * p
					r = hypot2(p, e[i])
					e[i+1] = s * r
					s = e[i] / r
					c = p / r
					p = c*d[i] - s*g
					d[i+1] = h + s*(c*g+s*d[i])

					for k := 0; k < n; k++ {
						h = v[k][i+1]
						v[k][i+1] = s*v[k][i] + c*h
						v[k][i] = c*v[k][i] - s*h
					}
				}
				p = -s * s2 * c3 * el1 * e[l] / dl1
				e[l] = s * p
				d[l] = c * p

				if math.Abs(e[l]) <= eps*tst1 {
					break
				}
			}
		}
		d[l] += f
		e[l] = 0.0
	}

	for i := 0; i < n-1; i++ {
		k := i
		p := d[i]
		for j := i + 1; j < n; j++ {
			if d[j] < p {
				k = j
				p = d[j]
			}
		}
		if k != i {
			d[k] = d[i]
			d[i] = p
			for j := 0; j < n; j++ {
				p = v[j][i]
				v[j][i] = v[j][k]
				v[j][k] = p
			}
		}
	}
	return true
}
