package particle

import (
	"math"
	"math/rand"

	"amcl-go/pose"
)

// ResampleModel selects the ancestor-sampling strategy used when building
// the resampled generation.
type ResampleModel int

const (
	Multinomial ResampleModel = iota
	Systematic
)

// ConvergedStdThreshold is the reference weighted-std-deviation (meters)
// below which both x and y must fall for the set to be marked converged.
const ConvergedStdThreshold = 0.05

// Filter owns the double-buffered sample sets and the recovery/KLD state
// used across resamples.
type Filter struct {
	sets    [2]Set
	current int

	MinParticles, MaxParticles int
	klEps, klZ                 float64
	alphaSlow, alphaFast       float64
	wSlow, wFast               float64
	recoveryInit               bool

	resampleModel ResampleModel
	sysU          float64

	uniformStartWeightThreshold float64
	uniformDeweightMultiplier   float64

	rng *rand.Rand
}

// SetUniformPoseDeweight configures how injected uniform (recovery) poses
// are weighted relative to resampled ancestors: a pose falling within
// threshold Mahalanobis distance of the pre-resample mean is judged
// redundant with what the ancestor draws already cover, and its
// contribution to the new generation's weight is scaled by multiplier
// before the final renormalization.
func (f *Filter) SetUniformPoseDeweight(threshold, multiplier float64) {
	f.uniformStartWeightThreshold = threshold
	f.uniformDeweightMultiplier = multiplier
}

// NewFilter builds an empty filter. rng must not be nil; callers that need
// reproducible tests should pass a seeded source.
func NewFilter(minParticles, maxParticles int, alphaSlow, alphaFast float64, rng *rand.Rand) *Filter {
	if minParticles > maxParticles {
		minParticles = maxParticles
	}
	return &Filter{
		MinParticles:              minParticles,
		MaxParticles:              maxParticles,
		alphaSlow:                 alphaSlow,
		alphaFast:                 alphaFast,
		klEps:                     0.01,
		klZ:                       0.99,
		uniformDeweightMultiplier: 1.0,
		rng:                       rng,
	}
}

// SetPopulationSizeParameters sets the KLD error bound and confidence
// quantile used by UpdateResample.
func (f *Filter) SetPopulationSizeParameters(eps, z float64) {
	f.klEps = eps
	f.klZ = z
}

// SetResampleModel selects multinomial or systematic ancestor sampling.
func (f *Filter) SetResampleModel(m ResampleModel) {
	f.resampleModel = m
}

// SetDecayRates updates the slow/fast recovery-weight decay constants.
// Global localization overrides these with aggressive values (e.g. 0.0 and
// 1.0) to force heavy random-pose injection.
func (f *Filter) SetDecayRates(alphaSlow, alphaFast float64) {
	f.alphaSlow = alphaSlow
	f.alphaFast = alphaFast
}

// CurrentSet returns the live sample set.
func (f *Filter) CurrentSet() *Set { return &f.sets[f.current] }

// Init populates MinParticles samples drawn from N(mean, cov) with uniform
// weights. Sampling uses the eigendecomposition of cov to draw correlated
// Gaussian noise: mean + V*sqrt(D)*z for three independent standard normals
// z, the classical approach to sampling a multivariate Gaussian pdf.
func (f *Filter) Init(mean pose.Vector, cov pose.Matrix) {
	eig := pose.Eigen(cov)
	n := f.MinParticles
	if n < 1 {
		n = 1
	}
	samples := make([]Sample, n)
	w := 1.0 / float64(n)
	for i := 0; i < n; i++ {
		var z [3]float64
		for k := 0; k < 3; k++ {
			z[k] = pose.GaussianSample(f.rng, 1.0)
		}
		var comp [3]float64
		for row := 0; row < 3; row++ {
			v := 0.0
			for k := 0; k < 3; k++ {
				ev := eig.Values[k]
				if ev < 0 {
					ev = 0
				}
				v += eig.Vectors[row][k] * math.Sqrt(ev) * z[k]
			}
			comp[row] = v
		}
		delta := pose.Vector{X: comp[0], Y: comp[1], Yaw: comp[2]}
		samples[i] = Sample{Pose: mean.Add(delta), Weight: w}
	}
	f.sets[f.current] = Set{Samples: samples}
	clusterStats(&f.sets[f.current])
	f.recoveryInit = false
}

// InitModel populates MinParticles samples by calling gen() repeatedly, used
// for global localization with a uniform-in-free-space generator.
func (f *Filter) InitModel(gen func() pose.Vector) {
	n := f.MinParticles
	if n < 1 {
		n = 1
	}
	samples := make([]Sample, n)
	w := 1.0 / float64(n)
	for i := 0; i < n; i++ {
		samples[i] = Sample{Pose: gen(), Weight: w}
	}
	f.sets[f.current] = Set{Samples: samples}
	clusterStats(&f.sets[f.current])
	f.recoveryInit = false
}

// UpdateResample normalizes weights, updates the slow/fast recovery
// averages, resamples adaptively via KLD sampling (injecting uniform
// free-space poses with probability w_diff when the filter appears to be
// diverging), swaps the current/scratch buffers, and recomputes cluster
// statistics and the converged flag. genUniform must return a pose drawn
// uniformly from free space; it is only called when injection fires.
func (f *Filter) UpdateResample(genUniform func() pose.Vector) {
	cur := &f.sets[f.current]
	n0 := len(cur.Samples)
	if n0 == 0 {
		return
	}

	total := cur.totalWeight()
	wAvg := total / float64(n0)
	if total > 0 {
		inv := 1.0 / total
		for i := range cur.Samples {
			cur.Samples[i].Weight *= inv
		}
	} else {
		w := 1.0 / float64(n0)
		for i := range cur.Samples {
			cur.Samples[i].Weight = w
		}
	}

	if !f.recoveryInit {
		f.wSlow = wAvg
		f.wFast = wAvg
		f.recoveryInit = true
	} else {
		f.wSlow += f.alphaSlow * (wAvg - f.wSlow)
		f.wFast += f.alphaFast * (wAvg - f.wFast)
	}
	wDiff := 0.0
	if f.wSlow > 0 {
		wDiff = 1.0 - f.wFast/f.wSlow
	}
	if wDiff < 0 {
		wDiff = 0
	}

	cdf := buildCDF(cur.Samples)
	f.sysU = f.rng.Float64() / float64(f.MaxParticles)

	scratch := &f.sets[1-f.current]
	scratch.Samples = scratch.Samples[:0]
	hist := newKLHistogram(defaultKLDBinSize)

	preMean, preCov := cur.Mean, cur.Cov

	n := 0
	weightSum := 0.0
	for {
		var next pose.Vector
		initW := 1.0
		if wDiff > 0 && genUniform != nil && f.rng.Float64() < wDiff {
			next = genUniform()
			// A recovery pose that lands close to where the filter already
			// believes it is (small Mahalanobis distance) is redundant with
			// what the ancestor draws already cover; scale its contribution
			// down instead of letting it compete equally for survival.
			if f.uniformStartWeightThreshold > 0 && mahalanobisXY(next, preMean, preCov) < f.uniformStartWeightThreshold {
				initW = f.uniformDeweightMultiplier
			}
		} else {
			idx := f.drawAncestor(cdf, n)
			next = cur.Samples[idx].Pose
		}
		scratch.Samples = append(scratch.Samples, Sample{Pose: next, Weight: initW})
		weightSum += initW
		n++

		k := hist.Insert(next)
		kTarget := math.Max(float64(f.MinParticles), kldSampleSize(k, f.klEps, f.klZ))
		if float64(n) >= kTarget {
			break
		}
		if n >= f.MaxParticles {
			break
		}
	}

	if weightSum <= 0 {
		w := 1.0 / float64(n)
		for i := range scratch.Samples {
			scratch.Samples[i].Weight = w
		}
	} else {
		inv := 1.0 / weightSum
		for i := range scratch.Samples {
			scratch.Samples[i].Weight *= inv
		}
	}

	if wDiff > 0 {
		f.wSlow = 0
		f.wFast = 0
	}

	f.current = 1 - f.current
	clusterStats(&f.sets[f.current])
	f.sets[f.current].Converged = isConverged(&f.sets[f.current])
}

func isConverged(set *Set) bool {
	if len(set.Samples) == 0 {
		return false
	}
	stdX := math.Sqrt(math.Max(set.Cov[0][0], 0))
	stdY := math.Sqrt(math.Max(set.Cov[1][1], 0))
	return stdX < ConvergedStdThreshold && stdY < ConvergedStdThreshold
}
