package pose

import "math/rand"

// GaussianSample draws a zero-mean Gaussian sample with the given standard
// deviation using the sum-of-12-uniforms approximation: twelve draws from
// U(0,1), summed and shifted, approximate a unit normal, which is then
// scaled. A zero standard deviation always returns exactly 0.
func GaussianSample(rng *rand.Rand, stddev float64) float64 {
	if stddev <= 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < 12; i++ {
		sum += rng.Float64()
	}
	return stddev * (sum - 6.0)
}
