package particle

import "sort"

// buildCDF returns the cumulative sum of sample weights, cdf[i] holding the
// sum of weights of samples[0..i]. Samples are assumed already normalized to
// sum to 1, so cdf[len-1] is 1 (up to floating point error).
func buildCDF(samples []Sample) []float64 {
	cdf := make([]float64, len(samples))
	acc := 0.0
	for i, s := range samples {
		acc += s.Weight
		cdf[i] = acc
	}
	return cdf
}

// drawAncestor picks an index into cdf according to the filter's configured
// resample model. Multinomial draws an independent uniform each call;
// systematic advances a single stratified pointer, stepping by 1/MaxParticles
// so that draws are spread evenly across the weight mass regardless of how
// many are ultimately taken.
func (f *Filter) drawAncestor(cdf []float64, drawn int) int {
	n := len(cdf)
	if n == 0 {
		return 0
	}
	var target float64
	switch f.resampleModel {
	case Systematic:
		target = f.sysU
		f.sysU += 1.0 / float64(f.MaxParticles)
		if f.sysU > 1.0 {
			f.sysU -= 1.0
		}
	default:
		target = f.rng.Float64()
	}
	idx := sort.Search(n, func(i int) bool { return cdf[i] >= target })
	if idx >= n {
		idx = n - 1
	}
	return idx
}
