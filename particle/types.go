// Package particle implements the AMCL sample set: double-buffered particle
// storage, adaptive KLD resampling, cluster statistics and the slow/fast
// recovery weights that drive random-pose injection.
package particle

import "amcl-go/pose"

// Sample is one hypothesis: a pose and its weight.
type Sample struct {
	Pose   pose.Vector
	Weight float64
}

// Cluster is a connected group of samples in discretized pose space, with
// weighted first and second moments accumulated for its mean and covariance.
type Cluster struct {
	Weight      float64
	Mean        pose.Vector
	Cov         pose.Matrix
	MemberCount int

	sumW      float64
	sumX      float64
	sumY      float64
	sumXX     float64
	sumYY     float64
	sumXY     float64
	sumCosYaw float64
	sumSinYaw float64
}

// Set is one generation of the particle population: its samples, whether it
// has converged, its weighted mean/covariance and its clusters.
type Set struct {
	Samples   []Sample
	Converged bool
	Mean      pose.Vector
	Cov       pose.Matrix
	Clusters  []Cluster
}

func (s *Set) totalWeight() float64 {
	total := 0.0
	for _, sm := range s.Samples {
		total += sm.Weight
	}
	return total
}
