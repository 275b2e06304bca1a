package particle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"amcl-go/pose"
)

func TestClusterStatsSingleTightCluster(t *testing.T) {
	set := &Set{Samples: []Sample{
		{Pose: pose.Vector{X: 1.0, Y: 1.0, Yaw: 0}, Weight: 0.25},
		{Pose: pose.Vector{X: 1.01, Y: 1.0, Yaw: 0}, Weight: 0.25},
		{Pose: pose.Vector{X: 1.0, Y: 1.01, Yaw: 0}, Weight: 0.25},
		{Pose: pose.Vector{X: 1.01, Y: 1.01, Yaw: 0}, Weight: 0.25},
	}}
	clusterStats(set)
	assert.Len(t, set.Clusters, 1)
	assert.InDelta(t, 1.005, set.Mean.X, 1e-9)
	assert.InDelta(t, 1.005, set.Mean.Y, 1e-9)
}

func TestClusterStatsTwoSeparatedClusters(t *testing.T) {
	set := &Set{Samples: []Sample{
		{Pose: pose.Vector{X: 0, Y: 0, Yaw: 0}, Weight: 0.5},
		{Pose: pose.Vector{X: 20, Y: 20, Yaw: 0}, Weight: 0.5},
	}}
	clusterStats(set)
	assert.Len(t, set.Clusters, 2)
}

func TestClusterStatsCircularYawMean(t *testing.T) {
	// Two samples straddling the +/- pi wraparound should average near pi,
	// not near zero.
	set := &Set{Samples: []Sample{
		{Pose: pose.Vector{X: 0, Y: 0, Yaw: math.Pi - 0.05}, Weight: 0.5},
		{Pose: pose.Vector{X: 0, Y: 0, Yaw: -math.Pi + 0.05}, Weight: 0.5},
	}}
	clusterStats(set)
	assert.InDelta(t, math.Pi, math.Abs(set.Mean.Yaw), 1e-6)
}

func TestClusterStatsEmptySet(t *testing.T) {
	set := &Set{}
	clusterStats(set)
	assert.Empty(t, set.Clusters)
}
