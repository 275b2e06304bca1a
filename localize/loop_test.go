package localize

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amcl-go/gridmap"
	"amcl-go/pose"
	"amcl-go/sensor"
)

func flatField(t *testing.T) *gridmap.OccupancyMap {
	t.Helper()
	m := gridmap.NewOccupancyMap(0, 0, 0.1, 200, 200)
	for i := range m.Cells {
		m.Cells[i] = gridmap.CellFree
	}
	m.UpdateCSpace(1.0)
	return m
}

func testConfig() *Config {
	cfg := &Config{
		MinParticles:       100,
		MaxParticles:       500,
		KldErr:             0.05,
		KldZ:               0.99,
		UpdateMinD:         0.2,
		UpdateMinA:         0.2,
		ResampleInterval:   1,
		OdomModelType:      "diff",
		LaserZHit:          0.9,
		LaserZRand:         0.1,
		LaserSigmaHit:      0.2,
		LaserZMax:          10,
		NonFreeSpaceFactor: 1.0,
	}
	cfg.applyDefaults()
	return cfg
}

func TestScanUpdateFirstScanInitializesAndForcesPublish(t *testing.T) {
	cfg := testConfig()
	loop := NewLoop(cfg, flatField(t), rand.New(rand.NewSource(1)))
	loop.SetInitialPose(pose.Vector{}, pose.Matrix{{0.01, 0, 0}, {0, 0.01, 0}, {0, 0, 0.01}})

	var published []PosePublication
	loop.OnPublish = func(p PosePublication) { published = append(published, p) }

	loop.ScanUpdate(1, pose.Vector{}, []sensor.Beam{{Range: 5, Angle: 0}})
	require.NotEmpty(t, published)
}

func TestScanUpdateBelowThresholdSkipsUpdate(t *testing.T) {
	cfg := testConfig()
	loop := NewLoop(cfg, flatField(t), rand.New(rand.NewSource(2)))
	loop.SetInitialPose(pose.Vector{}, pose.Matrix{})

	var count int
	loop.OnPublish = func(p PosePublication) { count++ }

	loop.ScanUpdate(1, pose.Vector{}, []sensor.Beam{{Range: 5, Angle: 0}})
	firstCount := count

	// Tiny motion below update_min_d/a: no further update.
	loop.ScanUpdate(2, pose.Vector{X: 0.001}, []sensor.Beam{{Range: 5, Angle: 0}})
	assert.Equal(t, firstCount, count)
}

func TestScanUpdatePublishesWholeSetCovariance(t *testing.T) {
	cfg := testConfig()
	loop := NewLoop(cfg, flatField(t), rand.New(rand.NewSource(3)))
	loop.SetInitialPose(pose.Vector{}, pose.Matrix{{0.02, 0, 0}, {0, 0.02, 0}, {0, 0, 0.01}})

	var got PosePublication
	loop.OnPublish = func(p PosePublication) { got = p }

	loop.ScanUpdate(1, pose.Vector{}, []sensor.Beam{{Range: 5, Angle: 0}})
	require.NotZero(t, got.Stamp)

	pose_, cov, ok := loop.CurrentPose()
	require.True(t, ok)
	assert.Equal(t, got.Cov, cov)
	assert.Equal(t, got.Pose, pose_)
}

func TestReplaceMapResetsInitialization(t *testing.T) {
	cfg := testConfig()
	loop := NewLoop(cfg, flatField(t), rand.New(rand.NewSource(4)))
	loop.SetInitialPose(pose.Vector{}, pose.Matrix{})
	loop.ScanUpdate(1, pose.Vector{}, []sensor.Beam{{Range: 5, Angle: 0}})
	assert.True(t, loop.initialized)

	loop.ReplaceMap(flatField(t))
	assert.False(t, loop.initialized)
}

func flatField3D(t *testing.T) *gridmap.OctreeField {
	t.Helper()
	return gridmap.NewOctreeField(0, 0, 0, 0.1, 200, 200, 20, 1.0, 0.0)
}

func TestScanUpdate3DPublishesAgainstOctreeField(t *testing.T) {
	cfg := testConfig()
	loop := NewLoop(cfg, flatField3D(t), rand.New(rand.NewSource(5)))
	loop.SetInitialPose(pose.Vector{}, pose.Matrix{{0.01, 0, 0}, {0, 0.01, 0}, {0, 0, 0.01}})

	var published []PosePublication
	loop.OnPublish = func(p PosePublication) { published = append(published, p) }

	loop.ScanUpdate3D(1, pose.Vector{}, []sensor.Point3{{X: 5, Y: 0, Z: 0}})
	require.NotEmpty(t, published)
}

func TestScanUpdate3DDropsScanWithoutField3(t *testing.T) {
	cfg := testConfig()
	loop := NewLoop(cfg, flatField(t), rand.New(rand.NewSource(6)))
	loop.SetInitialPose(pose.Vector{}, pose.Matrix{{0.01, 0, 0}, {0, 0.01, 0}, {0, 0, 0.01}})

	var count int
	loop.OnPublish = func(p PosePublication) { count++ }

	loop.ScanUpdate3D(1, pose.Vector{}, []sensor.Point3{{X: 5, Y: 0, Z: 0}})
	assert.Equal(t, 0, count)
	assert.False(t, loop.initialized)
}

func TestAbsoluteMotionTopicConfigEnablesAccumulation(t *testing.T) {
	cfg := testConfig()
	cfg.AbsoluteMotionTopic = "fused_odom"
	loop := NewLoop(cfg, flatField(t), rand.New(rand.NewSource(7)))
	assert.True(t, loop.useAbsoluteMotion)

	loop.OdomUpdate(pose.Vector{X: 0.05, Yaw: 0.01}, 0)
	assert.Greater(t, loop.absoluteMotionAccum.X, 0.0)
}
