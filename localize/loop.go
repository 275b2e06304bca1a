// Package localize implements the update loop: the state machine that
// consumes odometry deltas and scans, decides when to run the motion and
// sensor models, drives adaptive resampling, and derives the map→odom
// correction transform.
package localize

import (
	"log"
	"math"
	"math/rand"
	"sync"

	"amcl-go/gridmap"
	"amcl-go/motion"
	"amcl-go/particle"
	"amcl-go/pose"
	"amcl-go/sensor"
)

// PosePublication is one published pose estimate, handed to the configured
// callback after each successful scan-triggered update.
type PosePublication struct {
	Stamp     int64
	Pose      pose.Vector
	Cov       pose.Matrix
	Particles []pose.Vector
}

// Loop owns the filter, the models, the map and the mutex-guarded shared
// state a running localizer must protect against concurrent scan and
// timer callbacks. Three purpose-specific locks generalize the reference
// system's single coarse mutex: configMu guards the filter and model
// reconfiguration/critical section, tfMu guards the published map→odom
// transform, and poseMu guards the published pose.
type Loop struct {
	configMu sync.Mutex
	tfMu     sync.Mutex
	poseMu   sync.Mutex

	cfg    *Config
	field  gridmap.Field
	filter *particle.Filter
	motion motion.Model
	sensor sensor.Model
	rng    *rand.Rand

	sensorOffset pose.Vector

	initialized              bool
	lastFilterOdomPose       pose.Vector
	resampleCounter          int
	forceUpdate              bool
	globalLocalizationActive bool
	absoluteMotionAccum      pose.Vector
	useAbsoluteMotion        bool

	latestTF      pose.Vector
	latestTFValid bool

	latestPose    pose.Vector
	latestCov     pose.Matrix
	latestPoseSet bool

	OnPublish func(PosePublication)
}

// NewLoop builds a Loop from cfg, wired to field for scoring and uniform
// pose generation.
func NewLoop(cfg *Config, field gridmap.Field, rng *rand.Rand) *Loop {
	f := particle.NewFilter(cfg.MinParticles, cfg.MaxParticles, cfg.RecoveryAlphaSlow, cfg.RecoveryAlphaFast, rng)
	f.SetPopulationSizeParameters(cfg.KldErr, cfg.KldZ)
	f.SetResampleModel(cfg.ResampleModel())
	f.SetUniformPoseDeweight(cfg.UniformPoseStartingWeightThreshold, cfg.UniformPoseDeweightMultiplier)

	return &Loop{
		cfg:               cfg,
		field:             field,
		filter:            f,
		motion:            cfg.MotionModel(),
		sensor:            cfg.SensorModel(),
		rng:               rng,
		useAbsoluteMotion: cfg.AbsoluteMotionTopic != "",
	}
}

// UseAbsoluteMotion enables the absolute-motion accumulator, used when an
// absolute_motion topic is configured instead of relying on raw odometry
// delta for the update threshold and the gaussian motion model.
func (l *Loop) UseAbsoluteMotion(enabled bool) {
	l.configMu.Lock()
	defer l.configMu.Unlock()
	l.useAbsoluteMotion = enabled
}

// SetSensorOffset sets the sensor's fixed pose in the robot base frame.
func (l *Loop) SetSensorOffset(offset pose.Vector) {
	l.configMu.Lock()
	defer l.configMu.Unlock()
	l.sensorOffset = offset
}

// SetInitialPose seeds the filter from a Gaussian around mean/cov and marks
// the loop uninitialized with respect to odometry, so the next odometry
// pose received becomes the new motion-model reference.
func (l *Loop) SetInitialPose(mean pose.Vector, cov pose.Matrix) {
	l.configMu.Lock()
	defer l.configMu.Unlock()
	l.filter.Init(mean, cov)
	l.initialized = false
	l.forceUpdate = true
}

// StartGlobalLocalization re-initializes the filter uniformly across free
// space and swaps in aggressive recovery decay rates, per the reference
// global-localization service.
func (l *Loop) StartGlobalLocalization(uniformGen func() pose.Vector) {
	l.configMu.Lock()
	defer l.configMu.Unlock()
	l.filter.SetDecayRates(l.cfg.GlobalAlphaSlow, l.cfg.GlobalAlphaFast)
	l.filter.InitModel(uniformGen)
	l.globalLocalizationActive = true
	l.forceUpdate = true
}

func (l *Loop) uniformFreeSpacePose() pose.Vector {
	free := l.field.FreeSpaceIndex()
	if len(free) == 0 {
		return pose.Vector{}
	}
	idx := free[l.rng.Intn(len(free))]
	wx, wy := l.field.MapToWorld(idx.I, idx.J)
	yaw := l.rng.Float64()*2*math.Pi - math.Pi
	return pose.Vector{X: wx, Y: wy, Yaw: pose.Normalize(yaw)}
}

// OdomUpdate accumulates componentwise absolute motion when an
// absolute-motion topic is configured; the accumulated magnitudes feed the
// gaussian motion model and the alternate update-threshold comparison.
func (l *Loop) OdomUpdate(delta pose.Vector, heading float64) {
	if !l.useAbsoluteMotion {
		return
	}
	l.configMu.Lock()
	defer l.configMu.Unlock()
	cs, sn := math.Cos(heading), math.Sin(heading)
	forward := delta.X*cs + delta.Y*sn
	strafe := -delta.X*sn + delta.Y*cs
	l.absoluteMotionAccum.X += math.Abs(forward)
	l.absoluteMotionAccum.Y += math.Abs(strafe)
	l.absoluteMotionAccum.Yaw += math.Abs(delta.Yaw)
}

// ScanUpdate runs one cycle of the update loop for a beam-based (2D) scan
// taken at odomPose (the robot's odom-frame pose at the scan's timestamp).
func (l *Loop) ScanUpdate(stamp int64, odomPose pose.Vector, beams []sensor.Beam) {
	l.runUpdate(stamp, odomPose, false, func(set *particle.Set, field gridmap.Field, _ gridmap.Field3) bool {
		l.sensor.UpdateWeights(set, field, l.sensorOffset, beams)
		return true
	})
}

// ScanUpdate3D is ScanUpdate's counterpart for a 3D point-cloud scan. It
// runs the same threshold-gated motion/resample cycle but scores particles
// against a Field3-capable map (see gridmap.OctreeField) instead of the
// projected 2D field. Scans arriving while the active map has no 3D field
// are dropped.
func (l *Loop) ScanUpdate3D(stamp int64, odomPose pose.Vector, points []sensor.Point3) {
	l.runUpdate(stamp, odomPose, true, func(set *particle.Set, _ gridmap.Field, field3 gridmap.Field3) bool {
		l.sensor.UpdateWeights3(set, field3, l.sensorOffset, points)
		return true
	})
}

// runUpdate holds the update loop shared by ScanUpdate and ScanUpdate3D:
// threshold-gated motion sampling, dispatch to score for the sensor model
// in use, adaptive resampling, and publication. score is called with the
// motion-advanced sample set and the active field(s); it returns false to
// abort the cycle before resampling and publication. By then the samples
// have already been moved by the motion model and the absolute-motion
// accumulator has been reset.
func (l *Loop) runUpdate(stamp int64, odomPose pose.Vector, need3D bool, score func(set *particle.Set, field gridmap.Field, field3 gridmap.Field3) bool) {
	l.configMu.Lock()
	defer l.configMu.Unlock()

	if l.field == nil {
		log.Printf("localize: dropping scan, no map loaded")
		return
	}

	var field3 gridmap.Field3
	if need3D {
		f3, ok := l.field.(gridmap.Field3)
		if !ok {
			log.Printf("localize: dropping point-cloud scan, active map has no 3D field")
			return
		}
		field3 = f3
	}

	if !l.initialized {
		l.lastFilterOdomPose = odomPose
		l.initialized = true
		l.resampleCounter = 0
		l.forceUpdate = true
	}

	delta := odomPose.Sub(l.lastFilterOdomPose)
	update := l.forceUpdate ||
		math.Abs(delta.X) > l.cfg.UpdateMinD ||
		math.Abs(delta.Y) > l.cfg.UpdateMinD ||
		math.Abs(delta.Yaw) > l.cfg.UpdateMinA
	if l.useAbsoluteMotion {
		update = l.forceUpdate ||
			math.Hypot(l.absoluteMotionAccum.X, l.absoluteMotionAccum.Y) > l.cfg.UpdateMinD ||
			math.Abs(l.absoluteMotionAccum.Yaw) > l.cfg.UpdateMinA
	}
	if !update {
		return
	}

	set := l.filter.CurrentSet()
	data := motion.OdomData{Pose: odomPose, Delta: delta, AbsoluteMotion: l.absoluteMotionAccum}
	l.motion.SampleForward(set, data, l.rng)
	l.absoluteMotionAccum = pose.Vector{}

	if !score(set, l.field, field3) {
		return
	}

	l.lastFilterOdomPose = odomPose
	l.forceUpdate = false
	l.resampleCounter++

	resampled := false
	if l.cfg.ResampleInterval <= 0 || l.resampleCounter%l.cfg.ResampleInterval == 0 {
		l.filter.UpdateResample(l.uniformFreeSpacePose)
		resampled = true
	}

	out := l.filter.CurrentSet()
	if resampled && out.Converged && l.globalLocalizationActive {
		l.globalLocalizationActive = false
		l.filter.SetDecayRates(l.cfg.RecoveryAlphaSlow, l.cfg.RecoveryAlphaFast)
	}

	l.publish(stamp, out, odomPose)
}

func (l *Loop) publish(stamp int64, out *particle.Set, odomPose pose.Vector) {
	if len(out.Clusters) == 0 {
		return
	}
	best := out.Clusters[0]
	for _, c := range out.Clusters[1:] {
		if c.Weight > best.Weight {
			best = c
		}
	}
	if best.Weight <= 0 {
		return
	}

	l.poseMu.Lock()
	l.latestPose = best.Mean
	l.latestCov = out.Cov
	l.latestPoseSet = true
	l.poseMu.Unlock()

	tf := pose.TransformBetween(best.Mean, odomPose)
	l.tfMu.Lock()
	l.latestTF = tf
	l.latestTFValid = true
	l.tfMu.Unlock()

	if l.OnPublish != nil {
		particles := make([]pose.Vector, len(out.Samples))
		for i, s := range out.Samples {
			particles[i] = s.Pose
		}
		l.OnPublish(PosePublication{Stamp: stamp, Pose: best.Mean, Cov: out.Cov, Particles: particles})
	}
}

// CurrentPose returns the last published pose and its whole-set covariance.
func (l *Loop) CurrentPose() (pose.Vector, pose.Matrix, bool) {
	l.poseMu.Lock()
	defer l.poseMu.Unlock()
	return l.latestPose, l.latestCov, l.latestPoseSet
}

// LatestTransform returns the last computed map→odom transform.
func (l *Loop) LatestTransform() (pose.Vector, bool) {
	l.tfMu.Lock()
	defer l.tfMu.Unlock()
	return l.latestTF, l.latestTFValid
}

// ReplaceMap atomically swaps in a new map under the config critical
// section, matching the reference's map-replacement-under-coarse-mutex
// policy.
func (l *Loop) ReplaceMap(field gridmap.Field) {
	l.configMu.Lock()
	defer l.configMu.Unlock()
	l.field = field
	l.initialized = false
}
