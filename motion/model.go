// Package motion implements the odometry motion model: given a robot's
// reported pose delta since the last update, it perturbs every particle by a
// sampled noisy version of that delta, forward-projecting the sample set.
package motion

import (
	"math"
	"math/rand"

	"amcl-go/particle"
	"amcl-go/pose"
)

// ModelType selects which noise model SampleForward applies.
type ModelType int

const (
	Diff ModelType = iota
	Omni
	DiffCorrected
	OmniCorrected
	Gaussian
)

// OdomData carries one odometry update: the robot's new pose, the delta
// since the previous update (new minus old, expressed in the odometry frame,
// not rotated into the old pose's heading), and, for the
// Gaussian model, the total absolute motion (translation/strafe/rotation
// magnitudes accumulated independent of direction).
type OdomData struct {
	Pose           pose.Vector
	Delta          pose.Vector
	AbsoluteMotion pose.Vector
}

// Model is the sample_motion_odometry family of models from Probabilistic
// Robotics (Thrun, Burgard, Fox), section 5.4, plus the omnidirectional and
// "corrected" (stddev rather than variance scaling) variants used by AMCL.
type Model struct {
	Type                           ModelType
	Alpha1, Alpha2, Alpha3, Alpha4 float64
	Alpha5                         float64
}

// NewDiffModel builds a differential-drive model.
func NewDiffModel(a1, a2, a3, a4 float64) Model {
	return Model{Type: Diff, Alpha1: a1, Alpha2: a2, Alpha3: a3, Alpha4: a4}
}

// NewOmniModel builds an omnidirectional-drive model.
func NewOmniModel(a1, a2, a3, a4, a5 float64) Model {
	return Model{Type: Omni, Alpha1: a1, Alpha2: a2, Alpha3: a3, Alpha4: a4, Alpha5: a5}
}

// SampleForward perturbs every sample in set by a draw from the configured
// noise model given the observed odometry delta, mutating poses in place.
func (m Model) SampleForward(set *particle.Set, data OdomData, rng *rand.Rand) {
	oldPose := data.Pose.Sub(data.Delta)

	switch m.Type {
	case Omni, OmniCorrected:
		m.sampleOmni(set, data, oldPose, rng, m.Type == OmniCorrected)
	case Diff, DiffCorrected:
		m.sampleDiff(set, data, oldPose, rng, m.Type == DiffCorrected)
	case Gaussian:
		m.sampleGaussian(set, data, oldPose, rng)
	}
}

func (m Model) sampleOmni(set *particle.Set, data OdomData, oldPose pose.Vector, rng *rand.Rand, corrected bool) {
	deltaTrans := math.Hypot(data.Delta.X, data.Delta.Y)
	deltaRot := data.Delta.Yaw

	transVar := m.Alpha3*deltaTrans*deltaTrans + m.Alpha1*deltaRot*deltaRot
	rotVar := m.Alpha4*deltaRot*deltaRot + m.Alpha2*deltaTrans*deltaTrans
	strafeVar := m.Alpha1*deltaRot*deltaRot + m.Alpha5*deltaTrans*deltaTrans

	transStd, rotStd, strafeStd := transVar, rotVar, strafeVar
	if corrected {
		transStd, rotStd, strafeStd = math.Sqrt(transVar), math.Sqrt(rotVar), math.Sqrt(strafeVar)
	}

	bearing0 := pose.AngleDiff(math.Atan2(data.Delta.Y, data.Delta.X), oldPose.Yaw)

	for i := range set.Samples {
		s := &set.Samples[i]
		deltaBearing := bearing0 + s.Pose.Yaw
		cs, sn := math.Cos(deltaBearing), math.Sin(deltaBearing)

		transHat := deltaTrans + pose.GaussianSample(rng, transStd)
		rotHat := deltaRot + pose.GaussianSample(rng, rotStd)
		strafeHat := pose.GaussianSample(rng, strafeStd)

		s.Pose.X += transHat*cs + strafeHat*sn
		s.Pose.Y += transHat*sn - strafeHat*cs
		s.Pose.Yaw = pose.Normalize(s.Pose.Yaw + rotHat)
	}
}

func (m Model) sampleDiff(set *particle.Set, data OdomData, oldPose pose.Vector, rng *rand.Rand, corrected bool) {
	var deltaRot1 float64
	if math.Hypot(data.Delta.X, data.Delta.Y) < 0.01 {
		deltaRot1 = 0.0
	} else {
		deltaRot1 = pose.AngleDiff(math.Atan2(data.Delta.Y, data.Delta.X), oldPose.Yaw)
	}
	deltaTrans := math.Hypot(data.Delta.X, data.Delta.Y)
	deltaRot2 := pose.AngleDiff(data.Delta.Yaw, deltaRot1)

	rot1Noise := math.Min(math.Abs(pose.AngleDiff(deltaRot1, 0)), math.Abs(pose.AngleDiff(deltaRot1, math.Pi)))
	rot2Noise := math.Min(math.Abs(pose.AngleDiff(deltaRot2, 0)), math.Abs(pose.AngleDiff(deltaRot2, math.Pi)))

	for i := range set.Samples {
		s := &set.Samples[i]

		rot1Var := m.Alpha1*rot1Noise*rot1Noise + m.Alpha2*deltaTrans*deltaTrans
		transVar := m.Alpha3*deltaTrans*deltaTrans + m.Alpha4*rot1Noise*rot1Noise + m.Alpha4*rot2Noise*rot2Noise
		rot2Var := m.Alpha1*rot2Noise*rot2Noise + m.Alpha2*deltaTrans*deltaTrans
		if corrected {
			rot1Var, transVar, rot2Var = math.Sqrt(rot1Var), math.Sqrt(transVar), math.Sqrt(rot2Var)
		}

		rot1Hat := pose.AngleDiff(deltaRot1, pose.GaussianSample(rng, rot1Var))
		transHat := deltaTrans - pose.GaussianSample(rng, transVar)
		rot2Hat := pose.AngleDiff(deltaRot2, pose.GaussianSample(rng, rot2Var))

		s.Pose.X += transHat * math.Cos(s.Pose.Yaw+rot1Hat)
		s.Pose.Y += transHat * math.Sin(s.Pose.Yaw+rot1Hat)
		s.Pose.Yaw = pose.Normalize(s.Pose.Yaw + rot1Hat + rot2Hat)
	}
}

func (m Model) sampleGaussian(set *particle.Set, data OdomData, oldPose pose.Vector, rng *rand.Rand) {
	deltaTrans := math.Hypot(data.Delta.X, data.Delta.Y)
	deltaRot := data.Delta.Yaw

	absTrans2 := data.AbsoluteMotion.X * data.AbsoluteMotion.X
	absStrafe2 := data.AbsoluteMotion.Y * data.AbsoluteMotion.Y
	absRot2 := data.AbsoluteMotion.Yaw * data.AbsoluteMotion.Yaw

	rotStd := math.Sqrt(m.Alpha1*absRot2 + m.Alpha2*absTrans2)
	transStd := math.Sqrt(m.Alpha3*absTrans2 + m.Alpha4*absRot2)
	strafeStd := math.Sqrt(m.Alpha4*absRot2 + m.Alpha5*absStrafe2)

	bearing0 := pose.AngleDiff(math.Atan2(data.Delta.Y, data.Delta.X), oldPose.Yaw)

	for i := range set.Samples {
		s := &set.Samples[i]

		heading := s.Pose.Yaw + deltaRot/2
		csHeading, snHeading := math.Cos(heading), math.Sin(heading)

		deltaBearing := bearing0 + s.Pose.Yaw
		csBearing, snBearing := math.Cos(deltaBearing), math.Sin(deltaBearing)

		transHat := pose.GaussianSample(rng, transStd)
		strafeHat := pose.GaussianSample(rng, strafeStd)
		rotHat := pose.GaussianSample(rng, rotStd)

		s.Pose.X += deltaTrans * csBearing
		s.Pose.Y += deltaTrans * snBearing
		s.Pose.Yaw = pose.Normalize(s.Pose.Yaw + deltaRot)

		s.Pose.X += transHat*csHeading + strafeHat*snHeading
		s.Pose.Y += transHat*snHeading - strafeHat*csHeading
		s.Pose.Yaw = pose.Normalize(s.Pose.Yaw + rotHat)
	}
}
