// Package sensor implements the likelihood-field observation model: scoring
// each particle against a beam-based (2D) or point-cloud (3D) range scan by
// looking up precomputed obstacle distances from a gridmap.Field.
package sensor

import (
	"math"

	"amcl-go/gridmap"
	"amcl-go/particle"
	"amcl-go/pose"
)

// Beam is one range measurement at a fixed angular offset from the sensor's
// mounting pose.
type Beam struct {
	Range float64
	Angle float64
}

// CubeMode selects how per-beam likelihoods combine into a total weight
// multiplier.
type CubeMode int

const (
	// PerBeamCube sums the cube of each beam's likelihood, the classical
	// AMCL likelihood_field_model behavior.
	PerBeamCube CubeMode = iota
	// SumThenCube cubes the sum of per-beam likelihoods once.
	SumThenCube
)

// Model is the likelihood-field sensor model's tunable parameters.
type Model struct {
	ZHit, ZRand, SigmaHit, ZMax float64
	MaxBeams                    int
	OffMapFactor                float64
	NonFreeSpaceFactor          float64
	NonFreeSpaceRadius          float64
	Cube                        CubeMode
}

// subsampleStep returns the stride needed to keep at most MaxBeams beams.
func (m Model) subsampleStep(n int) int {
	if m.MaxBeams <= 0 || n <= m.MaxBeams {
		return 1
	}
	step := (n + m.MaxBeams - 1) / m.MaxBeams
	if step < 1 {
		step = 1
	}
	return step
}

func (m Model) beamLikelihood(field gridmap.Field, sensorPose pose.Vector, b Beam) float64 {
	if b.Range >= m.ZMax {
		return m.ZRand / m.ZMax
	}
	hx := sensorPose.X + b.Range*math.Cos(sensorPose.Yaw+b.Angle)
	hy := sensorPose.Y + b.Range*math.Sin(sensorPose.Yaw+b.Angle)

	d, ok := field.DistanceAt(hx, hy)
	if !ok {
		return m.OffMapFactor
	}
	pHit := m.ZHit * math.Exp(-(d*d)/(2*m.SigmaHit*m.SigmaHit))
	return pHit + m.ZRand/m.ZMax
}

func composeSensorPose(particlePose, sensorOffset pose.Vector) pose.Vector {
	return pose.Vector{
		X:   particlePose.X + sensorOffset.X*math.Cos(particlePose.Yaw) - sensorOffset.Y*math.Sin(particlePose.Yaw),
		Y:   particlePose.Y + sensorOffset.X*math.Sin(particlePose.Yaw) + sensorOffset.Y*math.Cos(particlePose.Yaw),
		Yaw: pose.Normalize(particlePose.Yaw + sensorOffset.Yaw),
	}
}

// ScorePose returns the likelihood weight for one particle pose against one
// scan, given the sensor's pose in the robot frame (composed with the
// particle pose to get the sensor's world pose). A scan with no beams
// leaves the returned weight unchanged (1, times the non-free-space
// factor), the same as the classical likelihood_field_model accumulator
// that starts at p = 1.0 rather than 0.
func (m Model) ScorePose(field gridmap.Field, particlePose, sensorOffset pose.Vector, beams []Beam) float64 {
	sensorPose := composeSensorPose(particlePose, sensorOffset)

	step := m.subsampleStep(len(beams))

	total := 1.0
	switch m.Cube {
	case SumThenCube:
		if len(beams) > 0 {
			sum := 0.0
			for i := 0; i < len(beams); i += step {
				sum += m.beamLikelihood(field, sensorPose, beams[i])
			}
			total = sum * sum * sum
		}
	default:
		for i := 0; i < len(beams); i += step {
			pz := m.beamLikelihood(field, sensorPose, beams[i])
			total += pz * pz * pz
		}
	}

	weight := total
	if d, ok := field.DistanceAt(particlePose.X, particlePose.Y); ok && d < m.NonFreeSpaceRadius {
		weight *= m.NonFreeSpaceFactor
	}
	return weight
}

// UpdateWeights scores every sample in set against beams and multiplies its
// weight in place.
func (m Model) UpdateWeights(set *particle.Set, field gridmap.Field, sensorOffset pose.Vector, beams []Beam) {
	for i := range set.Samples {
		w := m.ScorePose(field, set.Samples[i].Pose, sensorOffset, beams)
		set.Samples[i].Weight *= w
	}
}

// Point3 is one 3D point-cloud endpoint in the sensor frame.
type Point3 struct {
	X, Y, Z float64
}

func (m Model) pointLikelihood3(field gridmap.Field3, sensorPose pose.Vector, p Point3) float64 {
	r := math.Hypot(p.X, p.Y)
	if r >= m.ZMax {
		return m.ZRand / m.ZMax
	}
	angle := math.Atan2(p.Y, p.X)
	hx := sensorPose.X + r*math.Cos(sensorPose.Yaw+angle)
	hy := sensorPose.Y + r*math.Sin(sensorPose.Yaw+angle)

	d, ok := field.DistanceAt3(hx, hy, p.Z)
	if !ok {
		return m.OffMapFactor
	}
	pHit := m.ZHit * math.Exp(-(d*d)/(2*m.SigmaHit*m.SigmaHit))
	return pHit + m.ZRand/m.ZMax
}

// ScorePose3 is ScorePose's 3D counterpart: it scores a particle pose
// against a point-cloud scan by looking up each endpoint's precomputed
// voxel distance from field instead of projecting through a single
// lidar-height slab. A scan with no points leaves the weight unchanged, for
// the same reason ScorePose does.
func (m Model) ScorePose3(field gridmap.Field3, particlePose, sensorOffset pose.Vector, points []Point3) float64 {
	sensorPose := composeSensorPose(particlePose, sensorOffset)

	step := m.subsampleStep(len(points))

	total := 1.0
	for i := 0; i < len(points); i += step {
		pz := m.pointLikelihood3(field, sensorPose, points[i])
		total += pz * pz * pz
	}

	weight := total
	if d, ok := field.DistanceAt(particlePose.X, particlePose.Y); ok && d < m.NonFreeSpaceRadius {
		weight *= m.NonFreeSpaceFactor
	}
	return weight
}

// UpdateWeights3 scores every sample in set against a point-cloud scan and
// multiplies its weight in place.
func (m Model) UpdateWeights3(set *particle.Set, field gridmap.Field3, sensorOffset pose.Vector, points []Point3) {
	for i := range set.Samples {
		w := m.ScorePose3(field, set.Samples[i].Pose, sensorOffset, points)
		set.Samples[i].Weight *= w
	}
}
