package pose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformBetweenSatisfiesComposition(t *testing.T) {
	mapPose := Vector{X: 1, Y: 2, Yaw: math.Pi / 2}
	odomPose := Vector{X: 0.1, Y: 0.2, Yaw: 0}

	tf := TransformBetween(mapPose, odomPose)
	got := Compose(tf, odomPose)

	assert.InDelta(t, mapPose.X, got.X, 1e-9)
	assert.InDelta(t, mapPose.Y, got.Y, 1e-9)
	assert.InDelta(t, mapPose.Yaw, got.Yaw, 1e-9)
}

func TestInverseRoundTrip(t *testing.T) {
	v := Vector{X: 3.2, Y: -1.1, Yaw: 1.0}
	identity := Compose(v, Inverse(v))
	assert.InDelta(t, 0, identity.X, 1e-9)
	assert.InDelta(t, 0, identity.Y, 1e-9)
	assert.InDelta(t, 0, identity.Yaw, 1e-9)
}
