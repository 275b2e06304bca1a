package logio

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amcl-go/motion"
	"amcl-go/pose"
	"amcl-go/sensor"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	w, err := NewWriter(path)
	require.NoError(t, err)

	stamp := time.Unix(1000, 500000)
	odom := motion.OdomData{
		Pose:  pose.Vector{X: 1, Y: 2, Yaw: 0.5},
		Delta: pose.Vector{X: 0.1, Y: 0, Yaw: 0.01},
	}
	require.NoError(t, w.WriteOdom(stamp, odom))

	beams := []sensor.Beam{{Range: 3.5, Angle: 0.2}, {Range: 4.0, Angle: -0.2}}
	require.NoError(t, w.WriteScan(stamp, pose.Vector{X: 0.05}, beams))
	points := []sensor.Point3{{X: 1, Y: 2, Z: 0.3}, {X: -1, Y: 0.5, Z: 1.1}}
	require.NoError(t, w.WriteCloud(stamp, pose.Vector{X: 0.05}, points))
	require.NoError(t, w.WriteMapLoad(stamp, "/maps/floor1.yaml"))
	require.NoError(t, w.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	ev1, err := r.Next()
	require.NoError(t, err)
	oe, ok := ev1.(*OdomEvent)
	require.True(t, ok)
	assert.InDelta(t, 1.0, oe.Data.Pose.X, 1e-9)
	assert.InDelta(t, 0.01, oe.Data.Delta.Yaw, 1e-9)

	ev2, err := r.Next()
	require.NoError(t, err)
	se, ok := ev2.(*ScanEvent)
	require.True(t, ok)
	require.Len(t, se.Beams, 2)
	assert.InDelta(t, 3.5, se.Beams[0].Range, 1e-9)
	assert.InDelta(t, -0.2, se.Beams[1].Angle, 1e-9)

	ev3, err := r.Next()
	require.NoError(t, err)
	ce, ok := ev3.(*CloudEvent)
	require.True(t, ok)
	require.Len(t, ce.Points, 2)
	assert.InDelta(t, 1.1, ce.Points[1].Z, 1e-9)

	ev4, err := r.Next()
	require.NoError(t, err)
	me, ok := ev4.(*MapLoadEvent)
	require.True(t, ok)
	assert.Equal(t, "/maps/floor1.yaml", me.Path)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}
