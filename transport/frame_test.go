package transport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amcl-go/pose"
	"amcl-go/sensor"
)

func TestOdomFrameRoundTrip(t *testing.T) {
	f := OdomFrame{RobotID: 7, Stamp: 123456, Pose: pose.Vector{X: 1.5, Y: -2.5, Yaw: 0.3}}
	wire := encodeOdom(f)
	body := wire[frameHeaderLen:]
	got, err := decodeOdom(body)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestScanFrameRoundTrip(t *testing.T) {
	f := ScanFrame{
		RobotID:    3,
		Stamp:      99,
		SensorPose: pose.Vector{X: 0.1, Y: 0.2, Yaw: 0.05},
		Beams:      []sensor.Beam{{Range: 1.0, Angle: 0.1}, {Range: 2.0, Angle: -0.1}},
	}
	wire := encodeScan(f)
	body := wire[frameHeaderLen:]
	got, err := decodeScan(body)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestCloudFrameRoundTrip(t *testing.T) {
	f := CloudFrame{
		RobotID:    5,
		Stamp:      42,
		SensorPose: pose.Vector{X: 0.3, Y: -0.1, Yaw: 0.2},
		Points:     []sensor.Point3{{X: 1.0, Y: 0.5, Z: 0.2}, {X: 2.0, Y: -0.5, Z: 1.1}},
	}
	wire := encodeCloud(f)
	body := wire[frameHeaderLen:]
	got, err := decodeCloud(body)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestHandlePacketResyncsPastCorruptHeader(t *testing.T) {
	l := &Listener{lastGw: make(map[int]*net.UDPAddr)}
	var got []OdomFrame
	l.OnOdom = func(f OdomFrame) { got = append(got, f) }

	valid := encodeOdom(OdomFrame{RobotID: 1, Stamp: 1, Pose: pose.Vector{X: 1}})
	garbage := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	packet := append(garbage, valid...)

	l.handlePacket(packet, nil)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].RobotID)
}
