package transport

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"amcl-go/pose"
)

func TestForwarderDeliversToUDPSink(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)
	defer conn.Close()

	f := NewForwarder()
	require.NoError(t, f.AddUDPSink(conn.LocalAddr().String(), ForwardPose))
	require.NoError(t, f.Start())
	defer f.Stop()

	f.PublishPose(PoseUpdate{Stamp: 42, Pose: pose.Vector{X: 1, Y: 2}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)

	var got PoseUpdate
	require.NoError(t, json.Unmarshal(buf[:n], &got))
	require.Equal(t, int64(42), got.Stamp)
}

func TestForwarderSkipsSinkOutsideMask(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)
	defer conn.Close()

	f := NewForwarder()
	require.NoError(t, f.AddUDPSink(conn.LocalAddr().String(), ForwardParticles))
	require.NoError(t, f.Start())
	defer f.Stop()

	f.PublishPose(PoseUpdate{Stamp: 1, Pose: pose.Vector{}})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	buf := make([]byte, 64)
	_, _, err = conn.ReadFromUDP(buf)
	require.Error(t, err)
}
