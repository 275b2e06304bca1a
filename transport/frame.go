package transport

import (
	"encoding/binary"
	"fmt"
	"math"

	"amcl-go/pose"
	"amcl-go/sensor"
)

const (
	frameOdom  byte = 1
	frameScan  byte = 2
	frameCloud byte = 3

	frameHeaderLen = 5 // length(4) + type(1)
)

// OdomFrame is one wire-format odometry sample: robot ID, stamp (ms since
// epoch) and the reported pose.
type OdomFrame struct {
	RobotID int
	Stamp   int64
	Pose    pose.Vector
}

// ScanFrame is one wire-format planar scan: robot ID, stamp, the sensor's
// base-frame pose and its beams.
type ScanFrame struct {
	RobotID    int
	Stamp      int64
	SensorPose pose.Vector
	Beams      []sensor.Beam
}

// CloudFrame is one wire-format 3D point-cloud scan: robot ID, stamp, the
// sensor's base-frame pose and its endpoints in the sensor frame.
type CloudFrame struct {
	RobotID    int
	Stamp      int64
	SensorPose pose.Vector
	Points     []sensor.Point3
}

func encodeOdom(f OdomFrame) []byte {
	body := make([]byte, 4+8+8+8+8)
	binary.LittleEndian.PutUint32(body[0:], uint32(f.RobotID))
	binary.LittleEndian.PutUint64(body[4:], uint64(f.Stamp))
	binary.LittleEndian.PutUint64(body[12:], math.Float64bits(f.Pose.X))
	binary.LittleEndian.PutUint64(body[20:], math.Float64bits(f.Pose.Y))
	binary.LittleEndian.PutUint64(body[28:], math.Float64bits(f.Pose.Yaw))
	return wrap(frameOdom, body)
}

func encodeScan(f ScanFrame) []byte {
	body := make([]byte, 4+8+24+len(f.Beams)*16)
	binary.LittleEndian.PutUint32(body[0:], uint32(f.RobotID))
	binary.LittleEndian.PutUint64(body[4:], uint64(f.Stamp))
	binary.LittleEndian.PutUint64(body[12:], math.Float64bits(f.SensorPose.X))
	binary.LittleEndian.PutUint64(body[20:], math.Float64bits(f.SensorPose.Y))
	binary.LittleEndian.PutUint64(body[28:], math.Float64bits(f.SensorPose.Yaw))
	off := 36
	for _, b := range f.Beams {
		binary.LittleEndian.PutUint64(body[off:], math.Float64bits(b.Range))
		binary.LittleEndian.PutUint64(body[off+8:], math.Float64bits(b.Angle))
		off += 16
	}
	return wrap(frameScan, body)
}

func encodeCloud(f CloudFrame) []byte {
	body := make([]byte, 4+8+24+len(f.Points)*24)
	binary.LittleEndian.PutUint32(body[0:], uint32(f.RobotID))
	binary.LittleEndian.PutUint64(body[4:], uint64(f.Stamp))
	binary.LittleEndian.PutUint64(body[12:], math.Float64bits(f.SensorPose.X))
	binary.LittleEndian.PutUint64(body[20:], math.Float64bits(f.SensorPose.Y))
	binary.LittleEndian.PutUint64(body[28:], math.Float64bits(f.SensorPose.Yaw))
	off := 36
	for _, p := range f.Points {
		binary.LittleEndian.PutUint64(body[off:], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(body[off+8:], math.Float64bits(p.Y))
		binary.LittleEndian.PutUint64(body[off+16:], math.Float64bits(p.Z))
		off += 24
	}
	return wrap(frameCloud, body)
}

func wrap(kind byte, body []byte) []byte {
	out := make([]byte, frameHeaderLen+len(body))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(body)))
	out[4] = kind
	copy(out[5:], body)
	return out
}

func decodeOdom(body []byte) (OdomFrame, error) {
	if len(body) < 36 {
		return OdomFrame{}, fmt.Errorf("transport: short odom frame")
	}
	return OdomFrame{
		RobotID: int(binary.LittleEndian.Uint32(body[0:])),
		Stamp:   int64(binary.LittleEndian.Uint64(body[4:])),
		Pose: pose.Vector{
			X:   math.Float64frombits(binary.LittleEndian.Uint64(body[12:])),
			Y:   math.Float64frombits(binary.LittleEndian.Uint64(body[20:])),
			Yaw: math.Float64frombits(binary.LittleEndian.Uint64(body[28:])),
		},
	}, nil
}

func decodeScan(body []byte) (ScanFrame, error) {
	if len(body) < 36 {
		return ScanFrame{}, fmt.Errorf("transport: short scan frame")
	}
	f := ScanFrame{
		RobotID: int(binary.LittleEndian.Uint32(body[0:])),
		Stamp:   int64(binary.LittleEndian.Uint64(body[4:])),
		SensorPose: pose.Vector{
			X:   math.Float64frombits(binary.LittleEndian.Uint64(body[12:])),
			Y:   math.Float64frombits(binary.LittleEndian.Uint64(body[20:])),
			Yaw: math.Float64frombits(binary.LittleEndian.Uint64(body[28:])),
		},
	}
	beamBytes := body[36:]
	n := len(beamBytes) / 16
	f.Beams = make([]sensor.Beam, n)
	for i := 0; i < n; i++ {
		off := i * 16
		f.Beams[i] = sensor.Beam{
			Range: math.Float64frombits(binary.LittleEndian.Uint64(beamBytes[off:])),
			Angle: math.Float64frombits(binary.LittleEndian.Uint64(beamBytes[off+8:])),
		}
	}
	return f, nil
}

func decodeCloud(body []byte) (CloudFrame, error) {
	if len(body) < 36 {
		return CloudFrame{}, fmt.Errorf("transport: short cloud frame")
	}
	f := CloudFrame{
		RobotID: int(binary.LittleEndian.Uint32(body[0:])),
		Stamp:   int64(binary.LittleEndian.Uint64(body[4:])),
		SensorPose: pose.Vector{
			X:   math.Float64frombits(binary.LittleEndian.Uint64(body[12:])),
			Y:   math.Float64frombits(binary.LittleEndian.Uint64(body[20:])),
			Yaw: math.Float64frombits(binary.LittleEndian.Uint64(body[28:])),
		},
	}
	pointBytes := body[36:]
	n := len(pointBytes) / 24
	f.Points = make([]sensor.Point3, n)
	for i := 0; i < n; i++ {
		off := i * 24
		f.Points[i] = sensor.Point3{
			X: math.Float64frombits(binary.LittleEndian.Uint64(pointBytes[off:])),
			Y: math.Float64frombits(binary.LittleEndian.Uint64(pointBytes[off+8:])),
			Z: math.Float64frombits(binary.LittleEndian.Uint64(pointBytes[off+16:])),
		}
	}
	return f, nil
}
