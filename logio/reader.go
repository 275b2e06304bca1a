package logio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"amcl-go/motion"
	"amcl-go/pose"
	"amcl-go/sensor"
)

// OdomEvent is a decoded odometry record.
type OdomEvent struct {
	Stamp time.Time
	Data  motion.OdomData
}

// ScanEvent is a decoded planar scan record.
type ScanEvent struct {
	Stamp      time.Time
	SensorPose pose.Vector
	Beams      []sensor.Beam
}

// MapLoadEvent marks a map swap during the recorded session.
type MapLoadEvent struct {
	Stamp time.Time
	Path  string
}

// CloudEvent is a decoded 3D point-cloud scan record.
type CloudEvent struct {
	Stamp      time.Time
	SensorPose pose.Vector
	Points     []sensor.Point3
}

// Reader streams decoded events from a Writer-produced log file.
type Reader struct {
	f *os.File
}

// NewReader opens path and validates the global header.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	hdr := make([]byte, globalHeaderLen)
	if _, err := io.ReadFull(f, hdr); err != nil {
		f.Close()
		return nil, fmt.Errorf("logio: reading global header: %w", err)
	}
	if binary.LittleEndian.Uint32(hdr[0:]) != magic {
		f.Close()
		return nil, fmt.Errorf("logio: bad magic in %s", path)
	}
	return &Reader{f: f}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.f.Close() }

// Next decodes the next record, returning one of *OdomEvent, *ScanEvent,
// *CloudEvent or *MapLoadEvent as the first return value, or io.EOF once the
// log is exhausted. A truncated trailing header or payload is reported as
// io.EOF. A record with an unrecognized kind or a short payload returns an
// error; its bytes have already been consumed, so a further call to Next
// continues with the following record.
func (r *Reader) Next() (interface{}, error) {
	hdr := make([]byte, recordHeaderLen)
	if _, err := io.ReadFull(r.f, hdr); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	tsSec := binary.LittleEndian.Uint32(hdr[0:])
	tsNsec := binary.LittleEndian.Uint32(hdr[4:])
	kind := binary.LittleEndian.Uint32(hdr[8:])
	payloadLen := binary.LittleEndian.Uint32(hdr[12:])

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r.f, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("logio: truncated payload: %w", err)
	}
	stamp := time.Unix(int64(tsSec), int64(tsNsec))

	switch kind {
	case kindOdom:
		if len(payload) < 72 {
			return nil, fmt.Errorf("logio: short odom payload")
		}
		return &OdomEvent{
			Stamp: stamp,
			Data: motion.OdomData{
				Pose:           getVector(payload[0:]),
				Delta:          getVector(payload[24:]),
				AbsoluteMotion: getVector(payload[48:]),
			},
		}, nil
	case kindScan:
		if len(payload) < 24 {
			return nil, fmt.Errorf("logio: short scan payload")
		}
		sensorPose := getVector(payload[0:])
		beamBytes := payload[24:]
		n := len(beamBytes) / 16
		beams := make([]sensor.Beam, n)
		for i := 0; i < n; i++ {
			off := i * 16
			beams[i] = sensor.Beam{
				Range: float64frombits(beamBytes[off:]),
				Angle: float64frombits(beamBytes[off+8:]),
			}
		}
		return &ScanEvent{Stamp: stamp, SensorPose: sensorPose, Beams: beams}, nil
	case kindCloud:
		if len(payload) < 24 {
			return nil, fmt.Errorf("logio: short cloud payload")
		}
		sensorPose := getVector(payload[0:])
		pointBytes := payload[24:]
		n := len(pointBytes) / 24
		points := make([]sensor.Point3, n)
		for i := 0; i < n; i++ {
			off := i * 24
			points[i] = sensor.Point3{
				X: float64frombits(pointBytes[off:]),
				Y: float64frombits(pointBytes[off+8:]),
				Z: float64frombits(pointBytes[off+16:]),
			}
		}
		return &CloudEvent{Stamp: stamp, SensorPose: sensorPose, Points: points}, nil
	case kindMapLoad:
		return &MapLoadEvent{Stamp: stamp, Path: string(payload)}, nil
	default:
		return nil, fmt.Errorf("logio: unknown record kind %d", kind)
	}
}

func float64frombits(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}
