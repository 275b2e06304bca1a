package logio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"amcl-go/motion"
	"amcl-go/pose"
	"amcl-go/sensor"
)

// Writer appends odometry, scan and map-load events to a binary log file,
// framed the way the capture format frames UDP packets: a small global
// header once, then a fixed record header plus payload per event.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

// NewWriter creates path and writes the global header.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &Writer{w: f, buf: make([]byte, recordHeaderLen)}
	if err := w.writeGlobalHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeGlobalHeader() error {
	b := make([]byte, globalHeaderLen)
	binary.LittleEndian.PutUint32(b[0:], magic)
	binary.LittleEndian.PutUint16(b[4:], 1) // major
	binary.LittleEndian.PutUint16(b[6:], 0) // minor
	_, err := w.w.Write(b)
	return err
}

func (w *Writer) writeRecord(stamp time.Time, kind uint32, payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	binary.LittleEndian.PutUint32(w.buf[0:], uint32(stamp.Unix()))
	binary.LittleEndian.PutUint32(w.buf[4:], uint32(stamp.Nanosecond()))
	binary.LittleEndian.PutUint32(w.buf[8:], kind)
	binary.LittleEndian.PutUint32(w.buf[12:], uint32(len(payload)))

	if _, err := w.w.Write(w.buf); err != nil {
		return err
	}
	_, err := w.w.Write(payload)
	return err
}

// WriteOdom records one odometry sample.
func (w *Writer) WriteOdom(stamp time.Time, data motion.OdomData) error {
	payload := make([]byte, 9*8)
	putVector(payload[0:], data.Pose)
	putVector(payload[24:], data.Delta)
	putVector(payload[48:], data.AbsoluteMotion)
	return w.writeRecord(stamp, kindOdom, payload)
}

// WriteScan records one planar scan and the sensor's base-frame pose.
func (w *Writer) WriteScan(stamp time.Time, sensorPose pose.Vector, beams []sensor.Beam) error {
	payload := make([]byte, 24+len(beams)*16)
	putVector(payload[0:], sensorPose)
	off := 24
	for _, b := range beams {
		binary.LittleEndian.PutUint64(payload[off:], math.Float64bits(b.Range))
		binary.LittleEndian.PutUint64(payload[off+8:], math.Float64bits(b.Angle))
		off += 16
	}
	return w.writeRecord(stamp, kindScan, payload)
}

// WriteCloud records one 3D point-cloud scan and the sensor's base-frame pose.
func (w *Writer) WriteCloud(stamp time.Time, sensorPose pose.Vector, points []sensor.Point3) error {
	payload := make([]byte, 24+len(points)*24)
	putVector(payload[0:], sensorPose)
	off := 24
	for _, p := range points {
		binary.LittleEndian.PutUint64(payload[off:], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(payload[off+8:], math.Float64bits(p.Y))
		binary.LittleEndian.PutUint64(payload[off+16:], math.Float64bits(p.Z))
		off += 24
	}
	return w.writeRecord(stamp, kindCloud, payload)
}

// WriteMapLoad records a map-swap marker so a replay knows to reload before
// continuing.
func (w *Writer) WriteMapLoad(stamp time.Time, path string) error {
	return w.writeRecord(stamp, kindMapLoad, []byte(path))
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	if c, ok := w.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func putVector(b []byte, v pose.Vector) {
	if len(b) < 24 {
		panic(fmt.Sprintf("logio: buffer too small for vector: %d", len(b)))
	}
	binary.LittleEndian.PutUint64(b[0:], math.Float64bits(v.X))
	binary.LittleEndian.PutUint64(b[8:], math.Float64bits(v.Y))
	binary.LittleEndian.PutUint64(b[16:], math.Float64bits(v.Yaw))
}

func getVector(b []byte) pose.Vector {
	return pose.Vector{
		X:   math.Float64frombits(binary.LittleEndian.Uint64(b[0:])),
		Y:   math.Float64frombits(binary.LittleEndian.Uint64(b[8:])),
		Yaw: math.Float64frombits(binary.LittleEndian.Uint64(b[16:])),
	}
}
