package transport

import (
	"encoding/binary"
	"fmt"
	"math"

	"amcl-go/gridmap"
)

// octreeHeaderLen is sizeX(4) + sizeY(4) + sizeZ(4) + originX(8) + originY(8)
// + originZ(8) + scale(8) + maxDist(8) + lidarHeight(8).
const octreeHeaderLen = 60

// DecodeOctreeField parses a wire-format 3D likelihood field: a header of
// voxel-grid dimensions, world origin, voxel scale, the field's max
// distance and lidar mounting height, followed by sizeX*sizeY*sizeZ
// row-major float64 voxel distances, as handed over once per map change by
// the external octree library that owns the actual occupancy volume.
func DecodeOctreeField(data []byte) (*gridmap.OctreeField, error) {
	if len(data) < octreeHeaderLen {
		return nil, fmt.Errorf("transport: octree field message too short")
	}
	sx := int(binary.LittleEndian.Uint32(data[0:]))
	sy := int(binary.LittleEndian.Uint32(data[4:]))
	sz := int(binary.LittleEndian.Uint32(data[8:]))
	originX := math.Float64frombits(binary.LittleEndian.Uint64(data[12:]))
	originY := math.Float64frombits(binary.LittleEndian.Uint64(data[20:]))
	originZ := math.Float64frombits(binary.LittleEndian.Uint64(data[28:]))
	scale := math.Float64frombits(binary.LittleEndian.Uint64(data[36:]))
	maxDist := math.Float64frombits(binary.LittleEndian.Uint64(data[44:]))
	lidarHeight := math.Float64frombits(binary.LittleEndian.Uint64(data[52:]))

	if scale <= 0 {
		return nil, fmt.Errorf("transport: octree field scale must be positive, got %v", scale)
	}
	want := sx * sy * sz
	voxels := data[octreeHeaderLen:]
	if len(voxels) < want*8 {
		return nil, fmt.Errorf("transport: octree field message truncated, want %d voxels got %d", want, len(voxels)/8)
	}

	f := gridmap.NewOctreeField(originX, originY, originZ, scale, sx, sy, sz, maxDist, lidarHeight)
	for k := 0; k < sz; k++ {
		for j := 0; j < sy; j++ {
			for i := 0; i < sx; i++ {
				idx := (k*sy+j)*sx + i
				d := math.Float64frombits(binary.LittleEndian.Uint64(voxels[idx*8:]))
				f.SetVoxelDist(i, j, k, d)
			}
		}
	}
	return f, nil
}

// EncodeOctreeField is the inverse of DecodeOctreeField, used by tests and
// offline tooling that needs to produce an octree field wire message from an
// in-memory field.
func EncodeOctreeField(f *gridmap.OctreeField) []byte {
	n := f.SizeX * f.SizeY * f.SizeZ
	out := make([]byte, octreeHeaderLen+n*8)
	binary.LittleEndian.PutUint32(out[0:], uint32(f.SizeX))
	binary.LittleEndian.PutUint32(out[4:], uint32(f.SizeY))
	binary.LittleEndian.PutUint32(out[8:], uint32(f.SizeZ))
	binary.LittleEndian.PutUint64(out[12:], math.Float64bits(f.OriginX))
	binary.LittleEndian.PutUint64(out[20:], math.Float64bits(f.OriginY))
	binary.LittleEndian.PutUint64(out[28:], math.Float64bits(f.OriginZ))
	binary.LittleEndian.PutUint64(out[36:], math.Float64bits(f.Scale))
	binary.LittleEndian.PutUint64(out[44:], math.Float64bits(f.MaxDist))
	binary.LittleEndian.PutUint64(out[52:], math.Float64bits(f.LidarHeight))
	voxels := out[octreeHeaderLen:]
	for idx, d := range f.Dist {
		binary.LittleEndian.PutUint64(voxels[idx*8:], math.Float64bits(d))
	}
	return out
}
