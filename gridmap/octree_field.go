package gridmap

import "math"

// OctreeField is a voxel-grid likelihood field derived from a 3D
// octree-derived occupancy volume. Building and maintaining the octree
// itself is out of scope; this type only consumes the already-projected
// voxel distances the external octree library hands the core once per map
// change. It exposes both the 2D Field surface (DistanceAt, projecting
// through the configured lidar height) an OccupancyMap does, so 2D beam
// scans never need to know which map type backs them, and the raw 3D
// Field3 surface (DistanceAt3) for point-cloud scans.
type OctreeField struct {
	OriginX, OriginY, OriginZ float64
	Scale                     float64
	SizeX, SizeY, SizeZ       int
	Dist                      []float64 // row-major over (i, j, k)
	MaxDist                   float64
	// LidarHeight is the mounting height (meters, in the map frame) used to
	// select the z-slab a planar-equivalent query samples.
	LidarHeight float64
}

// NewOctreeField allocates a field with every voxel at maxDist.
func NewOctreeField(originX, originY, originZ, scale float64, sx, sy, sz int, maxDist, lidarHeight float64) *OctreeField {
	n := sx * sy * sz
	f := &OctreeField{
		OriginX: originX, OriginY: originY, OriginZ: originZ,
		Scale: scale, SizeX: sx, SizeY: sy, SizeZ: sz,
		Dist: make([]float64, n), MaxDist: maxDist, LidarHeight: lidarHeight,
	}
	for i := range f.Dist {
		f.Dist[i] = maxDist
	}
	return f
}

func (f *OctreeField) index(i, j, k int) int { return (k*f.SizeY+j)*f.SizeX + i }

func (f *OctreeField) worldToVoxel(wx, wy, wz float64) (int, int, int) {
	i := int(math.Round((wx-f.OriginX)/f.Scale)) + f.SizeX/2
	j := int(math.Round((wy-f.OriginY)/f.Scale)) + f.SizeY/2
	k := int(math.Round((wz-f.OriginZ)/f.Scale)) + f.SizeZ/2
	return i, j, k
}

func (f *OctreeField) validVoxel(i, j, k int) bool {
	return i >= 0 && i < f.SizeX && j >= 0 && j < f.SizeY && k >= 0 && k < f.SizeZ
}

// SetVoxelDist stores the precomputed distance-to-nearest-occupied-voxel
// (as produced by the external octree library) at the given index.
func (f *OctreeField) SetVoxelDist(i, j, k int, d float64) {
	if !f.validVoxel(i, j, k) {
		return
	}
	f.Dist[f.index(i, j, k)] = d
}

// DistanceAt3 returns the distance stored for the voxel containing the
// map-frame point (wx, wy, wz), used by the point-cloud scoring in package
// sensor; ok is false outside the volume.
func (f *OctreeField) DistanceAt3(wx, wy, wz float64) (float64, bool) {
	i, j, k := f.worldToVoxel(wx, wy, wz)
	if !f.validVoxel(i, j, k) {
		return 0, false
	}
	return f.Dist[f.index(i, j, k)], true
}

// DistanceAt implements Field by sampling the voxel column at LidarHeight,
// giving the 2D map interface a well-defined answer for code paths that are
// shared between the planar and 3D pipelines (e.g. non_free_space checks).
func (f *OctreeField) DistanceAt(wx, wy float64) (float64, bool) {
	return f.DistanceAt3(wx, wy, f.LidarHeight)
}

// WorldToMap implements Field's 2D projection at LidarHeight.
func (f *OctreeField) WorldToMap(wx, wy float64) (int, int) {
	i, j, _ := f.worldToVoxel(wx, wy, f.LidarHeight)
	return i, j
}

// IsValid implements Field's 2D projection at LidarHeight.
func (f *OctreeField) IsValid(i, j int) bool {
	_, _, k := f.worldToVoxel(0, 0, f.LidarHeight)
	return f.validVoxel(i, j, k)
}

// MapToWorld implements Field's 2D projection.
func (f *OctreeField) MapToWorld(i, j int) (float64, float64) {
	wx := f.OriginX + float64(i-f.SizeX/2)*f.Scale
	wy := f.OriginY + float64(j-f.SizeY/2)*f.Scale
	return wx, wy
}

// FreeSpaceIndex enumerates cells in the LidarHeight slab whose distance is
// greater than one voxel width, treated as free for uniform pose generation.
func (f *OctreeField) FreeSpaceIndex() []CellIndex {
	_, _, k := f.worldToVoxel(0, 0, f.LidarHeight)
	if !f.validVoxel(0, 0, k) {
		return nil
	}
	out := make([]CellIndex, 0, f.SizeX*f.SizeY)
	for j := 0; j < f.SizeY; j++ {
		for i := 0; i < f.SizeX; i++ {
			if f.Dist[f.index(i, j, k)] > f.Scale {
				out = append(out, CellIndex{I: i, J: j})
			}
		}
	}
	return out
}

var (
	_ Field  = (*OctreeField)(nil)
	_ Field3 = (*OctreeField)(nil)
)
