package gridmap

// Field is the interface the particle filter and sensor models need from a
// map, regardless of whether it originates from an occupancy grid or an
// octree-derived likelihood field: score a pose's plausibility, convert
// coordinates, check validity, and enumerate free space for uniform pose
// generation. Keeping this narrow avoids a deep map class hierarchy.
type Field interface {
	// DistanceAt returns the precomputed distance-to-nearest-obstacle in
	// meters for the map cell containing the given world point. ok is false
	// if the point falls outside the map.
	DistanceAt(wx, wy float64) (dist float64, ok bool)
	// WorldToMap converts world coordinates to grid indices.
	WorldToMap(wx, wy float64) (int, int)
	// IsValid reports whether grid indices are inside the map.
	IsValid(i, j int) bool
	// FreeSpaceIndex enumerates non-occupied cells for uniform sampling.
	FreeSpaceIndex() []CellIndex
	// MapToWorld converts a free-space cell index back to world coordinates
	// (of its center), used by the uniform pose generator.
	MapToWorld(i, j int) (float64, float64)
}

// Field3 is implemented by maps that can also score a raw 3D point instead
// of only the 2D lidar-height slab a Field projects. OctreeField is the
// only Field3 implementation; the 2D-only OccupancyMap does not satisfy it.
type Field3 interface {
	Field
	// DistanceAt3 returns the precomputed distance-to-nearest-occupied-voxel
	// for the voxel containing a 3D point, ok false outside the volume.
	DistanceAt3(wx, wy, wz float64) (dist float64, ok bool)
}

// DistanceAt implements Field for OccupancyMap.
func (m *OccupancyMap) DistanceAt(wx, wy float64) (float64, bool) {
	i, j := m.WorldToMap(wx, wy)
	if !m.IsValid(i, j) {
		return 0, false
	}
	return m.DistAt(i, j), true
}

var _ Field = (*OccupancyMap)(nil)
