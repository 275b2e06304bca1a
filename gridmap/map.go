// Package gridmap implements the occupancy grid map and its precomputed
// likelihood field: storage, coordinate conversion, wavefront distance
// expansion and ray casting.
package gridmap

import "math"

// Occupancy states for a single cell.
const (
	CellFree     int8 = -1
	CellUnknown  int8 = 0
	CellOccupied int8 = 1
)

// CellIndex is a (i, j) grid coordinate.
type CellIndex struct {
	I, J int
}

// OccupancyMap is a 2D occupancy grid plus a precomputed distance-to-
// nearest-obstacle field.
type OccupancyMap struct {
	OriginX, OriginY float64
	Scale            float64
	SizeX, SizeY     int
	Cells            []int8
	Dist             []float64
	MaxOccDist       float64
}

// NewOccupancyMap allocates an unknown map of the given size.
func NewOccupancyMap(originX, originY, scale float64, sizeX, sizeY int) *OccupancyMap {
	n := sizeX * sizeY
	m := &OccupancyMap{
		OriginX: originX,
		OriginY: originY,
		Scale:   scale,
		SizeX:   sizeX,
		SizeY:   sizeY,
		Cells:   make([]int8, n),
		Dist:    make([]float64, n),
	}
	for i := range m.Dist {
		m.Dist[i] = math.MaxFloat64
	}
	return m
}

func (m *OccupancyMap) index(i, j int) int { return j*m.SizeX + i }

// IsValid reports whether (i,j) lies within the map bounds.
func (m *OccupancyMap) IsValid(i, j int) bool {
	return i >= 0 && i < m.SizeX && j >= 0 && j < m.SizeY
}

// Cell returns the occupancy state at (i,j). Out-of-bounds reads as occupied,
// matching the conservative convention used for ray casting past the edges.
func (m *OccupancyMap) Cell(i, j int) int8 {
	if !m.IsValid(i, j) {
		return CellOccupied
	}
	return m.Cells[m.index(i, j)]
}

// SetCell sets the occupancy state at (i,j). Out-of-bounds calls are ignored.
func (m *OccupancyMap) SetCell(i, j int, v int8) {
	if !m.IsValid(i, j) {
		return
	}
	m.Cells[m.index(i, j)] = v
}

// DistAt returns the precomputed distance-to-nearest-occupied-cell in
// meters. Out-of-bounds reads as 0 distance (treated as obstacle).
func (m *OccupancyMap) DistAt(i, j int) float64 {
	if !m.IsValid(i, j) {
		return 0
	}
	return m.Dist[m.index(i, j)]
}

// WorldToMap converts a world coordinate to the nearest cell index.
func (m *OccupancyMap) WorldToMap(wx, wy float64) (int, int) {
	i := int(math.Round((wx-m.OriginX)/m.Scale)) + m.SizeX/2
	j := int(math.Round((wy-m.OriginY)/m.Scale)) + m.SizeY/2
	return i, j
}

// MapToWorld converts a cell index to its center world coordinate.
func (m *OccupancyMap) MapToWorld(i, j int) (float64, float64) {
	wx := m.OriginX + float64(i-m.SizeX/2)*m.Scale
	wy := m.OriginY + float64(j-m.SizeY/2)*m.Scale
	return wx, wy
}

// FreeSpaceIndex returns every valid, non-occupied cell index, in row-major
// order, for uniform pose generation during global localization.
func (m *OccupancyMap) FreeSpaceIndex() []CellIndex {
	out := make([]CellIndex, 0, len(m.Cells))
	for j := 0; j < m.SizeY; j++ {
		for i := 0; i < m.SizeX; i++ {
			if m.Cells[m.index(i, j)] != CellOccupied {
				out = append(out, CellIndex{I: i, J: j})
			}
		}
	}
	return out
}
