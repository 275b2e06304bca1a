package gridmap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldMapRoundTrip(t *testing.T) {
	m := NewOccupancyMap(0, 0, 0.05, 200, 200)
	pts := [][2]float64{{0, 0}, {1.23, -4.56}, {-9.9, 9.9}}
	for _, p := range pts {
		i, j := m.WorldToMap(p[0], p[1])
		wx, wy := m.MapToWorld(i, j)
		assert.LessOrEqual(t, math.Abs(wx-p[0]), 0.5*m.Scale+1e-9)
		assert.LessOrEqual(t, math.Abs(wy-p[1]), 0.5*m.Scale+1e-9)
	}
}

func TestUpdateCSpaceSingleObstacle(t *testing.T) {
	m := NewOccupancyMap(0, 0, 0.1, 10, 10)
	for i := range m.Cells {
		m.Cells[i] = CellFree
	}
	m.SetCell(5, 5, CellOccupied)
	m.UpdateCSpace(0.5)

	require.InDelta(t, 0.0, m.DistAt(5, 5), 1e-9)
	require.InDelta(t, 0.1, m.DistAt(4, 5), 1e-9)
	require.InDelta(t, math.Sqrt(0.02), m.DistAt(4, 4), 1e-9)
	require.InDelta(t, 0.5, m.DistAt(0, 0), 1e-9)
}

func TestDistInvariants(t *testing.T) {
	m := NewOccupancyMap(0, 0, 0.1, 20, 20)
	for i := range m.Cells {
		m.Cells[i] = CellFree
	}
	m.SetCell(3, 3, CellOccupied)
	m.SetCell(10, 15, CellOccupied)
	m.UpdateCSpace(1.0)

	for j := 0; j < m.SizeY; j++ {
		for i := 0; i < m.SizeX; i++ {
			d := m.DistAt(i, j)
			assert.GreaterOrEqual(t, d, 0.0)
			assert.LessOrEqual(t, d, m.MaxOccDist)
			if m.Cell(i, j) == CellOccupied {
				assert.InDelta(t, 0.0, d, 1e-12)
			}
		}
	}
}

func TestCalcRangeHitsObstacle(t *testing.T) {
	m := NewOccupancyMap(0, 0, 0.1, 100, 100)
	for i := range m.Cells {
		m.Cells[i] = CellFree
	}
	// A vertical wall of occupied cells at world x=2.0
	wallI, _ := m.WorldToMap(2.0, 0)
	for j := 0; j < m.SizeY; j++ {
		m.SetCell(wallI, j, CellOccupied)
	}

	r := m.CalcRange(0, 0, 0, 10.0)
	assert.InDelta(t, 2.0, r, 0.15)
}

func TestCalcRangeNoObstacleReturnsMaxRange(t *testing.T) {
	m := NewOccupancyMap(0, 0, 0.1, 50, 50)
	for i := range m.Cells {
		m.Cells[i] = CellFree
	}
	r := m.CalcRange(0, 0, 0, 2.0)
	assert.InDelta(t, 2.0, r, 0.2)
}

func TestFreeSpaceIndexExcludesOccupied(t *testing.T) {
	m := NewOccupancyMap(0, 0, 0.1, 5, 5)
	for i := range m.Cells {
		m.Cells[i] = CellFree
	}
	m.SetCell(2, 2, CellOccupied)
	free := m.FreeSpaceIndex()
	for _, c := range free {
		assert.NotEqual(t, CellIndex{2, 2}, c)
	}
	assert.Equal(t, 24, len(free))
}
