package gridmap

import (
	"container/heap"
	"math"
)

// cachedDistanceMap precomputes sqrt(di^2+dj^2) for |di|,|dj| <= radius so
// the wavefront expansion never calls math.Sqrt on its hot path.
type cachedDistanceMap struct {
	radius int
	table  [][]float64
}

func newCachedDistanceMap(radius int) *cachedDistanceMap {
	if radius < 0 {
		radius = 0
	}
	c := &cachedDistanceMap{radius: radius}
	c.table = make([][]float64, radius+1)
	for di := 0; di <= radius; di++ {
		c.table[di] = make([]float64, radius+1)
		for dj := 0; dj <= radius; dj++ {
			c.table[di][dj] = math.Sqrt(float64(di*di + dj*dj))
		}
	}
	return c
}

func (c *cachedDistanceMap) get(di, dj int) float64 {
	if di < 0 {
		di = -di
	}
	if dj < 0 {
		dj = -dj
	}
	if di > c.radius {
		di = c.radius
	}
	if dj > c.radius {
		dj = c.radius
	}
	return c.table[di][dj]
}

// cspaceNode is one entry in the wavefront priority queue: the cell being
// relaxed, the nearest occupied source cell it propagates from, its current
// distance estimate in cells and the order it was inserted (for tie-breaks).
type cspaceNode struct {
	i, j       int
	srcI, srcJ int
	distCells  float64
	seq        int
}

type cspaceQueue []cspaceNode

func (q cspaceQueue) Len() int { return len(q) }
func (q cspaceQueue) Less(a, b int) bool {
	if q[a].distCells != q[b].distCells {
		return q[a].distCells < q[b].distCells
	}
	return q[a].seq < q[b].seq
}
func (q cspaceQueue) Swap(a, b int) { q[a], q[b] = q[b], q[a] }
func (q *cspaceQueue) Push(x any)   { *q = append(*q, x.(cspaceNode)) }
func (q *cspaceQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// UpdateCSpace precomputes the Euclidean distance of every cell to the
// nearest occupied cell, capped at maxOccDist, via wavefront expansion
// driven by a min-heap keyed by current distance estimate. Seeded from all
// occupied cells at distance 0; ties break by insertion order.
func (m *OccupancyMap) UpdateCSpace(maxOccDist float64) {
	m.MaxOccDist = maxOccDist
	for i := range m.Dist {
		m.Dist[i] = maxOccDist
	}
	if maxOccDist <= 0 {
		for i, c := range m.Cells {
			if c == CellOccupied {
				m.Dist[i] = 0
			}
		}
		return
	}

	radius := int(math.Ceil(maxOccDist / m.Scale))
	cache := newCachedDistanceMap(radius)

	marked := make([]bool, len(m.Cells))
	q := make(cspaceQueue, 0, len(m.Cells))
	seq := 0

	for j := 0; j < m.SizeY; j++ {
		for i := 0; i < m.SizeX; i++ {
			if m.Cell(i, j) == CellOccupied {
				idx := m.index(i, j)
				m.Dist[idx] = 0
				marked[idx] = true
				heap.Push(&q, cspaceNode{i: i, j: j, srcI: i, srcJ: j, distCells: 0, seq: seq})
				seq++
			}
		}
	}

	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for q.Len() > 0 {
		cur := heap.Pop(&q).(cspaceNode)
		for _, d := range dirs {
			ni, nj := cur.i+d[0], cur.j+d[1]
			if !m.IsValid(ni, nj) {
				continue
			}
			nidx := m.index(ni, nj)
			if marked[nidx] {
				continue
			}
			distCells := cache.get(ni-cur.srcI, nj-cur.srcJ)
			distM := distCells * m.Scale
			if distM > maxOccDist {
				continue
			}
			m.Dist[nidx] = distM
			marked[nidx] = true
			heap.Push(&q, cspaceNode{i: ni, j: nj, srcI: cur.srcI, srcJ: cur.srcJ, distCells: distCells, seq: seq})
			seq++
		}
	}
}
