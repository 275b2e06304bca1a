package gridmap

import "math"

// CalcRange casts a ray from world point (ox,oy) along heading oa and
// returns the world-frame distance to the first occupied cell, or maxRange
// if the ray exits the map bounds (or reaches maxRange) without hitting one.
// Uses a Bresenham line walk over map cells, matching the classical AMCL
// map_calc_range routine.
func (m *OccupancyMap) CalcRange(ox, oy, oa, maxRange float64) float64 {
	x0, y0 := m.WorldToMap(ox, oy)
	ex := ox + maxRange*math.Cos(oa)
	ey := oy + maxRange*math.Sin(oa)
	x1, y1 := m.WorldToMap(ex, ey)

	dx := int(math.Abs(float64(x1 - x0)))
	dy := int(math.Abs(float64(y1 - y0)))

	stepX := 1
	if x0 > x1 {
		stepX = -1
	}
	stepY := 1
	if y0 > y1 {
		stepY = -1
	}

	x, y := x0, y0

	if dx > dy {
		err := dx / 2
		for x != x1 {
			if !m.IsValid(x, y) {
				break
			}
			if m.Cell(x, y) == CellOccupied {
				wx, wy := m.MapToWorld(x, y)
				return math.Hypot(wx-ox, wy-oy)
			}
			err -= dy
			if err < 0 {
				y += stepY
				err += dx
			}
			x += stepX
		}
	} else {
		err := dy / 2
		for y != y1 {
			if !m.IsValid(x, y) {
				break
			}
			if m.Cell(x, y) == CellOccupied {
				wx, wy := m.MapToWorld(x, y)
				return math.Hypot(wx-ox, wy-oy)
			}
			err -= dx
			if err < 0 {
				x += stepX
				err += dy
			}
			y += stepY
		}
	}
	if m.IsValid(x, y) && m.Cell(x, y) == CellOccupied {
		wx, wy := m.MapToWorld(x, y)
		return math.Hypot(wx-ox, wy-oy)
	}
	return maxRange
}
