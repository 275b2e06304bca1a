package transport

import (
	"encoding/binary"
	"fmt"
	"math"

	"amcl-go/gridmap"
)

// mapHeaderLen is width(4) + height(4) + resolution(8) + originX(8) + originY(8).
const mapHeaderLen = 32

// DecodeOccupancyGridMap parses a wire-format occupancy grid: a header of
// width, height, resolution and world origin followed by width*height
// row-major cell bytes, where 0 or -1 means free, 100 means occupied and any
// other value means unknown. This mirrors the standard map-server wire
// convention the core is specified against.
func DecodeOccupancyGridMap(data []byte) (*gridmap.OccupancyMap, error) {
	if len(data) < mapHeaderLen {
		return nil, fmt.Errorf("transport: map message too short")
	}
	width := int(binary.LittleEndian.Uint32(data[0:]))
	height := int(binary.LittleEndian.Uint32(data[4:]))
	resolution := math.Float64frombits(binary.LittleEndian.Uint64(data[8:]))
	originX := math.Float64frombits(binary.LittleEndian.Uint64(data[16:]))
	originY := math.Float64frombits(binary.LittleEndian.Uint64(data[24:]))

	cells := data[mapHeaderLen:]
	if len(cells) < width*height {
		return nil, fmt.Errorf("transport: map message truncated, want %d cells got %d", width*height, len(cells))
	}
	if resolution <= 0 {
		return nil, fmt.Errorf("transport: map resolution must be positive, got %v", resolution)
	}

	m := gridmap.NewOccupancyMap(originX, originY, resolution, width, height)
	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			raw := int8(cells[j*width+i])
			switch {
			case raw == 0 || raw == -1:
				m.SetCell(i, j, gridmap.CellFree)
			case raw == 100:
				m.SetCell(i, j, gridmap.CellOccupied)
			default:
				m.SetCell(i, j, gridmap.CellUnknown)
			}
		}
	}
	return m, nil
}

// EncodeOccupancyGridMap is the inverse of DecodeOccupancyGridMap, used by
// tests and offline tooling that needs to produce a map wire message from an
// in-memory grid.
func EncodeOccupancyGridMap(m *gridmap.OccupancyMap) []byte {
	out := make([]byte, mapHeaderLen+m.SizeX*m.SizeY)
	binary.LittleEndian.PutUint32(out[0:], uint32(m.SizeX))
	binary.LittleEndian.PutUint32(out[4:], uint32(m.SizeY))
	binary.LittleEndian.PutUint64(out[8:], math.Float64bits(m.Scale))
	binary.LittleEndian.PutUint64(out[16:], math.Float64bits(m.OriginX))
	binary.LittleEndian.PutUint64(out[24:], math.Float64bits(m.OriginY))
	cells := out[mapHeaderLen:]
	for j := 0; j < m.SizeY; j++ {
		for i := 0; i < m.SizeX; i++ {
			switch m.Cell(i, j) {
			case gridmap.CellFree:
				cells[j*m.SizeX+i] = 0xFF // -1 as byte
			case gridmap.CellOccupied:
				cells[j*m.SizeX+i] = 100
			default:
				cells[j*m.SizeX+i] = 50 // neither 0/-1 (free) nor 100 (occupied): decodes as unknown
			}
		}
	}
	return out
}
