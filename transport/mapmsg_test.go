package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amcl-go/gridmap"
)

func TestOccupancyGridMapRoundTrip(t *testing.T) {
	m := gridmap.NewOccupancyMap(1.5, -2.0, 0.05, 10, 8)
	for i := range m.Cells {
		m.Cells[i] = gridmap.CellFree
	}
	m.SetCell(3, 4, gridmap.CellOccupied)
	m.SetCell(0, 0, gridmap.CellUnknown)

	data := EncodeOccupancyGridMap(m)
	got, err := DecodeOccupancyGridMap(data)
	require.NoError(t, err)

	assert.Equal(t, m.SizeX, got.SizeX)
	assert.Equal(t, m.SizeY, got.SizeY)
	assert.InDelta(t, m.Scale, got.Scale, 1e-12)
	assert.InDelta(t, m.OriginX, got.OriginX, 1e-12)
	assert.InDelta(t, m.OriginY, got.OriginY, 1e-12)
	assert.Equal(t, int8(gridmap.CellOccupied), got.Cell(3, 4))
	assert.Equal(t, int8(gridmap.CellUnknown), got.Cell(0, 0))
	assert.Equal(t, int8(gridmap.CellFree), got.Cell(1, 1))
}

func TestDecodeOccupancyGridMapRejectsTruncatedPayload(t *testing.T) {
	_, err := DecodeOccupancyGridMap(make([]byte, 10))
	assert.Error(t, err)
}
