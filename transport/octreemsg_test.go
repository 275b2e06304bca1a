package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amcl-go/gridmap"
)

func TestOctreeFieldRoundTrip(t *testing.T) {
	f := gridmap.NewOctreeField(1.0, 2.0, 0.5, 0.1, 4, 4, 3, 5.0, 1.2)
	f.SetVoxelDist(1, 1, 1, 0.05)
	f.SetVoxelDist(2, 3, 0, 1.5)

	data := EncodeOctreeField(f)
	got, err := DecodeOctreeField(data)
	require.NoError(t, err)

	assert.Equal(t, f.SizeX, got.SizeX)
	assert.Equal(t, f.SizeY, got.SizeY)
	assert.Equal(t, f.SizeZ, got.SizeZ)
	assert.InDelta(t, f.Scale, got.Scale, 1e-12)
	assert.InDelta(t, f.LidarHeight, got.LidarHeight, 1e-12)

	d, ok := got.DistanceAt3(1.0+0.1*(1-2), 2.0+0.1*(1-2), 0.5+0.1*(1-1))
	require.True(t, ok)
	assert.InDelta(t, 0.05, d, 1e-9)
}

func TestDecodeOctreeFieldRejectsTruncatedPayload(t *testing.T) {
	_, err := DecodeOctreeField(make([]byte, 10))
	assert.Error(t, err)
}
