package persist

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amcl-go/pose"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pose.yaml")

	mean := pose.Vector{X: 1.5, Y: -2.25, Yaw: 0.7853981633974483}
	err := Save(path, "map", mean, 0.04, 0.09, 0.01)
	require.NoError(t, err)

	loaded, cxx, cyy, caa := Load(path, pose.Vector{})
	assert.InDelta(t, mean.X, loaded.X, 1e-9)
	assert.InDelta(t, mean.Y, loaded.Y, 1e-9)
	assert.InDelta(t, mean.Yaw, loaded.Yaw, 1e-9)
	assert.InDelta(t, 0.04, cxx, 1e-9)
	assert.InDelta(t, 0.09, cyy, 1e-9)
	assert.InDelta(t, 0.01, caa, 1e-9)
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	def := pose.Vector{X: 9, Y: 9, Yaw: 1}
	m, cxx, cyy, caa := Load(filepath.Join(t.TempDir(), "missing.yaml"), def)
	assert.Equal(t, def, m)
	assert.Zero(t, cxx)
	assert.Zero(t, cyy)
	assert.Zero(t, caa)
}

func TestLoadLegacyStateFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.yaml")
	content := "state:\n  - [1.0, 2.0, 0.5]\n  - [0.1, 0.2, 0.05]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	m, cxx, cyy, caa := Load(path, pose.Vector{})
	assert.InDelta(t, 1.0, m.X, 1e-9)
	assert.InDelta(t, 2.0, m.Y, 1e-9)
	assert.InDelta(t, 0.5, m.Yaw, 1e-9)
	assert.InDelta(t, 0.1, cxx, 1e-9)
	assert.InDelta(t, 0.2, cyy, 1e-9)
	assert.InDelta(t, 0.05, caa, 1e-9)
}

func TestLoadNaNFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nan.yaml")
	content := "state:\n  - [.nan, 2.0, 0.5]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	def := pose.Vector{X: 5, Y: 5, Yaw: 0}
	m, _, _, _ := Load(path, def)
	assert.Equal(t, def, m)
}

func TestQuaternionToYawIdentity(t *testing.T) {
	assert.InDelta(t, 0.0, quaternionToYaw(orientation{W: 1}), 1e-9)
	assert.InDelta(t, math.Pi/2, quaternionToYaw(orientation{Z: math.Sin(math.Pi / 4), W: math.Cos(math.Pi / 4)}), 1e-9)
}
