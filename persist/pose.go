// Package persist saves and loads the localizer's last published pose as
// YAML, atomically, so a restart can resume near its previous estimate.
package persist

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"amcl-go/pose"
)

type header struct {
	FrameID string `yaml:"frame_id"`
	Stamp   struct {
		Sec  int64 `yaml:"sec"`
		Nsec int64 `yaml:"nsec"`
	} `yaml:"stamp"`
}

type position struct {
	X, Y, Z float64
}

type orientation struct {
	X, Y, Z, W float64
}

type poseBlock struct {
	Position    position    `yaml:"position"`
	Orientation orientation `yaml:"orientation"`
}

type poseWithCovariance struct {
	Pose       poseBlock  `yaml:"pose"`
	Covariance [36]float64 `yaml:"covariance"`
}

// Document is the canonical on-disk schema for a persisted pose.
type Document struct {
	Header header              `yaml:"header"`
	Pose   poseWithCovariance `yaml:"pose"`
}

// legacyDocument is the deprecated schema still found in the wild: a
// top-level `state:` key holding [[x, y, yaw], [cov_xx, cov_yy, cov_aa]].
type legacyDocument struct {
	State [][]float64 `yaml:"state"`
}

// Save writes mean/cov as a Document to path, atomically via a temp file in
// the same directory followed by rename.
func Save(path string, frameID string, mean pose.Vector, covXX, covYY, covAA float64) error {
	doc := Document{}
	doc.Header.FrameID = frameID

	doc.Pose.Pose.Position = position{X: mean.X, Y: mean.Y, Z: 0}
	sz := math.Sin(mean.Yaw / 2)
	cz := math.Cos(mean.Yaw / 2)
	doc.Pose.Pose.Orientation = orientation{X: 0, Y: 0, Z: sz, W: cz}

	doc.Pose.Covariance[0*6+0] = covXX
	doc.Pose.Covariance[1*6+1] = covYY
	doc.Pose.Covariance[5*6+5] = covAA

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshaling pose YAML: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pose-*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("creating temp pose file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp pose file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp pose file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp pose file: %w", err)
	}
	return nil
}

// Load reads a persisted pose from path. It recognizes both the canonical
// schema and the legacy top-level `state:` array format, translating the
// latter to (mean, covXX, covYY, covAA). If the file is absent it silently
// returns defaultMean with zero covariance; if it is unreadable, malformed,
// or the loaded x, y, yaw or one of the three variances is NaN (or the pose
// is otherwise not finite), it logs a warning and returns the same default
// rather than failing the caller's startup.
func Load(path string, defaultMean pose.Vector) (mean pose.Vector, covXX, covYY, covAA float64) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("persist: reading %s: %v, using default pose", path, err)
		}
		return defaultMean, 0, 0, 0
	}

	var legacy legacyDocument
	if err := yaml.Unmarshal(data, &legacy); err == nil && legacy.State != nil {
		return loadLegacy(legacy, defaultMean)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		log.Printf("persist: parsing %s: %v, using default pose", path, err)
		return defaultMean, 0, 0, 0
	}

	yaw := quaternionToYaw(doc.Pose.Pose.Orientation)
	m := pose.Vector{X: doc.Pose.Pose.Position.X, Y: doc.Pose.Pose.Position.Y, Yaw: yaw}
	cxx := doc.Pose.Covariance[0*6+0]
	cyy := doc.Pose.Covariance[1*6+1]
	caa := doc.Pose.Covariance[5*6+5]

	if !m.Finite() || math.IsNaN(cxx) || math.IsNaN(cyy) || math.IsNaN(caa) {
		log.Printf("persist: NaN in %s, using default pose", path)
		return defaultMean, 0, 0, 0
	}
	return m, cxx, cyy, caa
}

func loadLegacy(doc legacyDocument, defaultMean pose.Vector) (pose.Vector, float64, float64, float64) {
	if len(doc.State) < 1 || len(doc.State[0]) < 3 {
		log.Printf("persist: malformed legacy state, using default pose")
		return defaultMean, 0, 0, 0
	}
	m := pose.Vector{X: doc.State[0][0], Y: doc.State[0][1], Yaw: doc.State[0][2]}
	var cxx, cyy, caa float64
	if len(doc.State) >= 2 && len(doc.State[1]) >= 3 {
		cxx, cyy, caa = doc.State[1][0], doc.State[1][1], doc.State[1][2]
	}
	if !m.Finite() || math.IsNaN(cxx) || math.IsNaN(cyy) || math.IsNaN(caa) {
		log.Printf("persist: NaN in legacy state, using default pose")
		return defaultMean, 0, 0, 0
	}
	return m, cxx, cyy, caa
}

func quaternionToYaw(o orientation) float64 {
	return math.Atan2(2*(o.W*o.Z+o.X*o.Y), 1-2*(o.Y*o.Y+o.Z*o.Z))
}
