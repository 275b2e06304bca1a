// Command amcl-replay drives the localization engine offline from a
// recorded event log, for regression testing and tuning without a live
// robot. It writes every published pose to a CSV and can score the run
// against a reference trajectory.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"

	"amcl-go/localize"
	"amcl-go/logio"
	"amcl-go/pose"
	"amcl-go/transport"
)

func main() {
	logPath := flag.String("log", "", "Input event log written by amcld")
	configPath := flag.String("config", "amcl.yaml", "Path to the localizer config YAML")
	mapPath := flag.String("map", "", "Path to a wire-format occupancy grid map file (overrides the log's map-load record)")
	map3dPath := flag.String("map3d", "", "Path to a wire-format octree-derived 3D field file (overrides --map and the log's map-load record)")
	outPath := flag.String("out", "replay.csv", "Output CSV path: stamp,x,y,yaw")
	refPath := flag.String("ref", "", "Optional reference CSV for RMSE scoring")
	maxShift := flag.Int("max-shift", 50, "Max sample shift searched when scoring against --ref")
	flag.Parse()

	if *logPath == "" {
		log.Fatal("--log required")
	}

	cfg, err := localize.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	reader, err := logio.NewReader(*logPath)
	if err != nil {
		log.Fatalf("opening log: %v", err)
	}
	defer reader.Close()

	rng := rand.New(rand.NewSource(1))
	var loop *localize.Loop
	var initialized bool
	var latestOdom pose.Vector
	var haveOdom bool

	rows := [][]string{{"stamp_unix_nano", "x", "y", "yaw"}}

	loadMap := func(path string) {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("reading map %s: %v", path, err)
		}
		grid, err := transport.DecodeOccupancyGridMap(data)
		if err != nil {
			log.Fatalf("decoding map %s: %v", path, err)
		}
		grid.UpdateCSpace(cfg.LikelihoodMaxDist)
		if loop == nil {
			loop = localize.NewLoop(cfg, grid, rng)
			loop.SetInitialPose(pose.Vector{}, pose.Matrix{{0.25, 0, 0}, {0, 0.25, 0}, {0, 0, 0.07}})
			loop.OnPublish = func(p localize.PosePublication) {
				rows = append(rows, []string{
					strconv.FormatInt(p.Stamp, 10),
					strconv.FormatFloat(p.Pose.X, 'f', 6, 64),
					strconv.FormatFloat(p.Pose.Y, 'f', 6, 64),
					strconv.FormatFloat(p.Pose.Yaw, 'f', 6, 64),
				})
			}
		} else {
			loop.ReplaceMap(grid)
		}
		initialized = true
	}

	loadMap3D := func(path string) {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("reading 3D field %s: %v", path, err)
		}
		field3, err := transport.DecodeOctreeField(data)
		if err != nil {
			log.Fatalf("decoding 3D field %s: %v", path, err)
		}
		if loop == nil {
			loop = localize.NewLoop(cfg, field3, rng)
			loop.SetInitialPose(pose.Vector{}, pose.Matrix{{0.25, 0, 0}, {0, 0.25, 0}, {0, 0, 0.07}})
			loop.OnPublish = func(p localize.PosePublication) {
				rows = append(rows, []string{
					strconv.FormatInt(p.Stamp, 10),
					strconv.FormatFloat(p.Pose.X, 'f', 6, 64),
					strconv.FormatFloat(p.Pose.Y, 'f', 6, 64),
					strconv.FormatFloat(p.Pose.Yaw, 'f', 6, 64),
				})
			}
		} else {
			loop.ReplaceMap(field3)
		}
		initialized = true
	}

	switch {
	case *map3dPath != "":
		loadMap3D(*map3dPath)
	case *mapPath != "":
		loadMap(*mapPath)
	}

	for {
		evt, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			log.Fatalf("reading log: %v", err)
		}
		switch e := evt.(type) {
		case *logio.MapLoadEvent:
			if !initialized {
				loadMap(e.Path)
			}
		case *logio.OdomEvent:
			if !initialized {
				continue
			}
			if haveOdom {
				loop.OdomUpdate(e.Data.Pose.Sub(latestOdom), latestOdom.Yaw)
			}
			latestOdom = e.Data.Pose
			haveOdom = true
		case *logio.ScanEvent:
			if !initialized {
				continue
			}
			loop.ScanUpdate(e.Stamp.UnixNano(), latestOdom, e.Beams)
		case *logio.CloudEvent:
			if !initialized {
				continue
			}
			loop.ScanUpdate3D(e.Stamp.UnixNano(), latestOdom, e.Points)
		}
	}

	if !initialized {
		log.Fatal("no map available: pass --map or ensure the log has a map-load record")
	}

	if err := writeCSV(*outPath, rows); err != nil {
		log.Fatalf("writing %s: %v", *outPath, err)
	}
	log.Printf("amcl-replay: wrote %d poses to %s", len(rows)-1, *outPath)

	if *refPath != "" {
		rmse, shift, err := compareWithRef(*outPath, *refPath, *maxShift)
		if err != nil {
			log.Fatalf("comparing against %s: %v", *refPath, err)
		}
		fmt.Printf("RMSE %.4f m at shift %d\n", rmse, shift)
	}
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// compareWithRef scores a replay's predicted trajectory against a reference
// one by minimum RMSE over a search of small sample-index shifts, the same
// alignment strategy used to score sensor-fusion output against ground truth.
func compareWithRef(predPath, refPath string, maxShift int) (float64, int, error) {
	pred, err := readXY(predPath)
	if err != nil {
		return 0, 0, err
	}
	ref, err := readXY(refPath)
	if err != nil {
		return 0, 0, err
	}
	bestShift := 0
	bestRMSE := math.MaxFloat64
	for shift := -maxShift; shift <= maxShift; shift++ {
		var n int
		var sum float64
		if shift >= 0 {
			n = minInt(len(pred)-shift, len(ref))
			if n <= 0 {
				continue
			}
			for i := 0; i < n; i++ {
				dx := pred[i+shift][0] - ref[i][0]
				dy := pred[i+shift][1] - ref[i][1]
				sum += dx*dx + dy*dy
			}
		} else {
			s := -shift
			n = minInt(len(ref)-s, len(pred))
			if n <= 0 {
				continue
			}
			for i := 0; i < n; i++ {
				dx := pred[i][0] - ref[i+s][0]
				dy := pred[i][1] - ref[i+s][1]
				sum += dx*dx + dy*dy
			}
		}
		rmse := math.Sqrt(sum / float64(n))
		if rmse < bestRMSE {
			bestRMSE = rmse
			bestShift = shift
		}
	}
	return bestRMSE, bestShift, nil
}

func readXY(path string) ([][2]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}
	out := make([][2]float64, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 3 {
			continue
		}
		x, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		y, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			continue
		}
		out = append(out, [2]float64{x, y})
	}
	return out, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
