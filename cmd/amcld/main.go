// Command amcld runs the localization engine as a standalone daemon: it
// ingests odometry and scan frames over UDP, drives the particle filter,
// persists the last pose to disk, and optionally broadcasts pose updates to
// websocket clients and records the session to a binary log.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"amcl-go/gridmap"
	"amcl-go/localize"
	"amcl-go/logio"
	"amcl-go/motion"
	"amcl-go/persist"
	"amcl-go/pose"
	"amcl-go/transport"
)

func main() {
	configPath := flag.String("config", "amcl.yaml", "Path to the localizer config YAML")
	mapPath := flag.String("map", "", "Path to a wire-format occupancy grid map file")
	map3dPath := flag.String("map3d", "", "Path to a wire-format octree-derived 3D field file (overrides --map, enables point-cloud scoring)")
	posePath := flag.String("pose-file", "amcl_pose.yaml", "Path to load/save the last published pose")
	poseSaveInterval := flag.Duration("pose-save-interval", 5*time.Second, "How often to persist the current pose (0 disables)")
	robotID := flag.Int("robot-id", 0, "Robot ID this daemon tracks")
	udpPort := flag.Int("port", transport.DefaultPort, "UDP port to listen for odometry/scan frames on")
	httpPort := flag.Int("http", 0, "HTTP/WebSocket port for live pose broadcast. 0 to disable.")
	staticDir := flag.String("static", "", "Directory of static frontend assets to serve alongside the websocket (optional)")
	logPath := flag.String("log", "", "Path to record odometry/scan/map-load events to (optional)")
	sensorOffsetX := flag.Float64("sensor-x", 0, "Sensor offset from base frame, x (meters)")
	sensorOffsetY := flag.Float64("sensor-y", 0, "Sensor offset from base frame, y (meters)")
	sensorOffsetYaw := flag.Float64("sensor-yaw", 0, "Sensor offset from base frame, yaw (radians)")
	forwardUDP := flag.String("forward-udp", "", "Comma-separated UDP addresses to forward pose updates to (legacy consumers)")
	flag.Parse()

	if *mapPath == "" && *map3dPath == "" {
		log.Fatal("--map or --map3d is required")
	}

	cfg, err := localize.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	var grid gridmap.Field
	if *map3dPath != "" {
		data, err := os.ReadFile(*map3dPath)
		if err != nil {
			log.Fatalf("reading 3D field: %v", err)
		}
		field3, err := transport.DecodeOctreeField(data)
		if err != nil {
			log.Fatalf("decoding 3D field: %v", err)
		}
		grid = field3
	} else {
		mapData, err := os.ReadFile(*mapPath)
		if err != nil {
			log.Fatalf("reading map: %v", err)
		}
		occGrid, err := transport.DecodeOccupancyGridMap(mapData)
		if err != nil {
			log.Fatalf("decoding map: %v", err)
		}
		occGrid.UpdateCSpace(cfg.LikelihoodMaxDist)
		grid = occGrid
	}

	initialMean, covXX, covYY, covAA := persist.Load(*posePath, pose.Vector{})
	initialCov := pose.Matrix{
		{covXX, 0, 0},
		{0, covYY, 0},
		{0, 0, covAA},
	}
	if covXX == 0 && covYY == 0 && covAA == 0 {
		initialCov = pose.Matrix{{0.25, 0, 0}, {0, 0.25, 0}, {0, 0, 0.07}}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	loop := localize.NewLoop(cfg, grid, rng)
	loop.SetSensorOffset(pose.Vector{X: *sensorOffsetX, Y: *sensorOffsetY, Yaw: *sensorOffsetYaw})
	loop.SetInitialPose(initialMean, initialCov)

	var hub *transport.Hub
	if *httpPort > 0 {
		hub = transport.NewHub()
		go hub.Run()
		go serveHTTP(*httpPort, hub, *staticDir)
	}

	var rec *logio.Writer
	if *logPath != "" {
		rec, err = logio.NewWriter(*logPath)
		if err != nil {
			log.Fatalf("opening log: %v", err)
		}
		defer rec.Close()
		loadedPath := *mapPath
		if *map3dPath != "" {
			loadedPath = *map3dPath
		}
		if err := rec.WriteMapLoad(time.Now(), loadedPath); err != nil {
			log.Printf("amcld: logging map load: %v", err)
		}
	}

	var forwarder *transport.Forwarder
	if *forwardUDP != "" {
		forwarder = transport.NewForwarder()
		for _, addr := range strings.Split(*forwardUDP, ",") {
			if err := forwarder.AddUDPSink(addr, transport.ForwardPose); err != nil {
				log.Fatalf("adding forward sink %s: %v", addr, err)
			}
		}
		if err := forwarder.Start(); err != nil {
			log.Fatalf("starting forwarder: %v", err)
		}
		defer forwarder.Stop()
	}

	loop.OnPublish = func(p localize.PosePublication) {
		update := transport.PoseUpdate{
			Stamp:     p.Stamp,
			Pose:      p.Pose,
			Cov:       p.Cov,
			Particles: p.Particles,
		}
		if hub != nil {
			hub.PublishPose(update)
		}
		if forwarder != nil {
			forwarder.PublishPose(update)
		}
	}

	var odomMu sync.Mutex
	var latestOdom pose.Vector
	var haveOdom bool

	listener, err := transport.NewListener(*udpPort)
	if err != nil {
		log.Fatalf("opening UDP listener: %v", err)
	}
	listener.OnOdom = func(f transport.OdomFrame) {
		if f.RobotID != *robotID {
			return
		}
		odomMu.Lock()
		prev := latestOdom
		hadPrev := haveOdom
		latestOdom = f.Pose
		haveOdom = true
		odomMu.Unlock()

		var delta pose.Vector
		if hadPrev {
			delta = f.Pose.Sub(prev)
			loop.OdomUpdate(delta, prev.Yaw)
		}
		if rec != nil {
			data := motion.OdomData{Pose: f.Pose, Delta: delta}
			if err := rec.WriteOdom(time.Now(), data); err != nil {
				log.Printf("amcld: logging odom: %v", err)
			}
		}
	}
	listener.OnScan = func(f transport.ScanFrame) {
		if f.RobotID != *robotID {
			return
		}
		odomMu.Lock()
		odomPose := latestOdom
		odomMu.Unlock()

		loop.ScanUpdate(f.Stamp, odomPose, f.Beams)
		if rec != nil {
			if err := rec.WriteScan(time.Now(), f.SensorPose, f.Beams); err != nil {
				log.Printf("amcld: logging scan: %v", err)
			}
		}
	}
	listener.OnCloud = func(f transport.CloudFrame) {
		if f.RobotID != *robotID {
			return
		}
		odomMu.Lock()
		odomPose := latestOdom
		odomMu.Unlock()

		loop.ScanUpdate3D(f.Stamp, odomPose, f.Points)
		if rec != nil {
			if err := rec.WriteCloud(time.Now(), f.SensorPose, f.Points); err != nil {
				log.Printf("amcld: logging point cloud: %v", err)
			}
		}
	}
	go listener.Run()
	defer listener.Stop()

	stopSave := make(chan struct{})
	if *poseSaveInterval > 0 {
		go func() {
			ticker := time.NewTicker(*poseSaveInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mean, cov, ok := loop.CurrentPose()
					if !ok {
						continue
					}
					if err := persist.Save(*posePath, cfg.GlobalFrame, mean, cov[0][0], cov[1][1], cov[2][2]); err != nil {
						log.Printf("amcld: saving pose: %v", err)
					}
				case <-stopSave:
					return
				}
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	close(stopSave)

	log.Println("amcld: shutting down")
	if mean, cov, ok := loop.CurrentPose(); ok {
		if err := persist.Save(*posePath, cfg.GlobalFrame, mean, cov[0][0], cov[1][1], cov[2][2]); err != nil {
			log.Printf("amcld: saving pose on shutdown: %v", err)
		}
	}
}

func serveHTTP(port int, hub *transport.Hub, staticDir string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWs)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	addr := fmt.Sprintf(":%d", port)
	log.Printf("amcld: serving websocket pose updates on %s/ws", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("amcld: http server stopped: %v", err)
	}
}
