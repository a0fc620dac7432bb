package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/ledwall/internal/config"
	"github.com/banshee-data/ledwall/internal/ddp"
	"github.com/banshee-data/ledwall/internal/display"
	"github.com/banshee-data/ledwall/internal/matrix"
	"github.com/banshee-data/ledwall/internal/scenes"
	"github.com/banshee-data/ledwall/internal/stats"
	"github.com/banshee-data/ledwall/internal/version"
	"github.com/banshee-data/ledwall/internal/wled"
)

var (
	configPath  = flag.String("config", "", "Path to a wall config JSON file (defaults apply when empty)")
	sceneName   = flag.String("scene", "", "Scene to run (fireplace, snowfall, life, snake); overrides config")
	deviceHost  = flag.String("host", "", "Controller hostname or IP; overrides config")
	devMode     = flag.Bool("dev", false, "Run against a mock transport instead of a real controller")
	statsDB     = flag.String("stats-db", "", "Record per-frame stats to this sqlite file; overrides config")
	migrateCmd  = flag.String("migrate", "", "Run stats db migrations (up, down, status) and exit")
	migrations  = flag.String("migrations", "migrations", "Path to the migrations directory")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func buildScene(name string, width, height int) (scenes.Scene, error) {
	switch name {
	case "fireplace":
		return scenes.NewFireplace(width, height, scenes.FireplaceConfig{})
	case "snowfall":
		return scenes.NewSnowfall(width, height, scenes.SnowfallConfig{})
	case "life":
		return scenes.NewLife(width, height, scenes.LifeConfig{RandomDensity: 0.3})
	case "snake":
		return scenes.NewSnake(width, height, scenes.SnakeConfig{})
	default:
		return nil, fmt.Errorf("unknown scene %q (want fireplace, snowfall, life or snake)", name)
	}
}

func runMigrations(dbPath, migrationsDir, cmd string) error {
	if dbPath == "" {
		return fmt.Errorf("migrations require a stats db path (-stats-db or stats_db_path in config)")
	}
	store, err := stats.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	switch cmd {
	case "up":
		return store.MigrateUp(migrationsDir)
	case "down":
		return store.MigrateDown(migrationsDir)
	case "status":
		v, dirty, err := store.MigrateVersion(migrationsDir)
		if err != nil {
			return err
		}
		log.Printf("stats db at version %d (dirty=%v)", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q (want up, down or status)", cmd)
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("ledwall %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.EmptyWallConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadWallConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	host := cfg.GetDeviceHost()
	if *deviceHost != "" {
		host = *deviceHost
	}
	scene := cfg.GetScene()
	if *sceneName != "" {
		scene = *sceneName
	}
	statsPath := cfg.GetStatsDBPath()
	if *statsDB != "" {
		statsPath = *statsDB
	}

	if *migrateCmd != "" {
		if err := runMigrations(statsPath, *migrations, *migrateCmd); err != nil {
			log.Fatalf("migrate %s failed: %v", *migrateCmd, err)
		}
		return
	}

	width := cfg.GetMatrixWidth()
	height := cfg.GetMatrixHeight()
	protocol := cfg.GetProtocol()

	var dialer ddp.UDPDialer
	if *devMode {
		dialer = ddp.NewMockUDPDialer(ddp.NewMockUDPConn())
		log.Printf("dev mode: datagrams are captured, not sent")
	}

	var sender display.FrameSender
	var sink display.PixelSink

	if *devMode && protocol != display.ProtocolJSON {
		// No device handshake in dev mode: build the datagram client
		// directly over the mock dialer.
		client, err := ddp.NewClient(ddp.ClientConfig{
			Host:               host,
			Port:               cfg.GetDDPPort(),
			Destination:        cfg.GetDestination(),
			MaxPixelsPerPacket: cfg.GetMaxPixelsPerPacket(),
			Dialer:             dialer,
		})
		if err != nil {
			log.Fatalf("failed to create datagram client: %v", err)
		}
		defer client.Close()
		sender = client
	} else {
		controller, err := wled.NewController(wled.ControllerConfig{
			Host:    host,
			Port:    cfg.GetDeviceHTTPPort(),
			Timeout: cfg.GetDeviceTimeout(),
			Dialer:  dialer,
		})
		if err != nil {
			log.Fatalf("failed to create controller client: %v", err)
		}
		defer controller.Close()

		info, err := controller.Info()
		if err != nil {
			log.Fatalf("failed to reach controller at %s: %v", host, err)
		}
		log.Printf("connected to %q (WLED %s, %d LEDs)", info.Name, info.Version, info.LEDs.Count)
		if info.LEDs.Count != width*height {
			log.Printf("warning: controller reports %d LEDs, matrix is %dx%d (%d)",
				info.LEDs.Count, width, height, width*height)
		}

		if err := controller.SetBrightness(cfg.GetBrightness()); err != nil {
			log.Fatalf("failed to set brightness: %v", err)
		}

		sink = controller
		if protocol != display.ProtocolJSON {
			client, err := controller.DDPClient(cfg.GetDDPPort(), cfg.GetDestination())
			if err != nil {
				log.Fatalf("failed to create datagram client: %v", err)
			}
			sender = client
		}
	}

	output, err := display.NewOutput(display.Config{
		Width:           width,
		Height:          height,
		Wiring:          cfg.GetWiring(),
		Protocol:        protocol,
		SparseThreshold: cfg.GetSparseThreshold(),
		Sender:          sender,
		Sink:            sink,
	})
	if err != nil {
		log.Fatalf("failed to create display output: %v", err)
	}

	sc, err := buildScene(scene, width, height)
	if err != nil {
		log.Fatalf("failed to create scene: %v", err)
	}

	var observer scenes.FrameObserver
	if statsPath != "" {
		store, err := stats.NewStore(statsPath, scene)
		if err != nil {
			log.Fatalf("failed to open stats db: %v", err)
		}
		defer store.Close()
		log.Printf("recording frame stats to %s (session %s)", statsPath, store.SessionID())

		observer = func(frame int, report display.FrameReport, renderTime time.Duration) {
			if err := store.RecordFrame(frame, report, renderTime); err != nil {
				log.Printf("stats: %v", err)
			}
		}
	}

	runner, err := scenes.NewRunner(output, sc, scenes.RunnerConfig{
		TargetFPS: cfg.GetTargetFPS(),
		Observer:  observer,
	})
	if err != nil {
		log.Fatalf("failed to create runner: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("running scene %q on %dx%d wall via %s", scene, width, height, protocol)
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("render loop failed: %v", err)
	}

	log.Printf("shutting down, blanking wall")
	if err := output.Clear(matrix.Color{}); err != nil {
		log.Printf("failed to blank wall: %v", err)
	}
	log.Printf("graceful shutdown complete")
}
