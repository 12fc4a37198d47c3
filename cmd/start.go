package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rfid-portal/core/config"
	"rfid-portal/core/events"
	"rfid-portal/core/loader"
	"rfid-portal/core/logger"
	"rfid-portal/core/middleware/auth"
	"rfid-portal/core/middleware/rayid"
	"rfid-portal/core/storage"
	"rfid-portal/core/store"

	"rfid-portal/feature/emulator"
	"rfid-portal/feature/inventory"
	"rfid-portal/feature/match"
	"rfid-portal/feature/reader"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the RFID portal server",
	Long:  `Starts the HTTP server, the websocket hub and the reader session supervisor.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServer("")
	},
}

// runServer boots the portal. A non-empty driverOverride replaces the
// configured device driver (used by the emulate command).
func runServer(driverOverride string) {
	// 1. Load Configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if driverOverride != "" {
		cfg.Reader.Driver = driverOverride
	}

	// 2. Initialize Logger
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	// 3. Open the snapshot store (optional: the portal runs without
	// persistence, it just loses the inventory on restart)
	var db *gorm.DB
	if conn, err := store.Open(cfg.Store); err != nil {
		logg.Warn("Optional snapshot store unavailable", zap.Error(err))
	} else {
		db = conn
		logg.Info("Snapshot store opened", zap.String("path", cfg.Store.Path))
	}

	// 4. Websocket hub for dashboard pushes
	hub := events.NewHub(logg)
	defer hub.Close()

	// 5. Optional upload archive
	var archive storage.Client
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Warn("Upload archive unavailable", zap.Error(err))
		} else if err := storage.EnsureBucket(context.Background(), client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			logg.Warn("Upload archive bucket unavailable", zap.Error(err))
		} else {
			archive = client
		}
	}

	// 6. Device driver
	var dev reader.Device
	switch cfg.Reader.Driver {
	case "emulator":
		dev = emulator.NewDevice(cfg.Emulator, logg)
	default:
		dev = reader.NewChainwayDevice(logg, nil)
	}

	// 7. Reader session supervisor
	buffer := reader.NewBuffer(cfg.Reader.BufferSize)
	sup, err := reader.NewSupervisor(cfg.Reader, dev, buffer, hub, logg)
	if err != nil {
		logg.Fatal("Failed to build reader supervisor", zap.Error(err))
	}
	defer sup.Shutdown(context.Background())

	// 8. Features: inventory index feeds the match engine, the
	// match engine consumes the supervisor's accepted readings.
	index := inventory.NewIndex()
	invFeature := inventory.NewFeature(cfg.Inventory, index, db, archive, cfg.Storage.Bucket, hub, logg)
	if err := invFeature.Service().Restore(context.Background()); err != nil {
		logg.Warn("Failed to restore persisted inventory", zap.Error(err))
	}
	matchFeature := match.NewFeature(cfg.Match, index, hub, logg)
	sup.SetSink(matchFeature.Engine().Offer)

	mgr := loader.NewManager()
	mgr.Register(reader.NewFeature(sup, logg))
	mgr.Register(invFeature)
	mgr.Register(matchFeature)

	// 9. Fiber app
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true, // We will log our own startup message
		// Fiber's default 4MB body limit would reject uploads below
		// the configured spreadsheet cap before the handler runs.
		BodyLimit: cfg.Inventory.BodyLimit(),
	})

	// Middleware Registration
	// RayID must be first to trace everything
	app.Use(rayid.New())
	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Info("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	// Websocket endpoint stays public so dashboards can stream
	app.Use("/ws", events.Upgrade)
	app.Get("/ws", hub.Handler())

	// Auth protects the API surface
	api := app.Group("/api", auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

	if err := mgr.LoadAll(api); err != nil {
		logg.Fatal("Failed to load features", zap.Error(err))
	}

	// 10. Start Server
	go func() {
		logg.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logg.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// 11. Graceful Shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logg.Info("Shutting down server...")
	matchFeature.Engine().Stop()
	_ = app.Shutdown()
}

func init() {
	RootCmd.AddCommand(startCmd)
}
