package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/zias-project/zias/server/internal/config"
	dbpkg "github.com/zias-project/zias/server/internal/db"
	"github.com/zias-project/zias/server/internal/httpapi"
	"github.com/zias-project/zias/server/internal/ingest"
	"github.com/zias-project/zias/server/internal/zias/service"
	"github.com/zias-project/zias/server/internal/zias/store"
	"github.com/zias-project/zias/server/internal/zias/store/memory"
	redisstore "github.com/zias-project/zias/server/internal/zias/store/redis"
	"github.com/zias-project/zias/server/internal/zias/store/sqlite"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "zias-server ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Durable stores
	database, err := dbpkg.Open(ctx, dbpkg.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer database.Close()

	writer := dbpkg.NewWorker(database)
	defer writer.Close()

	pingStore := sqlite.NewPingStore(database, writer)
	eventStore := sqlite.NewEventStore(database, writer)
	bleStore := sqlite.NewBLEEventStore(database, writer)
	deviceStore := sqlite.NewDeviceStore(database, writer)

	// Device role registry
	registry := service.NewDeviceRegistry(deviceStore)
	if cfg.RolesFile != "" {
		n, err := registry.LoadRolesFile(ctx, cfg.RolesFile)
		if err != nil {
			logger.Fatalf("load roles file: %v", err)
		}
		logger.Printf("loaded %d device roles from %s", n, cfg.RolesFile)
	} else if cfg.Env == "dev" {
		if err := dbpkg.SeedDev(ctx, database); err != nil {
			logger.Fatalf("seed dev devices: %v", err)
		}
		logger.Printf("no roles file configured; seeded dev devices")
	}

	// Presence backend
	var presenceStore store.PresenceStore
	if cfg.PresenceBackend == "redis" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		presenceStore = redisstore.NewPresenceStore(rdb, cfg.PresenceTTL)
		logger.Printf("presence backend: redis at %s (ttl=%s)", cfg.RedisAddr, cfg.PresenceTTL)
	} else {
		presenceStore = memory.NewPresenceStore(cfg.PresenceTTL)
		logger.Printf("presence backend: memory (ttl=%s)", cfg.PresenceTTL)
	}

	// Engine
	normalizer := service.NewNormalizer(logger)
	presence := service.NewPresenceManager(presenceStore, logger)
	debounce := service.NewDebouncer(cfg.AntiTailgating)
	correlator := service.NewCorrelator(
		pingStore, eventStore, registry, presence, debounce,
		cfg.CorrelationWindow, logger,
	)
	correlator.Start(ctx)
	defer correlator.Stop()

	bleSvc := service.NewBLEService(eventStore, bleStore, presence, debounce, logger)

	// Batch execution mode
	sweeper := service.NewSweeper(pingStore, correlator, service.SweeperConfig{
		Interval: cfg.SweepInterval,
		Lookback: cfg.SweepLookback,
	}, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// Raw signal retention
	pruner := service.NewRetentionPruner(pingStore, bleStore, service.PrunerConfig{
		RetentionDays: cfg.RetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	// MQTT ingestion
	mq := ingest.New(ingest.Config{
		Broker:      cfg.MQTTBroker,
		Port:        cfg.MQTTPort,
		Username:    cfg.MQTTUsername,
		Password:    cfg.MQTTPassword,
		TopicPrefix: cfg.MQTTTopicPrefix,
		Workers:     cfg.IngestWorkers,
	}, normalizer, correlator, bleSvc, registry, logger)
	if err := mq.Start(); err != nil {
		// The HTTP beacon path and batch sweep still work without the
		// broker; paho reconnects in the background.
		logger.Printf("mqtt start: %v (continuing, will retry)", err)
	}
	defer mq.Stop()

	// HTTP API
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:     logger,
		Addr:       cfg.HTTPAddr,
		Presence:   presence,
		Events:     eventStore,
		Normalizer: normalizer,
		BLE:        bleSvc,
		DBHealthy: func(ctx context.Context) bool {
			return database.PingContext(ctx) == nil
		},
		MQTTHealthy: mq.Connected,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
