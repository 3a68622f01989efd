package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/obatracker-data/internal/common/config"
	"github.com/obatracker-data/internal/common/db"
	"github.com/obatracker-data/internal/common/discord"
	"github.com/obatracker-data/internal/common/logger"
	"github.com/obatracker-data/internal/common/maintenance"
	"github.com/obatracker-data/internal/onebusaway"
	"github.com/obatracker-data/internal/stopinfo"
	"github.com/obatracker-data/internal/tracker"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic("Failed to load .env file: " + err.Error())
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	stopsFile, err := config.LoadStopsFile(cfg.API.StopsFile)
	if err != nil {
		panic("Failed to load stops file: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Console:    cfg.Logging.Console,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   true,
	})

	log.Info("OBA Tracker Data Service starting",
		"version", "1.0.0",
		"log_level", cfg.Logging.Level,
		"api_base_url", cfg.API.BaseURL,
		"stops", len(stopsFile.Stops),
	)

	// Connect to database
	database, err := db.New(cfg.Database.ConnectionString(), log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure database schema", "error", err)
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	// Discord notifier (optional)
	var notifier *discord.Client
	if cfg.Discord.WebhookURL != "" {
		notifier = discord.NewClient(cfg.Discord.WebhookURL)
		log.Info("Discord notifications enabled")
	}

	// Sensor state publisher. It gets its own lifetime rather than the
	// shutdown context so it keeps flushing while the pollers wind down.
	publisher := tracker.NewPublisher(database, log)
	if err := publisher.Start(context.Background()); err != nil {
		log.Fatal("Failed to start publisher", "error", err)
	}

	gateway := onebusaway.NewClient(cfg.API.BaseURL, cfg.API.Key, log)
	registry := db.NewStopRegistry(database)

	var alerter tracker.Alerter
	if notifier != nil {
		alerter = tracker.NewDiscordAlerter(notifier, log)
	}

	// Arrival tracker
	manager := tracker.NewManager(
		stopsFile.Stops,
		tracker.TiersFromConfig(stopsFile.Polling.Tiers),
		gateway,
		publisher,
		alerter,
		registry,
		log,
	)
	if err := manager.Start(ctx); err != nil {
		log.Fatal("Failed to start arrival tracker", "error", err)
	}

	stopIDs := make([]string, 0, len(stopsFile.Stops))
	for _, stop := range stopsFile.Stops {
		stopIDs = append(stopIDs, stop.ID)
	}

	// Periodic stop metadata refresh
	refresher := stopinfo.NewRefresher(stopinfo.Config{
		StopIDs:         stopIDs,
		RefreshInterval: cfg.StopInfo.RefreshInterval,
	}, gateway, registry, log)
	wg.Add(1)
	go func(r *stopinfo.Refresher) {
		defer wg.Done()
		if err := r.Start(ctx); err != nil {
			log.Error("Stop info refresher error", "error", err)
		}
	}(refresher)

	// History retention
	cleanupCfg := maintenance.DefaultSchedulerConfig()
	cleanupCfg.CleanupInterval = cfg.Maintenance.CleanupInterval
	cleanupCfg.HistoryRetention = cfg.Maintenance.HistoryRetention
	cleanupCfg.ActiveStopIDs = stopIDs
	cleanup := maintenance.NewCleanupScheduler(database, log, cleanupCfg)
	if err := cleanup.Start(ctx); err != nil {
		log.Fatal("Failed to start cleanup scheduler", "error", err)
	}

	if notifier != nil {
		if err := notifier.SendServiceNotice(ctx, "OBA Tracker started",
			fmt.Sprintf("Tracking arrivals for %d stops", len(stopIDs))); err != nil {
			log.Warn("Failed to send startup notice", "error", err)
		}
	}

	// Wait for shutdown signal
	<-sigChan
	log.Info("Shutdown signal received")

	cancel()
	manager.Stop()
	cleanup.Stop()
	wg.Wait()

	// Stop the publisher last so the final cycle's updates flush.
	publisher.Stop()

	if notifier != nil {
		noticeCtx, noticeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := notifier.SendServiceNotice(noticeCtx, "OBA Tracker stopped", "Service shut down cleanly"); err != nil {
			log.Warn("Failed to send shutdown notice", "error", err)
		}
		noticeCancel()
	}

	log.Info("OBA Tracker Data Service stopped")
}
