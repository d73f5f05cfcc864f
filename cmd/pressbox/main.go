package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/pressbox/internal/api/rest"
	"github.com/fortuna/pressbox/internal/api/websocket"
	"github.com/fortuna/pressbox/internal/config"
	"github.com/fortuna/pressbox/internal/espn"
	"github.com/fortuna/pressbox/internal/ingest"
	"github.com/fortuna/pressbox/internal/jobs"
	"github.com/fortuna/pressbox/internal/scheduler"
	"github.com/fortuna/pressbox/internal/store"
	"github.com/fortuna/pressbox/internal/store/repository"
	"github.com/fortuna/pressbox/internal/stream"
)

const (
	serviceName    = "pressbox"
	serviceVersion = "1.0.0"
)

func main() {
	log.Printf("Starting %s v%s - ESPN Sports Data Service", serviceName, serviceVersion)

	cfg := config.Load()

	// Initialize database connection
	db, err := store.NewDatabase(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer db.Close()

	log.Println("✓ Connected to Postgres")

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// Seed initial data (non-fatal - may already exist)
	if err := db.SeedData(); err != nil {
		log.Printf("⚠️  Seed data warning: %v (continuing anyway)", err)
	} else {
		log.Println("✓ Seed data applied")
	}

	// Connect to Redis with retry logic; in compose setups Redis may
	// come up after us.
	redisClient := connectRedis(cfg.Redis.URL)
	defer redisClient.Close()

	log.Println("✓ Connected to Redis")

	// Initialize the ESPN client and ingestion pipeline
	espnClient := espn.NewClient(espn.Config{
		SiteBaseURL: cfg.ESPN.SiteBaseURL,
		CoreBaseURL: cfg.ESPN.CoreBaseURL,
		Timeout:     cfg.ESPN.Timeout,
		MaxRetries:  cfg.ESPN.MaxRetries,
		Backoff:     cfg.ESPN.Backoff,
	})

	eventRepo := repository.NewEventRepository(db)
	ingester := ingest.New(ingest.Config{
		Client:    espnClient,
		Reference: repository.NewReferenceRepository(db),
		Teams:     repository.NewTeamRepository(db),
		Venues:    repository.NewVenueRepository(db),
		Events:    eventRepo,
		Athletes:  repository.NewAthleteRepository(db),
		Publisher: stream.NewPublisher(redisClient, cfg.Redis.StreamName),
	})

	// Start job workers
	jobService := jobs.NewService(jobs.NewRepository(db), jobs.NewIngestRunner(ingester), cfg.Jobs.Workers, nil)
	jobService.Start()

	log.Printf("✓ Job queue started (%d worker(s))", cfg.Jobs.Workers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket hub and stream consumer fan live updates out to clients
	var wsHandler http.Handler
	if cfg.Server.WSEnabled {
		hub := websocket.NewHub()
		go hub.Run(ctx)

		consumer := stream.NewConsumer(redisClient, cfg.Redis.StreamName, hub)
		go consumer.Start(ctx)

		wsHandler = websocket.ServeWS(hub)
		log.Println("✓ WebSocket hub and stream consumer started")
	}

	// Start scheduler in background
	var orchestrator *scheduler.Orchestrator
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.DefaultConfig()
		schedulerConfig.ScoreboardInterval = cfg.Scheduler.ScoreboardInterval
		schedulerConfig.TeamsInterval = cfg.Scheduler.TeamsInterval
		schedulerConfig.LivePollInterval = cfg.Scheduler.LivePollInterval
		schedulerConfig.EnableLivePolling = cfg.Scheduler.LivePollingEnabled

		orchestrator = scheduler.NewOrchestrator(jobService, ingester, eventRepo, schedulerConfig)
		go orchestrator.Start(ctx)

		log.Println("✓ Scheduler started")
	}

	// Initialize REST API server
	restServer := rest.NewServer(rest.Config{
		Addr:         cfg.Server.Addr,
		AllowedHosts: cfg.Server.AllowedHosts,
		DB:           db,
		Ingester:     ingester,
		Jobs:         jobService,
		WSHandler:    wsHandler,
	})
	go func() {
		if err := restServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("REST server error: %v", err)
		}
	}()

	log.Printf("✓ REST API listening on %s", cfg.Server.Addr)
	log.Printf("✓ %s v%s started successfully", serviceName, serviceVersion)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down pressbox gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop accepting requests first, then drain background work.
	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST server shutdown error: %v", err)
	}
	if orchestrator != nil {
		orchestrator.Stop()
	}
	if err := jobService.Shutdown(shutdownCtx); err != nil {
		log.Printf("Job queue shutdown error: %v", err)
	}
	cancel()

	log.Println("Pressbox stopped")
}

// connectRedis dials Redis, retrying for up to a minute before giving up.
func connectRedis(redisURL string) *redis.Client {
	maxRetries := 30
	retryDelay := 2 * time.Second

	log.Println("Connecting to Redis...")
	for i := 0; ; i++ {
		client, err := stream.Connect(redisURL)
		if err == nil {
			return client
		}

		if i >= maxRetries-1 {
			log.Fatalf("Failed to connect to Redis after %d attempts: %v", maxRetries, err)
		}
		log.Printf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
		time.Sleep(retryDelay)
	}
}
