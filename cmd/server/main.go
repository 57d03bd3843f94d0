package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/playmatatu/particles/internal/api"
	"github.com/playmatatu/particles/internal/config"
	"github.com/playmatatu/particles/internal/database"
	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/migrations"
	"github.com/playmatatu/particles/internal/presets"
	"github.com/playmatatu/particles/internal/redis"
	"github.com/playmatatu/particles/internal/runs"
	"github.com/playmatatu/particles/internal/scene"
	"github.com/playmatatu/particles/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database is optional; presets, runs and audit need it.
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if db != nil {
		defer db.Close()
		if cfg.MigrateOnStart {
			log.Println("↗ Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
	}

	// Redis is optional; without it frames go straight to local clients.
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	var (
		framePub ws.FramePublisher
		statsPub runs.StatsPublisher
	)
	if rdb != nil {
		defer rdb.Close()
		pub := redis.NewPublisher(rdb)
		framePub, statsPub = pub, pub
	}

	setup, err := scene.Build(cfg.Sim.Scene, cfg.Sim)
	if err != nil {
		log.Fatalf("Failed to build scene: %v", err)
	}
	eng, err := engine.New(cfg.Sim, setup)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	runID := 0
	if db != nil {
		if err := presets.Apply(db, eng.Controls()); err != nil {
			log.Printf("[PRESET] Failed to apply presets: %v", err)
		}
		instance, _ := os.Hostname()
		if runID, err = runs.Begin(db, instance, eng.Config()); err != nil {
			log.Printf("[STATS] Failed to record run start: %v", err)
		}
	}

	hub := ws.NewHub()
	go hub.Run(ctx)
	if rdb != nil {
		go ws.StartFrameSubscriber(ctx, rdb, hub)
	}
	go ws.RunFramePump(ctx, eng.Frames(), hub, framePub)
	go runs.StartStatsWorker(ctx, db, statsPub, eng, runID, time.Duration(cfg.StatsIntervalSecs)*time.Second)

	if err := eng.Start(); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, db, eng, hub, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Printf("Starting particles server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	if err := eng.Stop(); err != nil {
		log.Printf("[ENGINE] stop: %v", err)
	}
	if db != nil && runID > 0 {
		if err := runs.Finish(db, runID, eng.Stats()); err != nil {
			log.Printf("[STATS] Failed to record run stop: %v", err)
		}
	}
}
