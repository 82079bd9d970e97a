package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deckiq-backend/internal/config"
	"deckiq-backend/internal/database"
	"deckiq-backend/internal/handlers"
	"deckiq-backend/internal/repository"
	"deckiq-backend/internal/router"
	"deckiq-backend/internal/services"
	"deckiq-backend/internal/storage"
	"deckiq-backend/internal/study"
	"deckiq-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting DeckIQ Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Storage Backend ────
	store, cleanup, err := newStore(cfg)
	if err != nil {
		log.Fatalf("✗ Storage initialization failed: %v", err)
	}
	defer cleanup()
	log.Printf("✓ Storage ready (%s backend)", cfg.StorageBackend)

	// ──── Step 3: Start Persistence Worker ────
	persister := worker.NewPersister(store)
	persister.Start()
	log.Println("✓ Persistence worker started")

	// ──── Step 4: Load Collections Into Memory ────
	repo := repository.NewDeckRepo(store, persister)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	repo.Load(loadCtx)
	cancelLoad()
	log.Println("✓ Decks and study results loaded")

	// ──── Step 5: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiConcurrentReqs)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Println("✓ Gemini Flash client initialized")

	// ──── Initialize Services ────
	youtubeService := services.NewYouTubeService()
	fileExtractService := services.NewFileExtractService()
	deckService := services.NewDeckService(repo, geminiService, fileExtractService, youtubeService)
	studyManager := study.NewManager(repo)

	// ──── Initialize Handlers ────
	deckHandler := handlers.NewDeckHandler(repo)
	createHandler := handlers.NewCreateHandler(deckService, fileExtractService)
	studyHandler := handlers.NewStudyHandler(studyManager)
	dashboardHandler := handlers.NewDashboardHandler(repo)

	// ──── Step 6: Start HTTP Server ────
	r := router.New(deckHandler, createHandler, studyHandler, dashboardHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: stop accepting requests, then flush pending
	// snapshots before the process exits.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)

		persister.Stop()
	}()

	log.Printf("✓ DeckIQ Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

// newStore builds the configured storage backend. The returned cleanup
// closes any underlying connections.
func newStore(cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.StorageBackend {
	case "file":
		fs, err := storage.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil

	case "redis":
		client, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewRedisStore(client), func() { client.Close() }, nil

	case "postgres":
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		ps, err := storage.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return ps, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_BACKEND %q (want file, redis, or postgres)", cfg.StorageBackend)
	}
}
