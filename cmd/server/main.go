package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/macrolens/mealdraft/config"
	httpDelivery "github.com/macrolens/mealdraft/internal/delivery/http"
	"github.com/macrolens/mealdraft/internal/domain"
	"github.com/macrolens/mealdraft/internal/infrastructure/cache"
	"github.com/macrolens/mealdraft/internal/infrastructure/catalogue"
	"github.com/macrolens/mealdraft/internal/infrastructure/diary"
	"github.com/macrolens/mealdraft/internal/infrastructure/transcription"
	"github.com/macrolens/mealdraft/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting MealDraft server v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache: %s, TTL %s", cfg.Cache.Type, cfg.Cache.TTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache(cfg.Cache.CleanupInterval)
	defer memoryCache.Close()

	debug := cfg.Server.Environment == "development"

	catalogueClient := catalogue.NewClient(cfg.Catalogue.APIKey, cfg.Catalogue.BaseURL, cfg.RateLimit.Catalogue)
	catalogueClient.SetDebug(debug)
	log.Printf("Catalogue API: %s (key: %s)", cfg.Catalogue.BaseURL, maskKey(cfg.Catalogue.APIKey))

	transcriptionClient := transcription.NewClient(cfg.Transcription.APIKey, cfg.Transcription.BaseURL)
	transcriptionClient.SetDebug(debug)
	log.Printf("Transcription API: %s (key: %s)", cfg.Transcription.BaseURL, maskKey(cfg.Transcription.APIKey))

	diaryRepo, closeDiary, err := openDiary(ctx, cfg.Diary, debug)
	if err != nil {
		log.Fatalf("Failed to open diary: %v", err)
	}
	defer closeDiary()

	// Initialize usecase layer
	catalogueService := usecase.NewCatalogueService(
		memoryCache,
		catalogueClient,
		usecase.CatalogueServiceConfig{
			CacheTTL:            cfg.Cache.TTL,
			MinQueryLength:      cfg.Matching.MinQueryLength,
			EnableFuzzyMatching: cfg.Matching.EnableFuzzyMatching,
			EnableDebugLogging:  cfg.Matching.EnableDebugLogging,
		},
	)
	log.Printf("Matching: min query %d, fuzzy=%v, debug=%v",
		cfg.Matching.MinQueryLength, cfg.Matching.EnableFuzzyMatching, cfg.Matching.EnableDebugLogging)

	commitService := usecase.NewCommitService(catalogueClient, diaryRepo)
	draftService := usecase.NewDraftService(
		catalogueService,
		transcriptionClient,
		diaryRepo,
		commitService,
		usecase.DraftServiceConfig{SessionTTL: cfg.Session.TTL},
	)
	draftService.StartJanitor(ctx, cfg.Session.JanitorInterval)
	log.Printf("Draft sessions: TTL %s", cfg.Session.TTL)

	handler := httpDelivery.NewHandler(catalogueService, draftService)
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("Received shutdown signal")
	case err := <-errCh:
		log.Printf("Server error: %v", err)
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// openDiary builds the configured diary backend and its cleanup function
func openDiary(ctx context.Context, cfg config.DiaryConfig, debug bool) (domain.DiaryRepository, func(), error) {
	switch cfg.Backend {
	case config.DiaryBackendSQLite:
		store, err := diary.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Diary: local SQLite at %s", cfg.SQLitePath)
		return store, func() {
			if err := store.Close(); err != nil {
				log.Printf("Error closing diary: %v", err)
			}
		}, nil
	default:
		client := diary.NewClient(cfg.APIKey, cfg.BaseURL)
		client.SetDebug(debug)
		log.Printf("Diary API: %s (key: %s)", cfg.BaseURL, maskKey(cfg.APIKey))
		return client, func() {}, nil
	}
}

// maskKey shows only the first characters of a secret
func maskKey(key string) string {
	switch {
	case key == "":
		return "not set"
	case len(key) <= 8:
		return "***"
	default:
		return key[:4] + "..."
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
