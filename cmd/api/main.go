package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamedev-tw/npc-engine/internal/config"
	"github.com/gamedev-tw/npc-engine/internal/engine"
	"github.com/gamedev-tw/npc-engine/internal/handlers"
	"github.com/gamedev-tw/npc-engine/internal/logger"
	"github.com/gamedev-tw/npc-engine/internal/memory"
	"github.com/gamedev-tw/npc-engine/internal/middleware"
	"github.com/gamedev-tw/npc-engine/internal/services"
	"github.com/gamedev-tw/npc-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	slogger := logger.Setup(cfg)

	slogger.Info("Starting NPC Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"storage_backend", cfg.StorageBackend)

	var llmService services.LLMService
	switch cfg.LLMProvider {
	case "anthropic":
		llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, slogger)
		slogger.Info("Using Anthropic LLM provider")
	case "ollama":
		llmService = services.NewOllamaService(cfg.OllamaHost, cfg.ModelName, slogger)
		slogger.Info("Using Ollama LLM provider", "host", cfg.OllamaHost)
	default:
		slogger.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider)
		os.Exit(1)
	}

	var store storage.Storage
	switch cfg.StorageBackend {
	case "redis":
		redisStore, err := storage.NewRedisStorage(cfg.RedisURL, slogger)
		if err != nil {
			slogger.Error("Failed to configure Redis storage", "error", err)
			os.Exit(1)
		}
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := redisStore.WaitForConnection(waitCtx); err != nil {
			waitCancel()
			slogger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		waitCancel()
		store = redisStore
	case "sqlite":
		sqliteStore, err := storage.NewSQLiteStorage(cfg.SQLitePath, slogger)
		if err != nil {
			slogger.Error("Failed to open SQLite storage", "error", err)
			os.Exit(1)
		}
		store = sqliteStore
	}
	slogger.Info("Storage ready")

	// Initialize the model on startup
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := llmService.InitModel(initCtx, cfg.ModelName); err != nil {
		slogger.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	registry := memory.NewRegistry(store, memory.Limits{
		MaxLocations:    cfg.MaxLocationsInMemory,
		MaxLongTerm:     cfg.MaxLongTermMemories,
		VisitThreshold:  cfg.VisitThresholdDistance,
		RevisitInterval: cfg.RevisitInterval,
	}, slogger)

	explorer := engine.NewExplorer(engine.ExploreConfig{
		MinSearchDistance: cfg.MinSearchDistance,
		MaxSearchDistance: cfg.MaxSearchDistance,
		BoundaryBuffer:    cfg.SceneBoundaryBuffer,
	}, rand.New(rand.NewSource(time.Now().UnixNano())), slogger)

	eng := engine.New(engine.Config{
		ModelName:       cfg.ModelName,
		NumCtx:          cfg.NumCtx,
		BoundaryBuffer:  cfg.SceneBoundaryBuffer,
		VisitThreshold:  cfg.VisitThresholdDistance,
		RevisitInterval: cfg.RevisitInterval,
	}, llmService, registry, explorer, slogger)

	translator := services.NewTranslator(llmService, cfg.TranslationModelName, slogger)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, llmService, slogger))
	mux.Handle("/v1/npc/think", handlers.NewMovementHandler(eng, slogger))
	mux.Handle("/v1/translate", handlers.NewTranslateHandler(translator, slogger))
	adminHandler := handlers.NewAdminHandler(registry, slogger)
	mux.Handle("/v1/admin/", adminHandler)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.RequestLogger(slogger, mux),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Periodic auto-save keeps a crash from losing more than one interval
	// of NPC memory. Interval 0 disables it.
	autoSaveDone := make(chan struct{})
	if cfg.AutoSaveInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.AutoSaveInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					saveCtx, saveCancel := context.WithTimeout(context.Background(), 30*time.Second)
					registry.SaveAll(saveCtx)
					saveCancel()
				case <-autoSaveDone:
					return
				}
			}
		}()
	}

	go func() {
		slogger.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slogger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slogger.Info("Server is shutting down...")
	close(autoSaveDone)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slogger.Error("Server forced to shutdown", "error", err)
	}

	// Flush memory before the storage connection goes away.
	if failed := registry.SaveAll(shutdownCtx); failed > 0 {
		slogger.Error("Some NPC memory failed to flush on shutdown", "failed", failed)
	}
	if err := store.Close(); err != nil {
		slogger.Error("Error closing storage connection", "error", err)
	}

	slogger.Info("Server exited")
}
