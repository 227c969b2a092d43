package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/mystery-engine/internal/config"
	"github.com/jwebster45206/mystery-engine/internal/handlers"
	"github.com/jwebster45206/mystery-engine/internal/logger"
	"github.com/jwebster45206/mystery-engine/internal/middleware"
	"github.com/jwebster45206/mystery-engine/internal/services"
	"github.com/jwebster45206/mystery-engine/internal/services/events"
	"github.com/jwebster45206/mystery-engine/internal/services/queue"
	"github.com/jwebster45206/mystery-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Mystery Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"lie_detection", cfg.LieDetection)

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.StateTTL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx, 30, 2*time.Second); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	// The model is only needed for lie detection; the API reports its readiness
	var llmService services.LLMService
	if cfg.LieDetection {
		llmService, err = services.NewLLMService(services.LLMConfig{
			Provider:        cfg.LLMProvider,
			ModelName:       cfg.ModelName,
			AnthropicAPIKey: cfg.AnthropicAPIKey,
			OllamaURL:       cfg.OllamaURL,
		}, log)
		if err != nil {
			log.Error("Failed to create LLM service", "error", err)
			os.Exit(1)
		}
	}

	activityQueue := queue.NewActivityQueue(queue.NewClientFromRedis(store.Client(), log))
	broadcaster := events.NewBroadcaster(store.Client(), log)

	mux := handlers.Router{
		Health:         handlers.NewHealthHandler(store, llmService, cfg.ModelName, log),
		Cases:          handlers.NewCaseHandler(store, log),
		Investigations: handlers.NewInvestigationHandler(cfg, store, broadcaster, log),
		Activity:       handlers.NewActivityHandler(store, activityQueue, log),
		Events:         handlers.NewEventsHandler(store.Client(), log),
	}.Mux()

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Chain(mux, log),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the event stream is long-lived
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
