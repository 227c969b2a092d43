package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/mystery-engine/internal/config"
	"github.com/jwebster45206/mystery-engine/internal/logger"
	"github.com/jwebster45206/mystery-engine/internal/services"
	"github.com/jwebster45206/mystery-engine/internal/services/events"
	"github.com/jwebster45206/mystery-engine/internal/services/queue"
	"github.com/jwebster45206/mystery-engine/internal/storage"
	"github.com/jwebster45206/mystery-engine/internal/worker"
	"github.com/jwebster45206/mystery-engine/pkg/liedetector"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Mystery Engine Worker",
		"environment", cfg.Environment,
		"concurrency", cfg.WorkerConcurrency,
		"lie_detection", cfg.LieDetection)

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.StateTTL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage", "error", err)
		}
	}()

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx, 30, 2*time.Second); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	var detectorModel liedetector.Generator
	if cfg.LieDetection {
		llmService, err := services.NewLLMService(services.LLMConfig{
			Provider:        cfg.LLMProvider,
			ModelName:       cfg.ModelName,
			AnthropicAPIKey: cfg.AnthropicAPIKey,
			OllamaURL:       cfg.OllamaURL,
		}, log)
		if err != nil {
			log.Error("Failed to create LLM service", "error", err)
			os.Exit(1)
		}

		initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
		err = llmService.InitModel(initCtx, cfg.ModelName)
		initCancel()
		if err != nil {
			log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
			os.Exit(1)
		}
		detectorModel = services.NewPromptGenerator(llmService, "")
		log.Info("LLM service initialized successfully", "model", cfg.ModelName)
	}

	activityQueue := queue.NewActivityQueue(queue.NewClientFromRedis(store.Client(), log))
	broadcaster := events.NewBroadcaster(store.Client(), log)
	processor := worker.NewProcessor(detectorModel, log)

	prefix := os.Getenv("WORKER_ID")
	if prefix == "" {
		host, _ := os.Hostname()
		prefix = "worker-" + host
	}
	workers := make([]*worker.Worker, 0, cfg.WorkerConcurrency)
	for i := range cfg.WorkerConcurrency {
		id := fmt.Sprintf("%s-%d", prefix, i+1)
		workers = append(workers, worker.New(activityQueue, store, processor, broadcaster, log, id))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Workers started, waiting for requests...", "workers", len(workers))
	if err := worker.RunPool(ctx, workers...); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Worker pool stopped", "error", err)
		os.Exit(1)
	}

	log.Info("Worker exited")
}
