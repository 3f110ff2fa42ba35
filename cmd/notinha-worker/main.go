package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"notinha/internal/amqp"
	"notinha/internal/cache"
	"notinha/internal/config"
	"notinha/internal/extract"
	"notinha/internal/extract/gemini"
	"notinha/internal/extract/memory"
	"notinha/internal/log"
	"notinha/internal/services"
	"notinha/internal/storage"
	"notinha/internal/worker"
)

func main() {
	godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err)
		os.Exit(1)
	}
	defer repo.Close()

	var nameNormalizer extract.NameNormalizer
	switch cfg.ExtractBackend {
	case "memory":
		nameNormalizer = memory.New()
		logger.Warn("Using in-memory normalization backend")
	default:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("Failed to create Gemini client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		nameNormalizer = client
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	normalizer := services.NewNormalizerService(repo, nameNormalizer, logger)
	w := worker.NewNormalizeWorker(repo, normalizer, logger)

	caches := cache.NewManager()
	caches.Register(normalizer.HotCache())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	logger.Info("Worker starting",
		log.FieldOperation, log.OpStartup,
		"queue", cfg.AMQPQueue)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeNormalizeReceipts(gctx, w.Handle)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped", log.FieldOperation, log.OpShutdown)
}
