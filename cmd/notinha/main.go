package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"notinha/internal/amqp"
	"notinha/internal/cache"
	"notinha/internal/config"
	"notinha/internal/extract"
	"notinha/internal/extract/gemini"
	"notinha/internal/extract/memory"
	httpserver "notinha/internal/http"
	"notinha/internal/log"
	"notinha/internal/services"
	"notinha/internal/storage"
)

func main() {
	godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
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

	var (
		analyzer       extract.ReceiptAnalyzer
		nameNormalizer extract.NameNormalizer
	)
	switch cfg.ExtractBackend {
	case "memory":
		store := memory.New()
		analyzer, nameNormalizer = store, store
		logger.Warn("Using in-memory extraction backend")
	default:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("Failed to create Gemini client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		analyzer, nameNormalizer = client, client
	}

	normalizer := services.NewNormalizerService(repo, nameNormalizer, logger)

	// Prefer the broker; fall back to in-process normalization when it is
	// unreachable so a missing broker never blocks ingestion.
	var scheduler services.NormalizeScheduler
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, normalizing in process", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			scheduler = services.NewAMQPScheduler(amqpClient)
		}
	}
	if scheduler == nil {
		scheduler = services.NewLocalScheduler(repo, normalizer, logger)
	}

	ingest := services.NewIngestService(repo, repo, analyzer, scheduler, services.IngestConfig{
		MaxUploadBytes: cfg.MaxUploadBytes,
		MaxAttempts:    cfg.ExtractMaxAttempts,
		BackoffStep:    cfg.ExtractBackoffStep,
	}, logger)
	history := services.NewHistoryService(repo, repo, logger)
	shopping := services.NewShoppingService(repo, logger)

	server := httpserver.NewServer(cfg.Port, ingest, normalizer, history, shopping, repo,
		cfg.MaxUploadBytes, logger)

	caches := cache.NewManager()
	caches.Register(normalizer.HotCache())
	caches.Register(server.DashboardCache())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", log.FieldError, err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
