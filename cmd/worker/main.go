package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fashion-ai-studio/internal/config"
	"fashion-ai-studio/internal/domain/ports/adapter"
	genAdapters "fashion-ai-studio/internal/infra/adapters/generation"
	storAdapters "fashion-ai-studio/internal/infra/adapters/storage"
	pg "fashion-ai-studio/internal/infra/db/postgres"
	"fashion-ai-studio/internal/infra/logging"
	"fashion-ai-studio/internal/infra/metrics"
	"fashion-ai-studio/internal/infra/sched"
	"fashion-ai-studio/internal/usecase"
)

// Standalone queue worker. Runs the same claim loop as the in-process worker
// in cmd/app; deploy it separately to scale processing independently of the
// API. Multiple replicas are safe, the claim is exclusive.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.PoolSize)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	ledgerRepo := pg.NewLedgerRepo(pool)
	jobRepo := pg.NewJobRepo(pool, tm)
	eventRepo := pg.NewJobEventRepo(pool)
	assetRepo := pg.NewAssetRepo(pool)

	stor, err := buildStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	provider, err := buildProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("generation provider: %v", err)
	}

	creditUC := usecase.NewCreditUseCase(ledgerRepo, tm, logger)
	workerUC := usecase.NewWorkerUseCase(jobRepo, eventRepo, assetRepo, creditUC, provider, stor, cfg.Worker, cfg.Storage, logger)

	worker := sched.NewGenerationWorker(cfg.Worker.PollInterval, workerUC, logger)
	go func() { _ = worker.Run(ctx) }()
	logger.Info().Dur("poll_interval", cfg.Worker.PollInterval).Msg("worker started")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
}

func buildStorage(ctx context.Context, cfg *config.Config) (adapter.ObjectStorage, error) {
	if cfg.Storage.Provider == "s3" {
		return storAdapters.NewS3Storage(ctx, cfg.Storage)
	}
	return storAdapters.NewNoopStorage(), nil
}

func buildProvider(ctx context.Context, cfg *config.Config) (adapter.GenerationProvider, error) {
	switch cfg.Generation.Provider {
	case "openai":
		return genAdapters.NewOpenAIAdapter(cfg.Generation.OpenAIKey, cfg.Generation.Model, cfg.Generation.OpenAIBase)
	case "gemini":
		return genAdapters.NewGeminiAdapter(ctx, cfg.Generation.GeminiKey, cfg.Generation.GeminiURL, cfg.Generation.Model)
	default:
		return genAdapters.NewSimulatedProvider(cfg.Generation.SimDelay), nil
	}
}
