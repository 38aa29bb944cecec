package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"fashion-ai-studio/internal/config"
	"fashion-ai-studio/internal/domain/ports/adapter"
	genAdapters "fashion-ai-studio/internal/infra/adapters/generation"
	"fashion-ai-studio/internal/infra/adapters/identity"
	storAdapters "fashion-ai-studio/internal/infra/adapters/storage"
	"fashion-ai-studio/internal/infra/api"
	pg "fashion-ai-studio/internal/infra/db/postgres"
	"fashion-ai-studio/internal/infra/logging"
	"fashion-ai-studio/internal/infra/metrics"
	red "fashion-ai-studio/internal/infra/redis"
	"fashion-ai-studio/internal/infra/sched"
	"fashion-ai-studio/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, simulated provider)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.PoolSize)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Redis ----
	var rateLimiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		rateLimiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set; rate limiting disabled")
	}

	// ---- Repositories ----
	ledgerRepo := pg.NewLedgerRepo(pool)
	jobRepo := pg.NewJobRepo(pool, tm)
	eventRepo := pg.NewJobEventRepo(pool)
	assetRepo := pg.NewAssetRepo(pool)
	payEventRepo := pg.NewPaymentEventRepo(pool)

	// ---- Adapters ----
	verifier, err := identity.NewJWTVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatalf("identity: %v", err)
	}
	storage, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	provider, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("generation provider: %v", err)
	}

	// ---- Use cases ----
	creditUC := usecase.NewCreditUseCase(ledgerRepo, tm, logger)
	jobUC := usecase.NewJobUseCase(jobRepo, eventRepo, assetRepo, creditUC, cfg.Worker.MaxAttempts, logger)
	statusUC := usecase.NewStatusUseCase(jobRepo, assetRepo, storage, cfg.Storage, logger)
	workerUC := usecase.NewWorkerUseCase(jobRepo, eventRepo, assetRepo, creditUC, provider, storage, cfg.Worker, cfg.Storage, logger)
	payUC := usecase.NewPaymentUseCase(payEventRepo, creditUC, cfg.Payment.WebhookSecret, logger)

	// ---- HTTP server ----
	srv := api.NewServer(jobUC, statusUC, creditUC, workerUC, payUC, verifier, rateLimiter, cfg, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: srv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- In-process generation worker ----
	worker := sched.NewGenerationWorker(cfg.Worker.PollInterval, workerUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	_ = server.Shutdown(context.Background())
}

func buildStorage(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (adapter.ObjectStorage, error) {
	switch cfg.Storage.Provider {
	case "s3":
		logger.Info().Str("region", cfg.Storage.Region).Msg("storage: S3")
		return storAdapters.NewS3Storage(ctx, cfg.Storage)
	default:
		logger.Warn().Msg("storage: noop (in-memory, dev only)")
		return storAdapters.NewNoopStorage(), nil
	}
}

func buildProvider(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (adapter.GenerationProvider, error) {
	switch cfg.Generation.Provider {
	case "openai":
		logger.Info().Str("model", cfg.Generation.Model).Msg("generation provider: OpenAI")
		return genAdapters.NewOpenAIAdapter(cfg.Generation.OpenAIKey, cfg.Generation.Model, cfg.Generation.OpenAIBase)
	case "gemini":
		logger.Info().Str("model", cfg.Generation.Model).Msg("generation provider: Gemini")
		return genAdapters.NewGeminiAdapter(ctx, cfg.Generation.GeminiKey, cfg.Generation.GeminiURL, cfg.Generation.Model)
	default:
		logger.Warn().Dur("delay", cfg.Generation.SimDelay).Msg("generation provider: simulated")
		return genAdapters.NewSimulatedProvider(cfg.Generation.SimDelay), nil
	}
}
