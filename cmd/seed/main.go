package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"fashion-ai-studio/internal/config"
	pg "fashion-ai-studio/internal/infra/db/postgres"
	"fashion-ai-studio/internal/infra/logging"
	"fashion-ai-studio/internal/usecase"
)

// Grants bonus credits to a user. Handy for local testing without running
// the payment flow.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	userID := flag.String("user", "", "user id to credit")
	amount := flag.Int64("credits", 100, "credits to grant")
	flag.Parse()

	if *userID == "" {
		log.Fatal("usage: seed -user <user_id> [-credits N]")
	}

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	tm := pg.NewTxManager(pool)
	creditUC := usecase.NewCreditUseCase(pg.NewLedgerRepo(pool), tm, logger)

	outcome, err := creditUC.Grant(ctx, *userID, *amount, "Dev seed grant")
	if err != nil {
		log.Fatalf("grant: %v", err)
	}
	fmt.Printf("granted %d credits to %s (balance now %d)\n", *amount, *userID, outcome.NewBalance)
}
