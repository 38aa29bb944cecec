package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fashion-ai-studio/internal/usecase"
)

// GenerationWorker drives the job queue on a fixed interval. Each tick claims
// and processes at most one job; after a productive tick it drains without
// waiting so a backlog clears at processing speed rather than poll speed.
type GenerationWorker struct {
	interval time.Duration
	workerUC usecase.WorkerUseCase
	log      *zerolog.Logger
}

func NewGenerationWorker(interval time.Duration, workerUC usecase.WorkerUseCase, logger *zerolog.Logger) *GenerationWorker {
	genLog := logger.With().Str("component", "GenerationWorker").Logger()
	return &GenerationWorker{
		interval: interval,
		workerUC: workerUC,
		log:      &genLog,
	}
}

func (w *GenerationWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting generation worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping generation worker")
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *GenerationWorker) drain(ctx context.Context) {
	for {
		result, err := w.workerUC.Tick(ctx)
		if err != nil {
			w.log.Error().Err(err).Msg("generation worker tick error")
			return
		}
		if result == usecase.TickNoJobs {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}
