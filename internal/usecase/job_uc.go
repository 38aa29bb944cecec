package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
	"fashion-ai-studio/internal/domain/ports/repository"
	"fashion-ai-studio/internal/infra/metrics"
)

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

type JobUseCase interface {
	// Create reserves credits and enqueues a job, returning the job and the
	// caller's remaining balance.
	Create(ctx context.Context, draft *model.JobDraft) (*model.GenerationJob, int64, error)

	// Cancel moves the caller's own unclaimed job to cancelled.
	Cancel(ctx context.Context, jobID, userID string) error

	ListForUser(ctx context.Context, userID string, limit int) ([]*model.GenerationJob, error)
}

type jobUC struct {
	jobs        repository.JobRepository
	events      repository.JobEventRepository
	assets      repository.AssetRepository
	credits     CreditUseCase
	maxAttempts int
	log         *zerolog.Logger
}

func NewJobUseCase(jobs repository.JobRepository, events repository.JobEventRepository, assets repository.AssetRepository, credits CreditUseCase, maxAttempts int, logger *zerolog.Logger) *jobUC {
	if maxAttempts <= 0 {
		maxAttempts = model.DefaultMaxAttempts
	}
	l := logger.With().Str("component", "JobUC").Logger()
	return &jobUC{jobs: jobs, events: events, assets: assets, credits: credits, maxAttempts: maxAttempts, log: &l}
}

func (u *jobUC) Create(ctx context.Context, draft *model.JobDraft) (*model.GenerationJob, int64, error) {
	if err := draft.Validate(); err != nil {
		return nil, 0, err
	}

	// An input asset must exist and belong to the caller.
	if draft.InputAssetID != nil && *draft.InputAssetID != "" {
		if _, err := u.assets.FindByIDForUser(ctx, nil, *draft.InputAssetID, draft.UserID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, 0, domain.ErrInvalidArgument
			}
			return nil, 0, err
		}
	}

	// The job id is minted before the reservation so the idempotency key can
	// be derived from it.
	jobID := uuid.NewString()
	cost := draft.Cost()

	outcome, err := u.credits.Reserve(ctx, draft.UserID, cost, jobID,
		model.ReserveKey(jobID), fmt.Sprintf("Generation job: %s", draft.GenerationType))
	if err != nil {
		return nil, 0, err
	}
	if !outcome.Success {
		return nil, 0, domain.ErrInsufficientCredits
	}

	job, err := model.NewGenerationJob(jobID, draft)
	if err == nil {
		job.MaxAttempts = u.maxAttempts
		err = u.jobs.Create(ctx, nil, job)
	}
	if err != nil {
		// Saga compensation: the reservation must not outlive a failed
		// enqueue. The refund key is derived so retries stay harmless.
		if _, relErr := u.credits.Release(ctx, draft.UserID, cost, jobID,
			model.CreateFailRefundKey(jobID), "Job creation failed - refund"); relErr != nil {
			u.log.Error().Err(relErr).Str("job_id", jobID).Msg("compensating release failed")
		}
		return nil, 0, err
	}

	if evErr := u.events.Append(ctx, nil, model.NewJobEvent(jobID, model.JobEventCreated, map[string]interface{}{
		"generation_type": string(draft.GenerationType),
		"cost_credits":    cost,
	})); evErr != nil {
		u.log.Warn().Err(evErr).Str("job_id", jobID).Msg("job event append failed")
	}

	metrics.IncJobCreated(string(draft.GenerationType))
	u.log.Info().Str("job_id", jobID).Int64("cost", cost).Msg("job enqueued")
	return job, outcome.NewBalance, nil
}

func (u *jobUC) Cancel(ctx context.Context, jobID, userID string) error {
	if err := u.jobs.Cancel(ctx, nil, jobID, userID); err != nil {
		return err
	}
	if evErr := u.events.Append(ctx, nil, model.NewJobEvent(jobID, model.JobEventCancelled, nil)); evErr != nil {
		u.log.Warn().Err(evErr).Str("job_id", jobID).Msg("job event append failed")
	}
	metrics.IncJobFinalized("cancelled")
	return nil
}

func (u *jobUC) ListForUser(ctx context.Context, userID string, limit int) ([]*model.GenerationJob, error) {
	return u.jobs.ListByUser(ctx, nil, userID, limit)
}
