package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"fashion-ai-studio/internal/config"
	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
	"fashion-ai-studio/internal/domain/ports/adapter"
	"fashion-ai-studio/internal/domain/ports/repository"
	"fashion-ai-studio/internal/infra/metrics"
)

type TickResult string

const (
	TickNoJobs    TickResult = "no_jobs"
	TickCompleted TickResult = "completed"
	TickRequeued  TickResult = "requeued"
	TickFailed    TickResult = "failed"
)

// Compile-time check
var _ WorkerUseCase = (*workerUC)(nil)

// WorkerUseCase processes at most one job per invocation. It is designed to
// be called repeatedly by an external scheduler; concurrent ticks coordinate
// purely through the queue's conditional updates.
type WorkerUseCase interface {
	Tick(ctx context.Context) (TickResult, error)
}

type workerUC struct {
	jobs     repository.JobRepository
	events   repository.JobEventRepository
	assets   repository.AssetRepository
	credits  CreditUseCase
	provider adapter.GenerationProvider
	storage  adapter.ObjectStorage

	providerTimeout time.Duration
	requeueToBack   bool
	inputTTL        time.Duration
	outputBucket    string

	log *zerolog.Logger
}

func NewWorkerUseCase(
	jobs repository.JobRepository,
	events repository.JobEventRepository,
	assets repository.AssetRepository,
	credits CreditUseCase,
	provider adapter.GenerationProvider,
	storage adapter.ObjectStorage,
	workerCfg config.WorkerConfig,
	storageCfg config.StorageConfig,
	logger *zerolog.Logger,
) *workerUC {
	l := logger.With().Str("component", "WorkerUC").Logger()
	return &workerUC{
		jobs:            jobs,
		events:          events,
		assets:          assets,
		credits:         credits,
		provider:        provider,
		storage:         storage,
		providerTimeout: workerCfg.ProviderTimeout,
		requeueToBack:   workerCfg.RequeueToBack,
		inputTTL:        storageCfg.SignedURLTTL,
		outputBucket:    storageCfg.OutputBucket,
		log:             &l,
	}
}

// newWorkerID mints a fresh identity per invocation, so claims can always be
// traced back to a specific tick.
func newWorkerID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return "worker_" + hex.EncodeToString(b[:])
}

func (u *workerUC) Tick(ctx context.Context) (TickResult, error) {
	workerID := newWorkerID()
	log := u.log.With().Str("worker_id", workerID).Logger()

	job, err := u.jobs.ClaimOne(ctx, workerID)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.IncClaimEmpty()
		return TickNoJobs, nil
	}
	if err != nil {
		return TickNoJobs, err
	}

	log = log.With().Str("job_id", job.ID).Int("attempt", job.Attempts).Logger()
	log.Info().Msg("job claimed")

	u.appendEvent(ctx, job.ID, model.JobEventPickedUp, map[string]interface{}{
		"attempt":   job.Attempts,
		"worker_id": workerID,
	})

	started := time.Now()
	if err := u.process(ctx, job); err != nil {
		log.Warn().Err(err).Msg("job processing failed")
		return u.finalizeFailure(ctx, job, err)
	}

	durMs := time.Since(started).Milliseconds()
	u.appendEvent(ctx, job.ID, model.JobEventCompleted, map[string]interface{}{
		"duration_ms": durMs,
	})
	metrics.IncJobFinalized(string(TickCompleted))
	metrics.ObserveJobDuration(durMs)
	log.Info().Int64("duration_ms", durMs).Msg("job completed")
	return TickCompleted, nil
}

// process runs the provider call and persists the output. Each step may fail
// transiently; the caller owns the retry/refund decision.
func (u *workerUC) process(ctx context.Context, job *model.GenerationJob) error {
	var inputURL string
	if job.InputAssetID != nil && *job.InputAssetID != "" {
		asset, err := u.assets.FindByID(ctx, nil, *job.InputAssetID)
		if err != nil {
			return fmt.Errorf("resolve input asset: %w", err)
		}
		inputURL, err = u.storage.SignReadURL(ctx, asset.BucketName, asset.StoragePath, u.inputTTL)
		if err != nil {
			return fmt.Errorf("sign input url: %w", err)
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, u.providerTimeout)
	defer cancel()
	result, err := u.provider.Generate(genCtx, adapter.GenerationRequest{
		Prompt:         job.Prompt,
		NegativePrompt: job.NegativePrompt,
		ModelPreset:    job.ModelPreset,
		PosePreset:     job.PosePreset,
		ScenePreset:    job.ScenePreset,
		InputURL:       inputURL,
		Params:         job.Params,
	})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	outputPath := fmt.Sprintf("%s/%s/output_%d.png", job.UserID, job.ID, time.Now().UnixMilli())
	if _, err := u.storage.PutObject(ctx, u.outputBucket, outputPath, result.Data, result.ContentType); err != nil {
		return fmt.Errorf("store output: %w", err)
	}

	asset := model.NewGeneratedAsset(job.UserID, job.ID, u.outputBucket, outputPath,
		fmt.Sprintf("output_%s.png", job.ID), map[string]interface{}{
			"model_preset": job.ModelPreset,
			"provider":     u.provider.Name(),
		})
	if err := u.assets.Save(ctx, nil, asset); err != nil {
		return fmt.Errorf("save output asset: %w", err)
	}

	if err := u.jobs.MarkCompleted(ctx, nil, job.ID, []string{asset.ID}, u.provider.Name()); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	return nil
}

// finalizeFailure applies the retry/refund policy: requeue while attempts
// remain, otherwise fail terminally and make the user whole exactly once.
func (u *workerUC) finalizeFailure(ctx context.Context, job *model.GenerationJob, cause error) (TickResult, error) {
	if job.Attempts < job.MaxAttempts {
		if err := u.jobs.Requeue(ctx, nil, job.ID, "Processing failed - will retry", u.requeueToBack); err != nil {
			return TickFailed, err
		}
		u.appendEvent(ctx, job.ID, model.JobEventRetry, map[string]interface{}{
			"attempt":      job.Attempts,
			"max_attempts": job.MaxAttempts,
		})
		metrics.IncJobFinalized(string(TickRequeued))
		return TickRequeued, nil
	}

	if err := u.jobs.MarkFailed(ctx, nil, job.ID, "Maximum attempts reached"); err != nil && !errors.Is(err, domain.ErrJobTerminal) {
		return TickFailed, err
	}

	// The refund key is derived from the job id, so however many times this
	// path re-runs the user is credited back exactly once.
	if _, err := u.credits.Release(ctx, job.UserID, job.CostCredits, job.ID,
		model.FailRefundKey(job.ID), fmt.Sprintf("Job failed after %d attempts - refund", job.MaxAttempts)); err != nil {
		u.log.Error().Err(err).Str("job_id", job.ID).Msg("refund failed")
		return TickFailed, err
	}

	u.appendEvent(ctx, job.ID, model.JobEventFailed, map[string]interface{}{
		"refunded_credits": job.CostCredits,
		"error":            cause.Error(),
	})
	metrics.IncJobFinalized(string(TickFailed))
	u.log.Info().Str("job_id", job.ID).Int64("refunded", job.CostCredits).Msg("job failed permanently, credits refunded")
	return TickFailed, nil
}

func (u *workerUC) appendEvent(ctx context.Context, jobID string, evType model.JobEventType, details map[string]interface{}) {
	if err := u.events.Append(ctx, nil, model.NewJobEvent(jobID, evType, details)); err != nil {
		u.log.Warn().Err(err).Str("job_id", jobID).Msg("job event append failed")
	}
}
