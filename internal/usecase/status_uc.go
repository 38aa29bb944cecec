package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fashion-ai-studio/internal/config"
	"fashion-ai-studio/internal/domain/model"
	"fashion-ai-studio/internal/domain/ports/adapter"
	"fashion-ai-studio/internal/domain/ports/repository"
)

// Compile-time check
var _ StatusUseCase = (*statusUC)(nil)

// StatusUseCase is the read-only projection of job state for clients.
type StatusUseCase interface {
	Get(ctx context.Context, jobID, requestingUserID string) (*model.ProjectedStatus, error)
}

type statusUC struct {
	jobs    repository.JobRepository
	assets  repository.AssetRepository
	storage adapter.ObjectStorage
	ttl     time.Duration
	log     *zerolog.Logger
}

func NewStatusUseCase(jobs repository.JobRepository, assets repository.AssetRepository, storage adapter.ObjectStorage, cfg config.StorageConfig, logger *zerolog.Logger) *statusUC {
	l := logger.With().Str("component", "StatusUC").Logger()
	return &statusUC{jobs: jobs, assets: assets, storage: storage, ttl: cfg.SignedURLTTL, log: &l}
}

func (u *statusUC) Get(ctx context.Context, jobID, requestingUserID string) (*model.ProjectedStatus, error) {
	// Ownership is part of the lookup; foreign jobs are not found.
	job, err := u.jobs.FindByIDForUser(ctx, nil, jobID, requestingUserID)
	if err != nil {
		return nil, err
	}

	st := &model.ProjectedStatus{
		JobID:        job.ID,
		Status:       job.Status,
		Progress:     model.EstimateProgress(job.Status, job.StartedAt, job.QueuedAt, time.Now()),
		Prompt:       job.Prompt,
		ModelPreset:  job.ModelPreset,
		CostCredits:  job.CostCredits,
		Attempts:     job.Attempts,
		QueuedAt:     job.QueuedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		ErrorMessage: job.ErrorMessage,
		OutputURLs:   []string{},
		CreatedAt:    job.CreatedAt,
	}

	if job.Status == model.JobStatusCompleted && len(job.OutputAssetIDs) > 0 {
		st.OutputURLs = u.resolveOutputs(ctx, job)
	}
	return st, nil
}

// resolveOutputs signs a read URL per output asset. A failure on one asset
// only drops that asset from the response.
func (u *statusUC) resolveOutputs(ctx context.Context, job *model.GenerationJob) []string {
	assets, err := u.assets.FindByIDs(ctx, nil, job.OutputAssetIDs)
	if err != nil {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("output asset lookup failed")
		return []string{}
	}

	byID := make(map[string]*model.Asset, len(assets))
	for _, a := range assets {
		if a.UserID == job.UserID {
			byID[a.ID] = a
		}
	}

	urls := make([]string, 0, len(job.OutputAssetIDs))
	for _, id := range job.OutputAssetIDs {
		a, ok := byID[id]
		if !ok {
			continue
		}
		url, err := u.storage.SignReadURL(ctx, a.BucketName, a.StoragePath, u.ttl)
		if err != nil {
			u.log.Warn().Err(err).Str("asset_id", a.ID).Msg("sign read url failed")
			continue
		}
		urls = append(urls, url)
	}
	return urls
}
