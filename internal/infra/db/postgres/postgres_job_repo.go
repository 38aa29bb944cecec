package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
	"fashion-ai-studio/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

type jobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *jobRepo {
	return &jobRepo{pool: pool, tm: tm}
}

const jobColumns = `id, user_id, status, input_asset_id, prompt, negative_prompt, model_preset, pose_preset, scene_preset,
  params, generation_type, cost_credits, credits_reserved, attempts, max_attempts, worker_id, provider,
  queued_at, started_at, completed_at, error_message, output_asset_ids, created_at, updated_at`

func (r *jobRepo) Create(ctx context.Context, tx repository.Tx, job *model.GenerationJob) error {
	const q = `
INSERT INTO generation_jobs (
  id, user_id, status, input_asset_id, prompt, negative_prompt, model_preset, pose_preset, scene_preset,
  params, generation_type, cost_credits, credits_reserved, attempts, max_attempts, worker_id, provider,
  queued_at, started_at, completed_at, error_message, output_asset_ids, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24
);`
	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.UserID, job.Status, job.InputAssetID, job.Prompt, job.NegativePrompt,
		job.ModelPreset, job.PosePreset, job.ScenePreset, job.Params, job.GenerationType,
		job.CostCredits, job.CreditsReserved, job.Attempts, job.MaxAttempts, job.WorkerID,
		job.Provider, job.QueuedAt, job.StartedAt, job.CompletedAt, job.ErrorMessage,
		job.OutputAssetIDs, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *jobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GenerationJob, error) {
	q := `SELECT ` + jobColumns + ` FROM generation_jobs WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

func (r *jobRepo) FindByIDForUser(ctx context.Context, tx repository.Tx, id, userID string) (*model.GenerationJob, error) {
	// The owner filter is part of the lookup, so a foreign job reads exactly
	// like a missing one.
	q := `SELECT ` + jobColumns + ` FROM generation_jobs WHERE id=$1 AND user_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, id, userID)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

func (r *jobRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.GenerationJob, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + jobColumns + ` FROM generation_jobs WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := pickRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.GenerationJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// ClaimOne fetches the oldest queued job under FOR UPDATE SKIP LOCKED and
// flips it to processing with a status-conditioned update. Two workers racing
// for one row produce exactly one winner; the loser sees no job.
func (r *jobRepo) ClaimOne(ctx context.Context, workerID string) (*model.GenerationJob, error) {
	var job *model.GenerationJob

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const fetchQuery = `
SELECT ` + jobColumns + `
FROM generation_jobs
WHERE status = 'queued'
ORDER BY queued_at
LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, fetchQuery)
		if err != nil {
			return err
		}
		fetched, err := scanJob(row)
		if err != nil {
			return err
		}

		const claimQuery = `
UPDATE generation_jobs
SET status = 'processing', started_at = NOW(), worker_id = $2, attempts = attempts + 1, updated_at = NOW()
WHERE id = $1 AND status = 'queued';`
		tag, err := execSQL(ctx, r.pool, tx, claimQuery, fetched.ID, workerID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			// Lost the race after all; treat as no job available.
			return domain.ErrNotFound
		}

		now := time.Now()
		fetched.Status = model.JobStatusProcessing
		fetched.StartedAt = &now
		fetched.WorkerID = workerID
		fetched.Attempts++
		fetched.UpdatedAt = now

		job = fetched
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	return job, err
}

func (r *jobRepo) MarkCompleted(ctx context.Context, tx repository.Tx, jobID string, outputAssetIDs []string, provider string) error {
	const q = `
UPDATE generation_jobs
SET status = 'completed', completed_at = NOW(), output_asset_ids = $2, provider = $3, error_message = '', updated_at = NOW()
WHERE id = $1 AND status = 'processing';`
	return r.conditionalUpdate(ctx, tx, q, jobID, outputAssetIDs, provider)
}

func (r *jobRepo) Requeue(ctx context.Context, tx repository.Tx, jobID, errorMessage string, toBack bool) error {
	// queued_at is kept by default so retried jobs hold their FIFO position.
	q := `
UPDATE generation_jobs
SET status = 'queued', error_message = $2, updated_at = NOW()
WHERE id = $1 AND status = 'processing';`
	if toBack {
		q = `
UPDATE generation_jobs
SET status = 'queued', error_message = $2, queued_at = NOW(), updated_at = NOW()
WHERE id = $1 AND status = 'processing';`
	}
	return r.conditionalUpdate(ctx, tx, q, jobID, errorMessage)
}

func (r *jobRepo) MarkFailed(ctx context.Context, tx repository.Tx, jobID, errorMessage string) error {
	const q = `
UPDATE generation_jobs
SET status = 'failed', completed_at = NOW(), error_message = $2, updated_at = NOW()
WHERE id = $1 AND status = 'processing';`
	return r.conditionalUpdate(ctx, tx, q, jobID, errorMessage)
}

func (r *jobRepo) Cancel(ctx context.Context, tx repository.Tx, jobID, userID string) error {
	// Only unclaimed jobs can be cancelled; a processing job finishes its
	// attempt first.
	const q = `
UPDATE generation_jobs
SET status = 'cancelled', completed_at = NOW(), updated_at = NOW()
WHERE id = $1 AND user_id = $2 AND status IN ('pending', 'queued');`
	return r.conditionalUpdate(ctx, tx, q, jobID, userID)
}

func (r *jobRepo) conditionalUpdate(ctx context.Context, tx repository.Tx, q string, args ...interface{}) error {
	tag, err := execSQL(ctx, r.pool, tx, q, args...)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		// The row left the expected status concurrently (e.g. cancelled).
		return domain.ErrJobTerminal
	}
	return nil
}

func scanJob(row pgx.Row) (*model.GenerationJob, error) {
	j := &model.GenerationJob{}
	var status, genType string
	err := row.Scan(
		&j.ID, &j.UserID, &status, &j.InputAssetID, &j.Prompt, &j.NegativePrompt,
		&j.ModelPreset, &j.PosePreset, &j.ScenePreset, &j.Params, &genType,
		&j.CostCredits, &j.CreditsReserved, &j.Attempts, &j.MaxAttempts, &j.WorkerID,
		&j.Provider, &j.QueuedAt, &j.StartedAt, &j.CompletedAt, &j.ErrorMessage,
		&j.OutputAssetIDs, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, scanErr(err)
	}
	j.Status = model.JobStatus(status)
	j.GenerationType = model.GenerationType(genType)
	return j, nil
}
