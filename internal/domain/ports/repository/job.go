package repository

import (
	"context"

	"fashion-ai-studio/internal/domain/model"
)

// JobRepository owns the generation_jobs table. Every status write is
// conditioned on the expected current status, so a cancelled or already
// finalized job is never claimed or finalized again.
type JobRepository interface {
	Create(ctx context.Context, tx Tx, job *model.GenerationJob) error

	FindByID(ctx context.Context, tx Tx, id string) (*model.GenerationJob, error)

	// FindByIDForUser scopes the lookup to the owner. Foreign jobs surface as
	// domain.ErrNotFound so existence never leaks across users.
	FindByIDForUser(ctx context.Context, tx Tx, id, userID string) (*model.GenerationJob, error)

	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.GenerationJob, error)

	// ClaimOne atomically takes the oldest queued job by queued_at: it marks
	// the row processing, stamps started_at and worker_id and increments
	// attempts, all conditioned on the row still being queued. Returns
	// domain.ErrNotFound when no job is claimable; losing a race is
	// indistinguishable from an empty queue.
	ClaimOne(ctx context.Context, workerID string) (*model.GenerationJob, error)

	// MarkCompleted finalizes a processing job. Zero rows affected means the
	// job left processing concurrently and maps to domain.ErrJobTerminal.
	MarkCompleted(ctx context.Context, tx Tx, jobID string, outputAssetIDs []string, provider string) error

	// Requeue reverts a processing job to queued for another attempt. When
	// toBack is false the original queued_at is kept, preserving FIFO
	// position across retries.
	Requeue(ctx context.Context, tx Tx, jobID, errorMessage string, toBack bool) error

	// MarkFailed finalizes a processing job as terminally failed.
	MarkFailed(ctx context.Context, tx Tx, jobID, errorMessage string) error

	// Cancel moves a pre-terminal, not-yet-claimed job to cancelled on behalf
	// of its owner.
	Cancel(ctx context.Context, tx Tx, jobID, userID string) error
}

type JobEventRepository interface {
	Append(ctx context.Context, tx Tx, ev *model.JobEvent) error
	ListByJob(ctx context.Context, tx Tx, jobID string) ([]*model.JobEvent, error)
}
