package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
	"fashion-ai-studio/internal/domain/ports/repository"
)

var _ repository.JobEventRepository = (*jobEventRepo)(nil)

type jobEventRepo struct{ pool *pgxpool.Pool }

func NewJobEventRepo(pool *pgxpool.Pool) *jobEventRepo {
	return &jobEventRepo{pool: pool}
}

func (r *jobEventRepo) Append(ctx context.Context, tx repository.Tx, ev *model.JobEvent) error {
	const q = `
INSERT INTO job_events (job_id, event_type, details, created_at)
VALUES ($1, $2, $3, $4);`
	_, err := execSQL(ctx, r.pool, tx, q, ev.JobID, ev.EventType, ev.Details, ev.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *jobEventRepo) ListByJob(ctx context.Context, tx repository.Tx, jobID string) ([]*model.JobEvent, error) {
	const q = `SELECT id, job_id, event_type, details, created_at FROM job_events WHERE job_id=$1 ORDER BY id;`
	rows, err := pickRows(ctx, r.pool, tx, q, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.JobEvent
	for rows.Next() {
		ev := &model.JobEvent{}
		var evType string
		if err := rows.Scan(&ev.ID, &ev.JobID, &evType, &ev.Details, &ev.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		ev.EventType = model.JobEventType(evType)
		out = append(out, ev)
	}
	return out, rows.Err()
}
