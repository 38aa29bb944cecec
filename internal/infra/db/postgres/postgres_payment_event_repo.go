package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
	"fashion-ai-studio/internal/domain/ports/repository"
)

var _ repository.PaymentEventRepository = (*paymentEventRepo)(nil)

type paymentEventRepo struct{ pool *pgxpool.Pool }

func NewPaymentEventRepo(pool *pgxpool.Pool) *paymentEventRepo {
	return &paymentEventRepo{pool: pool}
}

func (r *paymentEventRepo) FindByEventID(ctx context.Context, tx repository.Tx, eventID string) (*model.PaymentEventRecord, error) {
	const q = `SELECT id, event_id, event_type, payload, processed, processed_at, created_at FROM payment_events WHERE event_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, eventID)
	if err != nil {
		return nil, err
	}
	rec := &model.PaymentEventRecord{}
	if err := row.Scan(&rec.ID, &rec.EventID, &rec.EventType, &rec.Payload, &rec.Processed, &rec.ProcessedAt, &rec.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return rec, nil
}

func (r *paymentEventRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.PaymentEventRecord) error {
	const q = `
INSERT INTO payment_events (event_id, event_type, payload, processed, created_at)
VALUES ($1, $2, $3, false, $4);`
	_, err := execSQL(ctx, r.pool, tx, q, rec.EventID, rec.EventType, rec.Payload, rec.CreatedAt)
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

func (r *paymentEventRepo) MarkProcessed(ctx context.Context, tx repository.Tx, eventID string, at time.Time) error {
	const q = `UPDATE payment_events SET processed=true, processed_at=$2 WHERE event_id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, eventID, at)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
