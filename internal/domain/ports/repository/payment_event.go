package repository

import (
	"context"
	"time"

	"fashion-ai-studio/internal/domain/model"
)

// PaymentEventRepository persists the at-most-once markers for externally
// delivered payment events.
type PaymentEventRepository interface {
	FindByEventID(ctx context.Context, tx Tx, eventID string) (*model.PaymentEventRecord, error)

	// Insert writes the durable marker before any side effect runs. A
	// concurrent duplicate maps to domain.ErrAlreadyExists.
	Insert(ctx context.Context, tx Tx, rec *model.PaymentEventRecord) error

	MarkProcessed(ctx context.Context, tx Tx, eventID string, at time.Time) error
}
