package repository

import (
	"context"

	"fashion-ai-studio/internal/domain/model"
)

// LedgerRepository exposes the storage primitives the reservation engine
// composes into atomic reserve/release/credit operations. The conditional
// balance updates are the only writes to credit_balances in the system.
type LedgerRepository interface {
	GetBalance(ctx context.Context, tx Tx, userID string) (*model.CreditBalance, error)

	// DecrementIfEnough applies `balance = balance - amount` only when the
	// current balance covers it, returning the new balance. Returns
	// domain.ErrInsufficientCredits without mutating otherwise.
	DecrementIfEnough(ctx context.Context, tx Tx, userID string, amount int64) (int64, error)

	// IncrementBalance credits the user, creating the balance row if absent,
	// and returns the new balance.
	IncrementBalance(ctx context.Context, tx Tx, userID string, amount int64) (int64, error)

	// AppendEntry inserts an immutable ledger row. A unique-constraint hit on
	// idempotency_key or external_event_id maps to domain.ErrAlreadyExists.
	AppendEntry(ctx context.Context, tx Tx, entry *model.LedgerEntry) error

	FindEntryByIdempotencyKey(ctx context.Context, tx Tx, key string) (*model.LedgerEntry, error)
	FindEntryByExternalEventID(ctx context.Context, tx Tx, eventID string) (*model.LedgerEntry, error)
	ListEntriesByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.LedgerEntry, error)
}
