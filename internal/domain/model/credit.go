package model

import (
	"time"

	"fashion-ai-studio/internal/domain"
)

type TxType string

const (
	TxTypePurchase   TxType = "purchase"
	TxTypeSpend      TxType = "spend"
	TxTypeRefund     TxType = "refund"
	TxTypeBonus      TxType = "bonus"
	TxTypeAdjustment TxType = "adjustment"
)

// CreditBalance is the single per-user balance row. It is mutated only by the
// atomic reserve/release/credit operations, never written directly by callers.
type CreditBalance struct {
	UserID    string
	Balance   int64
	UpdatedAt time.Time
}

// LedgerEntry is an immutable, append-only record of a balance mutation.
// BalanceAfter snapshots the balance as of this entry, so for a fixed user
// the ordered entries replay to the current balance.
type LedgerEntry struct {
	ID              string // ULID, sortable by creation
	UserID          string
	TxType          TxType
	Amount          int64
	BalanceAfter    int64
	JobID           *string
	ExternalEventID *string
	IdempotencyKey  *string
	Description     string
	CreatedAt       time.Time
}

func NewLedgerEntry(userID string, txType TxType, amount, balanceAfter int64, description string) (*LedgerEntry, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	switch txType {
	case TxTypePurchase, TxTypeSpend, TxTypeRefund, TxTypeBonus, TxTypeAdjustment:
	default:
		return nil, domain.ErrInvalidArgument
	}
	return &LedgerEntry{
		UserID:       userID,
		TxType:       txType,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Description:  description,
		CreatedAt:    time.Now(),
	}, nil
}

// WithJob links the entry to the job that caused it.
func (e *LedgerEntry) WithJob(jobID string) *LedgerEntry {
	e.JobID = &jobID
	return e
}

func (e *LedgerEntry) WithIdempotencyKey(key string) *LedgerEntry {
	e.IdempotencyKey = &key
	return e
}

func (e *LedgerEntry) WithExternalEvent(eventID string) *LedgerEntry {
	e.ExternalEventID = &eventID
	return e
}

// ReservationOutcome is what the reservation engine reports back to callers.
type ReservationOutcome struct {
	Success    bool
	NewBalance int64
	// AlreadyApplied is set when the idempotency key matched a previously
	// recorded entry and no new mutation happened.
	AlreadyApplied bool
}
