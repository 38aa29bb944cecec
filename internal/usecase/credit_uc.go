package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
	"fashion-ai-studio/internal/domain/ports/repository"
	"fashion-ai-studio/internal/infra/metrics"
)

// Compile-time check
var _ CreditUseCase = (*creditUC)(nil)

// CreditUseCase is the reservation engine: every balance mutation in the
// system funnels through these operations. All three are safe for
// at-least-once callers; the ledger's unique keys bound the effect to
// at-most-once.
type CreditUseCase interface {
	// Reserve atomically spends credits for a job. Re-invocation with the
	// same idempotency key returns the previously recorded outcome.
	Reserve(ctx context.Context, userID string, amount int64, jobID, idempotencyKey, description string) (*model.ReservationOutcome, error)

	// Release is the symmetric credit-back used for refunds.
	Release(ctx context.Context, userID string, amount int64, jobID, idempotencyKey, description string) (*model.ReservationOutcome, error)

	// Credit applies an external payment event to the balance exactly once
	// per event id, no matter how often it is delivered.
	Credit(ctx context.Context, userID string, amount int64, externalEventID, description string) (*model.ReservationOutcome, error)

	// Grant adds bonus credits outside the purchase flow (seeding, support).
	Grant(ctx context.Context, userID string, amount int64, description string) (*model.ReservationOutcome, error)

	Balance(ctx context.Context, userID string) (int64, error)
	Entries(ctx context.Context, userID string, limit int) ([]*model.LedgerEntry, error)
}

type creditUC struct {
	ledger repository.LedgerRepository
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewCreditUseCase(ledger repository.LedgerRepository, tm repository.TransactionManager, logger *zerolog.Logger) *creditUC {
	l := logger.With().Str("component", "CreditUC").Logger()
	return &creditUC{ledger: ledger, tm: tm, log: &l}
}

func (u *creditUC) Reserve(ctx context.Context, userID string, amount int64, jobID, idempotencyKey, description string) (*model.ReservationOutcome, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	var outcome *model.ReservationOutcome
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if prev, err := u.findReplay(ctx, tx, idempotencyKey); err != nil {
			return err
		} else if prev != nil {
			outcome = prev
			metrics.IncIdempotentReplay("reserve")
			return nil
		}

		newBalance, err := u.ledger.DecrementIfEnough(ctx, tx, userID, amount)
		if err != nil {
			return err
		}

		entry, err := model.NewLedgerEntry(userID, model.TxTypeSpend, amount, newBalance, description)
		if err != nil {
			return err
		}
		entry.WithJob(jobID).WithIdempotencyKey(idempotencyKey)
		if err := u.ledger.AppendEntry(ctx, tx, entry); err != nil {
			return err
		}

		outcome = &model.ReservationOutcome{Success: true, NewBalance: newBalance}
		return nil
	})

	switch {
	case err == nil:
		if !outcome.AlreadyApplied {
			metrics.AddCreditsMoved(string(model.TxTypeSpend), amount)
		}
		return outcome, nil
	case errors.Is(err, domain.ErrInsufficientCredits):
		metrics.IncReservationDenied()
		return &model.ReservationOutcome{Success: false}, err
	case errors.Is(err, domain.ErrAlreadyExists):
		// Lost a race against a concurrent call with the same key; the other
		// writer's entry is the outcome.
		return u.replayByKey(ctx, idempotencyKey, "reserve")
	default:
		return nil, err
	}
}

func (u *creditUC) Release(ctx context.Context, userID string, amount int64, jobID, idempotencyKey, description string) (*model.ReservationOutcome, error) {
	outcome, err := u.creditWithType(ctx, userID, amount, model.TxTypeRefund, idempotencyKey, "", description, &jobID)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return u.replayByKey(ctx, idempotencyKey, "release")
	}
	return outcome, err
}

func (u *creditUC) Credit(ctx context.Context, userID string, amount int64, externalEventID, description string) (*model.ReservationOutcome, error) {
	// The ledger keys external credits both ways: by derived idempotency key
	// and by the raw event id, either unique constraint stops a duplicate.
	key := "pay_" + externalEventID
	outcome, err := u.creditWithType(ctx, userID, amount, model.TxTypePurchase, key, externalEventID, description, nil)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return u.replayByKey(ctx, key, "credit")
	}
	return outcome, err
}

func (u *creditUC) Grant(ctx context.Context, userID string, amount int64, description string) (*model.ReservationOutcome, error) {
	return u.creditWithType(ctx, userID, amount, model.TxTypeBonus, "", "", description, nil)
}

func (u *creditUC) Balance(ctx context.Context, userID string) (int64, error) {
	b, err := u.ledger.GetBalance(ctx, nil, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return b.Balance, nil
}

func (u *creditUC) Entries(ctx context.Context, userID string, limit int) ([]*model.LedgerEntry, error) {
	return u.ledger.ListEntriesByUser(ctx, nil, userID, limit)
}

// creditWithType increments the balance and appends the matching entry in one
// transaction. Used by Release, Credit and Grant.
func (u *creditUC) creditWithType(ctx context.Context, userID string, amount int64, txType model.TxType, idempotencyKey, externalEventID, description string, jobID *string) (*model.ReservationOutcome, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	var outcome *model.ReservationOutcome
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if prev, err := u.findReplay(ctx, tx, idempotencyKey); err != nil {
			return err
		} else if prev != nil {
			outcome = prev
			metrics.IncIdempotentReplay(string(txType))
			return nil
		}

		newBalance, err := u.ledger.IncrementBalance(ctx, tx, userID, amount)
		if err != nil {
			return err
		}

		entry, err := model.NewLedgerEntry(userID, txType, amount, newBalance, description)
		if err != nil {
			return err
		}
		if jobID != nil {
			entry.WithJob(*jobID)
		}
		if idempotencyKey != "" {
			entry.WithIdempotencyKey(idempotencyKey)
		}
		if externalEventID != "" {
			entry.WithExternalEvent(externalEventID)
		}
		if err := u.ledger.AppendEntry(ctx, tx, entry); err != nil {
			return err
		}

		outcome = &model.ReservationOutcome{Success: true, NewBalance: newBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !outcome.AlreadyApplied {
		metrics.AddCreditsMoved(string(txType), amount)
	}
	return outcome, nil
}

// findReplay returns the recorded outcome for a previously applied key.
func (u *creditUC) findReplay(ctx context.Context, tx repository.Tx, idempotencyKey string) (*model.ReservationOutcome, error) {
	if idempotencyKey == "" {
		return nil, nil
	}
	prev, err := u.ledger.FindEntryByIdempotencyKey(ctx, tx, idempotencyKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.ReservationOutcome{Success: true, NewBalance: prev.BalanceAfter, AlreadyApplied: true}, nil
}

func (u *creditUC) replayByKey(ctx context.Context, key, op string) (*model.ReservationOutcome, error) {
	prev, err := u.ledger.FindEntryByIdempotencyKey(ctx, nil, key)
	if err != nil {
		return nil, err
	}
	metrics.IncIdempotentReplay(op)
	return &model.ReservationOutcome{Success: true, NewBalance: prev.BalanceAfter, AlreadyApplied: true}, nil
}
