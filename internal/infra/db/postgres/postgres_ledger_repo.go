package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
	"fashion-ai-studio/internal/domain/ports/repository"
)

var _ repository.LedgerRepository = (*ledgerRepo)(nil)

type ledgerRepo struct{ pool *pgxpool.Pool }

func NewLedgerRepo(pool *pgxpool.Pool) *ledgerRepo {
	return &ledgerRepo{pool: pool}
}

func (r *ledgerRepo) GetBalance(ctx context.Context, tx repository.Tx, userID string) (*model.CreditBalance, error) {
	q := `SELECT user_id, balance, updated_at FROM credit_balances WHERE user_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	b := &model.CreditBalance{}
	if err := row.Scan(&b.UserID, &b.Balance, &b.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	return b, nil
}

// DecrementIfEnough is the reserve side of the engine: the WHERE clause makes
// check-and-decrement one atomic statement, so concurrent reservations for
// the same user serialize on the row and the balance can never go negative.
func (r *ledgerRepo) DecrementIfEnough(ctx context.Context, tx repository.Tx, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidArgument
	}
	const q = `
UPDATE credit_balances
SET balance = balance - $2, updated_at = NOW()
WHERE user_id = $1 AND balance >= $2
RETURNING balance;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, amount)
	if err != nil {
		return 0, err
	}
	var newBalance int64
	if err := row.Scan(&newBalance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either no balance row or not enough credits; both read the same
			// to the caller.
			return 0, domain.ErrInsufficientCredits
		}
		return 0, domain.ErrReadDatabaseRow
	}
	return newBalance, nil
}

func (r *ledgerRepo) IncrementBalance(ctx context.Context, tx repository.Tx, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO credit_balances (user_id, balance, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE SET
  balance = credit_balances.balance + EXCLUDED.balance,
  updated_at = NOW()
RETURNING balance;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, amount)
	if err != nil {
		return 0, err
	}
	var newBalance int64
	if err := row.Scan(&newBalance); err != nil {
		return 0, scanErr(err)
	}
	return newBalance, nil
}

func (r *ledgerRepo) AppendEntry(ctx context.Context, tx repository.Tx, e *model.LedgerEntry) error {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	const q = `
INSERT INTO credits_ledger (
  id, user_id, tx_type, amount, balance_after, job_id, external_event_id, idempotency_key, description, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`
	_, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.UserID, e.TxType, e.Amount, e.BalanceAfter, e.JobID, e.ExternalEventID, e.IdempotencyKey, e.Description, e.CreatedAt)
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

const ledgerColumns = `id, user_id, tx_type, amount, balance_after, job_id, external_event_id, idempotency_key, description, created_at`

func (r *ledgerRepo) FindEntryByIdempotencyKey(ctx context.Context, tx repository.Tx, key string) (*model.LedgerEntry, error) {
	q := `SELECT ` + ledgerColumns + ` FROM credits_ledger WHERE idempotency_key=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, key)
	if err != nil {
		return nil, err
	}
	return scanLedgerEntry(row)
}

func (r *ledgerRepo) FindEntryByExternalEventID(ctx context.Context, tx repository.Tx, eventID string) (*model.LedgerEntry, error) {
	q := `SELECT ` + ledgerColumns + ` FROM credits_ledger WHERE external_event_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, eventID)
	if err != nil {
		return nil, err
	}
	return scanLedgerEntry(row)
}

func (r *ledgerRepo) ListEntriesByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	// ULID ids sort by creation time, so id ordering is creation ordering.
	q := `SELECT ` + ledgerColumns + ` FROM credits_ledger WHERE user_id=$1 ORDER BY id DESC LIMIT $2;`
	rows, err := pickRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanLedgerEntry(row pgx.Row) (*model.LedgerEntry, error) {
	e := &model.LedgerEntry{}
	var txType string
	err := row.Scan(&e.ID, &e.UserID, &txType, &e.Amount, &e.BalanceAfter,
		&e.JobID, &e.ExternalEventID, &e.IdempotencyKey, &e.Description, &e.CreatedAt)
	if err != nil {
		return nil, scanErr(err)
	}
	e.TxType = model.TxType(txType)
	return e, nil
}
