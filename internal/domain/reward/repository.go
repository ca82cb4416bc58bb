package reward

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	// Issue credits the user and appends a ledger row in one transaction.
	// A second call with the same transactionID is a no-op (returns false).
	Issue(ctx context.Context, userID uuid.UUID, amount int64, description string, transactionID uuid.UUID) (bool, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]LoyaltyTransaction, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates reward repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Issue(ctx context.Context, userID uuid.UUID, amount int64, description string, transactionID uuid.UUID) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	// The unique constraint on transaction_id makes retries idempotent:
	// the ledger insert decides whether the balance is touched at all.
	result, err := tx.ExecContext(ctx2, `
		INSERT INTO loyalty_transactions (id, user_id, amount, description, transaction_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		ON CONFLICT (transaction_id) DO NOTHING
	`, userID, amount, description, transactionID)
	if err != nil {
		return false, fmt.Errorf("%w: insert ledger entry", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		// Already issued for this transaction.
		return false, nil
	}

	_, err = tx.ExecContext(ctx2, `
		INSERT INTO loyalty_balances (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = loyalty_balances.balance + EXCLUDED.balance, updated_at = NOW()
	`, userID, amount)
	if err != nil {
		return false, fmt.Errorf("%w: update balance", ErrInternal)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return true, nil
}

func (r *repository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int64
	err := r.db.GetContext(ctx2, &balance, `SELECT balance FROM loyalty_balances WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: get balance", ErrInternal)
	}
	return balance, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]LoyaltyTransaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	entries := make([]LoyaltyTransaction, 0)
	err := r.db.SelectContext(ctx2, &entries, `
		SELECT id, user_id, amount, description, transaction_id, created_at
		FROM loyalty_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries", ErrInternal)
	}
	return entries, nil
}
