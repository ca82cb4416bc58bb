package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines ledger data access for transactions and payments.
type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListByPayer(ctx context.Context, payerID uuid.UUID, limit, offset int) ([]*Transaction, error)

	// TransitionFromPending atomically moves a pending transaction to the
	// given terminal status. When payment is non-nil it is inserted in the
	// same database transaction. Returns false when the row was no longer
	// pending, which is how a lost authorization race is observed.
	TransitionFromPending(ctx context.Context, id uuid.UUID, to Status, payment *Payment) (bool, error)

	// TransitionCompletedToRefunded atomically moves a completed transaction
	// to refunded. Returns false when the row was not completed.
	TransitionCompletedToRefunded(ctx context.Context, id uuid.UUID) (bool, error)

	GetPayment(ctx context.Context, transactionID uuid.UUID) (*Payment, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates transaction repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Transaction) error {
	query := `
		INSERT INTO transactions (id, payer_id, artist_id, amount, description, source, source_id, metadata, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.PayerID,
		t.ArtistID,
		t.Amount,
		t.Description,
		t.Source,
		t.SourceID,
		t.Metadata,
		t.Status,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	query := `
		SELECT id, payer_id, artist_id, amount, description, source, source_id, metadata, status, created_at, updated_at
		FROM transactions WHERE id = $1
	`
	var t Transaction
	err := r.db.GetContext(ctx, &t, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) ListByPayer(ctx context.Context, payerID uuid.UUID, limit, offset int) ([]*Transaction, error) {
	query := `
		SELECT id, payer_id, artist_id, amount, description, source, source_id, metadata, status, created_at, updated_at
		FROM transactions
		WHERE payer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	transactions := make([]*Transaction, 0)
	err := r.db.SelectContext(ctx, &transactions, query, payerID, limit, offset)
	return transactions, err
}

func (r *repository) TransitionFromPending(ctx context.Context, id uuid.UUID, to Status, payment *Payment) (bool, error) {
	if to != StatusCompleted && to != StatusFailed {
		return false, fmt.Errorf("illegal transition from pending to %s", to)
	}

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Conditional update is the double-processing guard: of two concurrent
	// authorize calls, exactly one sees rows == 1.
	result, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, to)
	if err != nil {
		return false, fmt.Errorf("update transaction status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	if payment != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payments (id, transaction_id, method, details, provider_ref, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`, payment.ID, payment.TransactionID, payment.Method, payment.Details, payment.ProviderRef, payment.Status)
		if err != nil {
			return false, fmt.Errorf("insert payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

func (r *repository) TransitionCompletedToRefunded(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = 'refunded', updated_at = NOW()
		WHERE id = $1 AND status = 'completed'
	`, id)
	if err != nil {
		return false, fmt.Errorf("update transaction status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *repository) GetPayment(ctx context.Context, transactionID uuid.UUID) (*Payment, error) {
	query := `
		SELECT id, transaction_id, method, details, provider_ref, status, created_at
		FROM payments WHERE transaction_id = $1
	`
	var p Payment
	err := r.db.GetContext(ctx, &p, query, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
