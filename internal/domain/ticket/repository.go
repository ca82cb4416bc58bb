package ticket

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines ticket data access. Every status change is a conditional
// update so retried side effects and concurrent actors stay safe.
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*Ticket, error)

	// ActivateByTransaction moves the ticket for a transaction to active.
	// Re-activating an active ticket reports true (idempotent retry).
	ActivateByTransaction(ctx context.Context, transactionID uuid.UUID) (bool, error)

	// RevokeByTransaction marks the ticket for a refunded transaction as
	// refunded. Reports false when no revocable ticket exists.
	RevokeByTransaction(ctx context.Context, transactionID uuid.UUID) (bool, error)

	// UpdateStatusFrom sets status=to only when the current status is one of
	// from. Reports false when the row was in none of them.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from []Status, to Status) (bool, error)

	HasActiveTicket(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Ticket, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates ticket repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Ticket) error {
	query := `
		INSERT INTO tickets (id, event_id, user_id, transaction_id, status, price, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.EventID,
		t.UserID,
		t.TransactionID,
		t.Status,
		t.Price,
		t.Currency,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	query := `SELECT id, event_id, user_id, transaction_id, status, price, currency, created_at, updated_at FROM tickets WHERE id = $1`
	var t Ticket
	err := r.db.GetContext(ctx, &t, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*Ticket, error) {
	query := `SELECT id, event_id, user_id, transaction_id, status, price, currency, created_at, updated_at FROM tickets WHERE transaction_id = $1`
	var t Ticket
	err := r.db.GetContext(ctx, &t, query, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) ActivateByTransaction(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	// 'active' in the predicate makes a retried activation a clean no-op.
	result, err := r.db.ExecContext(ctx, `
		UPDATE tickets
		SET status = 'active', updated_at = NOW()
		WHERE transaction_id = $1 AND status IN ('pending', 'active')
	`, transactionID)
	if err != nil {
		return false, fmt.Errorf("activate ticket: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *repository) RevokeByTransaction(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tickets
		SET status = 'refunded', updated_at = NOW()
		WHERE transaction_id = $1 AND status IN ('pending', 'active')
	`, transactionID)
	if err != nil {
		return false, fmt.Errorf("revoke ticket: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *repository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from []Status, to Status) (bool, error) {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}

	query, args, err := sqlx.In(`
		UPDATE tickets
		SET status = ?, updated_at = NOW()
		WHERE id = ? AND status IN (?)
	`, string(to), id, states)
	if err != nil {
		return false, fmt.Errorf("build status update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return false, fmt.Errorf("update ticket status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *repository) HasActiveTicket(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	var found bool
	err := r.db.GetContext(ctx, &found, `
		SELECT EXISTS (SELECT 1 FROM tickets WHERE event_id = $1 AND user_id = $2 AND status = 'active')
	`, eventID, userID)
	if err != nil {
		return false, err
	}
	return found, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Ticket, error) {
	tickets := make([]*Ticket, 0)
	err := r.db.SelectContext(ctx, &tickets, `
		SELECT id, event_id, user_id, transaction_id, status, price, currency, created_at, updated_at
		FROM tickets
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return tickets, err
}
