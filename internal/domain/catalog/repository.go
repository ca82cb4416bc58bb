package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository reads the catalog tables owned by the surrounding application.
// The engine treats them as external collaborators: read-only lookups plus the
// single write the payment flow triggers (stock decrement).
type Repository interface {
	ArtistExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	EventExists(ctx context.Context, id uuid.UUID) (bool, error)
	MerchItemExists(ctx context.Context, id uuid.UUID) (bool, error)
	AlbumExists(ctx context.Context, id uuid.UUID) (bool, error)
	TrackExists(ctx context.Context, id uuid.UUID) (bool, error)
	DecrementStock(ctx context.Context, itemID uuid.UUID) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates catalog repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) exists(ctx context.Context, query string, id uuid.UUID) (bool, error) {
	var found bool
	err := r.db.GetContext(ctx, &found, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return found, nil
}

func (r *repository) ArtistExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM artists WHERE id = $1)`, id)
}

func (r *repository) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	query := `SELECT id, artist_id, title, is_paid, price, currency FROM events WHERE id = $1`
	var e Event
	err := r.db.GetContext(ctx, &e, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *repository) EventExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id)
}

func (r *repository) MerchItemExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM merch_items WHERE id = $1)`, id)
}

func (r *repository) AlbumExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM albums WHERE id = $1)`, id)
}

func (r *repository) TrackExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM tracks WHERE id = $1)`, id)
}

// DecrementStock decrements the item's stock by one, only when stock is still
// positive. Returns false when the item was missing or already at zero, so two
// simultaneous purchases of the last unit can never drive stock negative.
func (r *repository) DecrementStock(ctx context.Context, itemID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE merch_items
		SET stock = stock - 1, updated_at = NOW()
		WHERE id = $1 AND stock > 0
	`, itemID)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrement stock rows affected: %w", err)
	}
	return rows > 0, nil
}
