package revenue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Repository reads aggregates over completed transactions. Refunded and
// failed transactions never count toward revenue.
type Repository interface {
	// CompletedTotals returns the lifetime sum and count of completed
	// transactions for an artist.
	CompletedTotals(ctx context.Context, artistID uuid.UUID) (decimal.Decimal, int64, error)
	CompletedBySource(ctx context.Context, artistID uuid.UUID) (map[string]decimal.Decimal, error)
	CompletedByMonth(ctx context.Context, artistID uuid.UUID, from, to time.Time) (map[string]decimal.Decimal, error)
	TopPayers(ctx context.Context, artistID uuid.UUID, limit int) ([]*TopFan, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates revenue repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CompletedTotals(ctx context.Context, artistID uuid.UUID) (decimal.Decimal, int64, error) {
	var row struct {
		Total decimal.Decimal `db:"total"`
		Count int64           `db:"count"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count
		FROM transactions
		WHERE artist_id = $1 AND status = 'completed'
	`, artistID)
	return row.Total, row.Count, err
}

func (r *repository) CompletedBySource(ctx context.Context, artistID uuid.UUID) (map[string]decimal.Decimal, error) {
	rows := []struct {
		Source string          `db:"source"`
		Total  decimal.Decimal `db:"total"`
	}{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT source, SUM(amount) AS total
		FROM transactions
		WHERE artist_id = $1 AND status = 'completed'
		GROUP BY source
	`, artistID)
	if err != nil {
		return nil, err
	}

	bySource := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		bySource[row.Source] = row.Total
	}
	return bySource, nil
}

func (r *repository) CompletedByMonth(ctx context.Context, artistID uuid.UUID, from, to time.Time) (map[string]decimal.Decimal, error) {
	rows := []struct {
		Month string          `db:"month"`
		Total decimal.Decimal `db:"total"`
	}{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month, SUM(amount) AS total
		FROM transactions
		WHERE artist_id = $1 AND status = 'completed' AND created_at >= $2 AND created_at < $3
		GROUP BY 1
	`, artistID, from, to)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		byMonth[row.Month] = row.Total
	}
	return byMonth, nil
}

func (r *repository) TopPayers(ctx context.Context, artistID uuid.UUID, limit int) ([]*TopFan, error) {
	fans := make([]*TopFan, 0)
	// payer_id breaks ties so the ranking is stable across requests.
	err := r.db.SelectContext(ctx, &fans, `
		SELECT payer_id, SUM(amount) AS total, COUNT(*) AS count
		FROM transactions
		WHERE artist_id = $1 AND status = 'completed'
		GROUP BY payer_id
		ORDER BY total DESC, payer_id ASC
		LIMIT $2
	`, artistID, limit)
	return fans, err
}
