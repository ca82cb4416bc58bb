package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is the read-side projection of a catalog event. Only the fields the
// monetization engine needs are selected.
type Event struct {
	ID       uuid.UUID       `db:"id"`
	ArtistID uuid.UUID       `db:"artist_id"`
	Title    string          `db:"title"`
	IsPaid   bool            `db:"is_paid"`
	Price    decimal.Decimal `db:"price"`
	Currency string          `db:"currency"`
}
