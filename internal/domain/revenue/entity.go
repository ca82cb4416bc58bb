package revenue

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthTotal is one month of completed revenue, keyed as "2006-01".
type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// Summary aggregates an artist's completed transactions.
type Summary struct {
	ArtistID uuid.UUID                  `json:"artist_id"`
	Total    decimal.Decimal            `json:"total"`
	Count    int64                      `json:"count"`
	BySource map[string]decimal.Decimal `json:"by_source"`
	Monthly  []MonthTotal               `json:"monthly"`
}

// TopFan is one ranked supporter of an artist.
type TopFan struct {
	PayerID uuid.UUID       `json:"payer_id" db:"payer_id"`
	Total   decimal.Decimal `json:"total" db:"total"`
	Count   int64           `json:"count" db:"count"`
}
