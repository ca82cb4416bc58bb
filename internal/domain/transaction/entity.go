package transaction

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents transaction status
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Source tags a transaction with the revenue stream it belongs to.
type Source string

const (
	SourceEventTicket      Source = "event_ticket"
	SourceMerchandise      Source = "merchandise"
	SourceAlbumSale        Source = "album_sale"
	SourceTrackSale        Source = "track_sale"
	SourceSubscription     Source = "subscription"
	SourceDonation         Source = "donation"
	SourceStreaming        Source = "streaming"
	SourceExclusiveContent Source = "exclusive_content"
)

// Sources lists every valid revenue source tag.
var Sources = []Source{
	SourceEventTicket,
	SourceMerchandise,
	SourceAlbumSale,
	SourceTrackSale,
	SourceSubscription,
	SourceDonation,
	SourceStreaming,
	SourceExclusiveContent,
}

// Valid reports whether s is a known revenue source.
func (s Source) Valid() bool {
	for _, known := range Sources {
		if s == known {
			return true
		}
	}
	return false
}

// JSONMap is an open key-value metadata blob stored as jsonb. No schema is
// assumed; boundaries that need specific keys validate them themselves.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type: %T", src)
	}
}

// Transaction is the canonical record of an intent to move money.
// Status transitions: pending->completed, pending->failed, completed->refunded.
type Transaction struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	PayerID     uuid.UUID       `db:"payer_id" json:"payer_id"`
	ArtistID    uuid.NullUUID   `db:"artist_id" json:"artist_id,omitempty"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Description string          `db:"description" json:"description"`
	Source      Source          `db:"source" json:"source"`
	SourceID    uuid.NullUUID   `db:"source_id" json:"source_id,omitempty"`
	Metadata    JSONMap         `db:"metadata" json:"metadata,omitempty"`
	Status      Status          `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// IsCompleted checks if the payment went through
func (t *Transaction) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// Payment records how a completed transaction was paid. One-to-one with its
// transaction; never created for failed transactions.
type Payment struct {
	ID            uuid.UUID `db:"id" json:"id"`
	TransactionID uuid.UUID `db:"transaction_id" json:"transaction_id"`
	Method        string    `db:"method" json:"method"`
	Details       JSONMap   `db:"details" json:"details,omitempty"`
	ProviderRef   string    `db:"provider_ref" json:"provider_ref,omitempty"`
	Status        Status    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
