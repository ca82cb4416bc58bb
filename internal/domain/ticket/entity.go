package ticket

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents ticket status.
// Transitions: pending->active, pending->cancelled, active->cancelled,
// active->refunded. Terminal states never re-enter pending.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// Ticket is an event-access grant tied 1:1 to an event_ticket transaction.
// Price and currency are copied at issuance so later price changes on the
// event never affect sold tickets.
type Ticket struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	EventID       uuid.UUID       `db:"event_id" json:"event_id"`
	UserID        uuid.UUID       `db:"user_id" json:"user_id"`
	TransactionID uuid.UUID       `db:"transaction_id" json:"transaction_id"`
	Status        Status          `db:"status" json:"status"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Currency      string          `db:"currency" json:"currency"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// EventInfo is the slice of a catalog event the ticket lifecycle needs.
type EventInfo struct {
	ID       uuid.UUID
	ArtistID uuid.UUID
	IsPaid   bool
	Price    decimal.Decimal
	Currency string
}
