package transaction

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest is the payload for creating a payment intent.
// Amount is validated in the service (it must be a positive decimal).
type CreateTransactionRequest struct {
	Amount      decimal.Decimal        `json:"amount"`
	ArtistID    *uuid.UUID             `json:"artist_id,omitempty"`
	Description string                 `json:"description" validate:"required,max=500"`
	Source      string                 `json:"source" validate:"required,revenue_source"`
	SourceID    *uuid.UUID             `json:"source_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// AuthorizeRequest is the payload for authorizing a pending transaction.
// Details is an opaque provider blob; only the gateway interprets it.
type AuthorizeRequest struct {
	Method  string                 `json:"method" validate:"required,payment_method"`
	Details map[string]interface{} `json:"details,omitempty"`
}
