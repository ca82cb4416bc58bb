package reward

import (
	"time"

	"github.com/google/uuid"
)

// LoyaltyTransaction is a ledger row: a credit of loyalty units tied to the
// money transaction that earned it. transaction_id carries a unique constraint
// so a retried side effect can never credit twice.
type LoyaltyTransaction struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	Amount        int64     `db:"amount" json:"amount"`
	Description   string    `db:"description" json:"description"`
	TransactionID uuid.UUID `db:"transaction_id" json:"transaction_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
