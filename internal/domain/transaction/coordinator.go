package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fanstage/fanstage-api/internal/monitoring"
)

// rewardRate is the loyalty credit issued per completed transaction:
// floor(amount * 0.05) units.
var rewardRate = decimal.NewFromFloat(0.05)

// TicketActivator activates the ticket bound to a completed transaction.
// Re-activating an already active ticket must be a no-op.
type TicketActivator interface {
	ActivateByTransaction(ctx context.Context, transactionID uuid.UUID) error
}

// StockAdjuster decrements a merchandise item's stock by one. Returns false
// when stock was already zero (the decrement must never go negative).
type StockAdjuster interface {
	DecrementStock(ctx context.Context, itemID uuid.UUID) (bool, error)
}

// RewardIssuer credits loyalty units to a user. Issuing twice for the same
// transaction must be a no-op.
type RewardIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID, amount int64, description string, transactionID uuid.UUID) error
}

// Coordinator performs the follow-up actions a completed payment triggers:
// the source-specific effect (ticket grant, stock decrement) and the
// source-agnostic loyalty reward. Every effect is attempted even when an
// earlier one fails; the transaction stays completed regardless (money has
// moved), and failures are surfaced for operational retry.
type Coordinator struct {
	tickets TicketActivator
	stock   StockAdjuster
	rewards RewardIssuer
}

// NewCoordinator creates side-effect coordinator
func NewCoordinator(tickets TicketActivator, stock StockAdjuster, rewards RewardIssuer) *Coordinator {
	return &Coordinator{tickets: tickets, stock: stock, rewards: rewards}
}

// Run executes the side effects for a completed transaction. Each effect is
// idempotent, so Run may be re-invoked for the same transaction after a
// partial failure.
func (c *Coordinator) Run(ctx context.Context, t *Transaction) error {
	if !t.IsCompleted() {
		return fmt.Errorf("side effects require a completed transaction, got %s", t.Status)
	}

	var errs []error

	// Adding a Source constant forces a decision here about its effect.
	switch t.Source {
	case SourceEventTicket:
		if t.SourceID.Valid {
			if err := c.tickets.ActivateByTransaction(ctx, t.ID); err != nil {
				monitoring.RecordSideEffectFailure("ticket_activation")
				log.Error().Err(err).
					Str("transaction_id", t.ID.String()).
					Msg("ticket activation failed, needs retry")
				errs = append(errs, fmt.Errorf("activate ticket: %w", err))
			}
		}
	case SourceMerchandise:
		if t.SourceID.Valid {
			decremented, err := c.stock.DecrementStock(ctx, t.SourceID.UUID)
			if err != nil {
				monitoring.RecordSideEffectFailure("stock_decrement")
				log.Error().Err(err).
					Str("transaction_id", t.ID.String()).
					Str("item_id", t.SourceID.UUID.String()).
					Msg("stock decrement failed, needs retry")
				errs = append(errs, fmt.Errorf("decrement stock: %w", err))
			} else if !decremented {
				// Sold with zero stock on record. The sale stands; the
				// inventory discrepancy is an operator problem.
				monitoring.RecordStockAnomaly()
				log.Warn().
					Str("transaction_id", t.ID.String()).
					Str("item_id", t.SourceID.UUID.String()).
					Msg("merchandise sold with zero stock on record")
			}
		}
	case SourceAlbumSale, SourceTrackSale, SourceSubscription, SourceDonation, SourceStreaming, SourceExclusiveContent:
		// No source-specific effect; access to the purchased content is
		// resolved by the catalog layer from the completed transaction.
	}

	if reward := t.Amount.Mul(rewardRate).Floor().IntPart(); reward > 0 {
		description := fmt.Sprintf("Reward for %s purchase", t.Source)
		if err := c.rewards.Issue(ctx, t.PayerID, reward, description, t.ID); err != nil {
			monitoring.RecordSideEffectFailure("reward_issue")
			log.Error().Err(err).
				Str("transaction_id", t.ID.String()).
				Int64("reward", reward).
				Msg("reward issuance failed, needs retry")
			errs = append(errs, fmt.Errorf("issue reward: %w", err))
		}
	}

	return errors.Join(errs...)
}
