package reward

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fanstage/fanstage-api/internal/monitoring"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Issue credits loyalty units to a user for a completed money transaction.
// Issuing twice for the same transaction is a logged no-op.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID, amount int64, description string, transactionID uuid.UUID) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	issued, err := s.repo.Issue(ctx, userID, amount, description, transactionID)
	if err != nil {
		return err
	}
	if !issued {
		log.Debug().
			Str("user_id", userID.String()).
			Str("transaction_id", transactionID.String()).
			Msg("reward already issued for transaction, skipping")
		return nil
	}

	monitoring.RecordRewardUnits(amount)
	log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Str("transaction_id", transactionID.String()).
		Msg("loyalty reward issued")
	return nil
}

func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]LoyaltyTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
