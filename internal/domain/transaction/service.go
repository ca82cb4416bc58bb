package transaction

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fanstage/fanstage-api/internal/monitoring"
	"github.com/fanstage/fanstage-api/internal/pkg/gateway"
)

// Catalog is the narrow read surface the engine needs from the catalog layer
// to validate transaction references.
type Catalog interface {
	ArtistExists(ctx context.Context, id uuid.UUID) (bool, error)
	EventExists(ctx context.Context, id uuid.UUID) (bool, error)
	MerchItemExists(ctx context.Context, id uuid.UUID) (bool, error)
	AlbumExists(ctx context.Context, id uuid.UUID) (bool, error)
	TrackExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// TicketRevoker revokes any ticket tied to a refunded transaction.
// No ticket for the transaction is not an error.
type TicketRevoker interface {
	RevokeByTransaction(ctx context.Context, transactionID uuid.UUID) error
}

// CreateInput carries a new payment intent.
type CreateInput struct {
	Amount      decimal.Decimal
	PayerID     uuid.UUID
	ArtistID    *uuid.UUID
	Description string
	Source      Source
	SourceID    *uuid.UUID
	Metadata    JSONMap
}

// Service is the transaction engine: it creates pending payment intents and
// owns the single authorization entry point that advances them to a terminal
// state. All state lives in the store; the service holds no mutable state.
type Service struct {
	repo           Repository
	catalog        Catalog
	gateway        gateway.Gateway
	gatewayTimeout time.Duration

	coordinator *Coordinator
	tickets     TicketRevoker
}

// NewService creates transaction service. The side-effect coordinator and
// ticket revoker are attached after construction because they depend on the
// ticket service, which in turn depends on this service.
func NewService(repo Repository, catalog Catalog, gw gateway.Gateway, gatewayTimeout time.Duration) *Service {
	return &Service{
		repo:           repo,
		catalog:        catalog,
		gateway:        gw,
		gatewayTimeout: gatewayTimeout,
	}
}

// AttachCoordinator wires the side-effect coordinator
func (s *Service) AttachCoordinator(c *Coordinator) {
	s.coordinator = c
}

// AttachTicketRevoker wires the ticket revoker used on refund
func (s *Service) AttachTicketRevoker(r TicketRevoker) {
	s.tickets = r
}

// Create validates the intent and inserts a pending transaction. No money has
// moved yet. Validation failures leave the store untouched.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Transaction, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, ErrEmptyDescription
	}
	if !in.Source.Valid() {
		return nil, ErrInvalidSource
	}

	if in.ArtistID != nil {
		exists, err := s.catalog.ArtistExists(ctx, *in.ArtistID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrArtistNotFound
		}
	}

	if in.SourceID != nil {
		exists, err := s.sourceItemExists(ctx, in.Source, *in.SourceID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrSourceItemNotFound
		}
	}

	t := &Transaction{
		ID:          uuid.New(),
		PayerID:     in.PayerID,
		Amount:      in.Amount,
		Description: in.Description,
		Source:      in.Source,
		Metadata:    in.Metadata,
		Status:      StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if in.ArtistID != nil {
		t.ArtistID = uuid.NullUUID{UUID: *in.ArtistID, Valid: true}
	}
	if in.SourceID != nil {
		t.SourceID = uuid.NullUUID{UUID: *in.SourceID, Valid: true}
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	log.Info().
		Str("transaction_id", t.ID.String()).
		Str("payer_id", t.PayerID.String()).
		Str("source", string(t.Source)).
		Str("amount", t.Amount.String()).
		Msg("transaction created")
	return t, nil
}

// sourceItemExists checks the source item against the catalog entity implied
// by the revenue source. Sources without a catalog entity skip the check.
func (s *Service) sourceItemExists(ctx context.Context, source Source, id uuid.UUID) (bool, error) {
	switch source {
	case SourceEventTicket:
		return s.catalog.EventExists(ctx, id)
	case SourceMerchandise:
		return s.catalog.MerchItemExists(ctx, id)
	case SourceAlbumSale:
		return s.catalog.AlbumExists(ctx, id)
	case SourceTrackSale:
		return s.catalog.TrackExists(ctx, id)
	default:
		return true, nil
	}
}

// Authorize performs the payment call and advances the transaction to a
// terminal state. Exactly one of two concurrent calls on the same pending
// transaction wins; the other observes ErrInvalidState. A gateway transport
// failure or timeout leaves the transaction pending for a later retry;
// failed is reserved for an explicit decline.
func (s *Service) Authorize(ctx context.Context, id uuid.UUID, method string, details JSONMap) (*Transaction, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if t.Status != StatusPending {
		return nil, ErrInvalidState
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	result, err := s.gateway.Authorize(gctx, method, details, t.Amount)
	if err != nil {
		// The charge outcome is unknown; the transaction stays pending so a
		// retry or reconciliation job can resolve it.
		log.Error().Err(err).
			Str("transaction_id", id.String()).
			Str("gateway", s.gateway.Name()).
			Msg("gateway call failed, transaction left pending")
		return nil, ErrGatewayUnavailable
	}

	if !result.Approved {
		ok, err := s.repo.TransitionFromPending(ctx, id, StatusFailed, nil)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInvalidState
		}
		monitoring.RecordDeclined()
		log.Info().
			Str("transaction_id", id.String()).
			Str("reason", result.Reason).
			Msg("payment declined")
		t.Status = StatusFailed
		return t, ErrPaymentFailed
	}

	payment := &Payment{
		ID:            uuid.New(),
		TransactionID: t.ID,
		Method:        method,
		Details:       details,
		ProviderRef:   result.ProviderRef,
		Status:        StatusCompleted,
	}

	ok, err := s.repo.TransitionFromPending(ctx, id, StatusCompleted, payment)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race to a concurrent authorize.
		return nil, ErrInvalidState
	}

	t.Status = StatusCompleted
	monitoring.RecordAuthorized(string(t.Source))
	log.Info().
		Str("transaction_id", t.ID.String()).
		Str("payer_id", t.PayerID.String()).
		Str("amount", t.Amount.String()).
		Msg("payment completed")

	// The transaction is committed as completed; side-effect failures must
	// not revert it. They are logged and counted for operational retry.
	if s.coordinator != nil {
		if err := s.coordinator.Run(ctx, t); err != nil {
			log.Error().Err(err).
				Str("transaction_id", t.ID.String()).
				Msg("payment side effects incomplete")
		}
	}

	return t, nil
}

// Refund moves a completed transaction to refunded and revokes any ticket
// tied to it. Already-issued loyalty rewards are not clawed back.
func (s *Service) Refund(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if t.Status != StatusCompleted {
		return nil, ErrInvalidState
	}

	ok, err := s.repo.TransitionCompletedToRefunded(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}
	t.Status = StatusRefunded

	if s.tickets != nil {
		if err := s.tickets.RevokeByTransaction(ctx, id); err != nil {
			monitoring.RecordSideEffectFailure("ticket_revoke")
			log.Error().Err(err).
				Str("transaction_id", id.String()).
				Msg("ticket revocation failed, needs retry")
		}
	}

	log.Info().
		Str("transaction_id", id.String()).
		Str("payer_id", t.PayerID.String()).
		Msg("transaction refunded")
	return t, nil
}

// Get returns a transaction by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// ListByPayer returns a payer's transaction history
func (s *Service) ListByPayer(ctx context.Context, payerID uuid.UUID, limit, offset int) ([]*Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListByPayer(ctx, payerID, limit, offset)
}

// GetPayment returns the payment record for a completed transaction
func (s *Service) GetPayment(ctx context.Context, transactionID uuid.UUID) (*Payment, error) {
	return s.repo.GetPayment(ctx, transactionID)
}
