package ticket

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fanstage/fanstage-api/internal/middleware"
)

// Catalog is the slice of the catalog the ticket domain needs.
type Catalog interface {
	GetEventInfo(ctx context.Context, eventID uuid.UUID) (*EventInfo, error)
}

// PurchaseInput carries what the payment layer needs to open a ticket purchase.
type PurchaseInput struct {
	PayerID     uuid.UUID
	ArtistID    uuid.UUID
	EventID     uuid.UUID
	Amount      decimal.Decimal
	Description string
}

// Transactions is the payment surface the ticket domain depends on. The
// concrete implementation is wired in at startup to avoid an import cycle
// with the transaction package.
type Transactions interface {
	BeginTicketPurchase(ctx context.Context, in PurchaseInput) (uuid.UUID, error)
	Refund(ctx context.Context, transactionID uuid.UUID) error
}

// Service implements the ticket lifecycle
type Service struct {
	repo         Repository
	catalog      Catalog
	cache        *AccessCache
	transactions Transactions
}

// NewService creates ticket service. The payment dependency is attached
// separately because the two services reference each other.
func NewService(repo Repository, catalog Catalog, cache *AccessCache) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		cache:   cache,
	}
}

// AttachTransactions wires in the payment dependency after construction.
func (s *Service) AttachTransactions(t Transactions) {
	s.transactions = t
}

// Request issues a pending ticket for a paid event and opens the transaction
// that must be authorized before the ticket activates.
func (s *Service) Request(ctx context.Context, eventID, userID uuid.UUID) (*Ticket, error) {
	event, err := s.catalog.GetEventInfo(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if !event.IsPaid {
		return nil, ErrEventNotPaid
	}

	txID, err := s.transactions.BeginTicketPurchase(ctx, PurchaseInput{
		PayerID:     userID,
		ArtistID:    event.ArtistID,
		EventID:     eventID,
		Amount:      event.Price,
		Description: fmt.Sprintf("Ticket for event %s", eventID),
	})
	if err != nil {
		return nil, err
	}

	t := &Ticket{
		ID:            uuid.New(),
		EventID:       eventID,
		UserID:        userID,
		TransactionID: txID,
		Status:        StatusPending,
		Price:         event.Price,
		Currency:      event.Currency,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	log.Info().
		Str("ticket_id", t.ID.String()).
		Str("event_id", eventID.String()).
		Str("transaction_id", txID.String()).
		Msg("ticket requested")

	return t, nil
}

// ActivateByTransaction flips the ticket bought by a transaction to active.
// Called after the payment completes; safe to retry.
func (s *Service) ActivateByTransaction(ctx context.Context, transactionID uuid.UUID) error {
	t, err := s.repo.GetByTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrNotFound
	}

	activated, err := s.repo.ActivateByTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	if !activated {
		// Already cancelled or refunded; activation lost the race.
		return ErrInvalidState
	}

	s.cache.Invalidate(ctx, t.EventID, t.UserID)

	log.Info().
		Str("ticket_id", t.ID.String()).
		Str("transaction_id", transactionID.String()).
		Msg("ticket activated")

	return nil
}

// RevokeByTransaction marks the ticket for a refunded transaction as
// refunded. Missing tickets are a no-op so transaction refunds for other
// sources stay clean.
func (s *Service) RevokeByTransaction(ctx context.Context, transactionID uuid.UUID) error {
	t, err := s.repo.GetByTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	if t == nil {
		return nil
	}

	if _, err := s.repo.RevokeByTransaction(ctx, transactionID); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, t.EventID, t.UserID)
	return nil
}

// Cancel voids a ticket. Allowed for the holder, the event's artist, and
// admins; only pending or active tickets can be cancelled. Cancelling does
// not touch the payment.
func (s *Service) Cancel(ctx context.Context, ticketID, actorID uuid.UUID, role string) (*Ticket, error) {
	t, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}

	if err := s.authorize(ctx, t, actorID, role, true); err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdateStatusFrom(ctx, ticketID, []Status{StatusPending, StatusActive}, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}

	s.cache.Invalidate(ctx, t.EventID, t.UserID)
	t.Status = StatusCancelled

	log.Info().
		Str("ticket_id", ticketID.String()).
		Str("actor_id", actorID.String()).
		Msg("ticket cancelled")

	return t, nil
}

// Refund reverses the payment behind an active ticket. Only the event's
// artist or an admin can do this; the ticket itself is revoked by the
// refund's side effects.
func (s *Service) Refund(ctx context.Context, ticketID, actorID uuid.UUID, role string) (*Ticket, error) {
	t, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}

	if err := s.authorize(ctx, t, actorID, role, false); err != nil {
		return nil, err
	}
	if t.Status != StatusActive {
		return nil, ErrInvalidState
	}

	if err := s.transactions.Refund(ctx, t.TransactionID); err != nil {
		return nil, err
	}

	refreshed, err := s.repo.GetByID(ctx, ticketID)
	if err != nil || refreshed == nil {
		t.Status = StatusRefunded
		return t, nil
	}
	return refreshed, nil
}

// HasValidAccess reports whether a user may enter an event. Free events are
// open to everyone; paid events need an active ticket.
func (s *Service) HasValidAccess(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	event, err := s.catalog.GetEventInfo(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return false, ErrEventNotFound
	}
	if !event.IsPaid {
		return true, nil
	}

	if allowed, found := s.cache.Get(ctx, eventID, userID); found {
		return allowed, nil
	}

	allowed, err := s.repo.HasActiveTicket(ctx, eventID, userID)
	if err != nil {
		return false, err
	}
	s.cache.Set(ctx, eventID, userID, allowed)
	return allowed, nil
}

// Get returns a ticket to its holder, the event's artist, or an admin.
func (s *Service) Get(ctx context.Context, ticketID, actorID uuid.UUID, role string) (*Ticket, error) {
	t, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if err := s.authorize(ctx, t, actorID, role, true); err != nil {
		return nil, err
	}
	return t, nil
}

// ListByUser returns a user's tickets, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// authorize checks whether an actor may operate on a ticket. holderAllowed
// distinguishes operations the fan may perform from artist/admin-only ones.
func (s *Service) authorize(ctx context.Context, t *Ticket, actorID uuid.UUID, role string, holderAllowed bool) error {
	if role == middleware.RoleAdmin {
		return nil
	}
	if holderAllowed && actorID == t.UserID {
		return nil
	}
	if role == middleware.RoleArtist {
		event, err := s.catalog.GetEventInfo(ctx, t.EventID)
		if err != nil {
			return fmt.Errorf("load event: %w", err)
		}
		if event != nil && event.ArtistID == actorID {
			return nil
		}
	}
	return ErrForbidden
}
