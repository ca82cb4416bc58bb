package ticket_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fanstage/fanstage-api/internal/domain/ticket"
	"github.com/fanstage/fanstage-api/internal/middleware"
)

type fakeTicketRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*ticket.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byID: make(map[uuid.UUID]*ticket.Ticket)}
}

func (r *fakeTicketRepo) Create(ctx context.Context, t *ticket.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.byID[t.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTicketRepo) GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*ticket.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byID {
		if t.TransactionID == transactionID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTicketRepo) ActivateByTransaction(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byID {
		if t.TransactionID == transactionID && (t.Status == ticket.StatusPending || t.Status == ticket.StatusActive) {
			t.Status = ticket.StatusActive
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) RevokeByTransaction(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byID {
		if t.TransactionID == transactionID && (t.Status == ticket.StatusPending || t.Status == ticket.StatusActive) {
			t.Status = ticket.StatusRefunded
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from []ticket.Status, to ticket.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if t.Status == s {
			t.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) HasActiveTicket(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byID {
		if t.EventID == eventID && t.UserID == userID && t.Status == ticket.StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*ticket.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ticket.Ticket, 0)
	for _, t := range r.byID {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeEventCatalog struct {
	events map[uuid.UUID]*ticket.EventInfo
}

func (c *fakeEventCatalog) GetEventInfo(ctx context.Context, eventID uuid.UUID) (*ticket.EventInfo, error) {
	return c.events[eventID], nil
}

// fakeTransactions mimics the real wiring: a refund revokes the ticket
// through the service, the same way the transaction engine does.
type fakeTransactions struct {
	svc      *ticket.Service
	began    []ticket.PurchaseInput
	refunded []uuid.UUID
}

func (f *fakeTransactions) BeginTicketPurchase(ctx context.Context, in ticket.PurchaseInput) (uuid.UUID, error) {
	f.began = append(f.began, in)
	return uuid.New(), nil
}

func (f *fakeTransactions) Refund(ctx context.Context, transactionID uuid.UUID) error {
	f.refunded = append(f.refunded, transactionID)
	return f.svc.RevokeByTransaction(ctx, transactionID)
}

type ticketEnv struct {
	repo    *fakeTicketRepo
	catalog *fakeEventCatalog
	txns    *fakeTransactions
	service *ticket.Service

	artistID    uuid.UUID
	paidEvent   uuid.UUID
	freeEvent   uuid.UUID
}

func newTicketEnv() *ticketEnv {
	env := &ticketEnv{
		repo:      newFakeTicketRepo(),
		artistID:  uuid.New(),
		paidEvent: uuid.New(),
		freeEvent: uuid.New(),
	}
	env.catalog = &fakeEventCatalog{events: map[uuid.UUID]*ticket.EventInfo{
		env.paidEvent: {ID: env.paidEvent, ArtistID: env.artistID, IsPaid: true, Price: decimal.RequireFromString("25.00"), Currency: "USD"},
		env.freeEvent: {ID: env.freeEvent, ArtistID: env.artistID, IsPaid: false},
	}}
	env.service = ticket.NewService(env.repo, env.catalog, ticket.NewAccessCache(nil, 0))
	env.txns = &fakeTransactions{svc: env.service}
	env.service.AttachTransactions(env.txns)
	return env
}

func TestRequestTicket(t *testing.T) {
	env := newTicketEnv()
	fanID := uuid.New()

	if _, err := env.service.Request(context.Background(), uuid.New(), fanID); !errors.Is(err, ticket.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
	if _, err := env.service.Request(context.Background(), env.freeEvent, fanID); !errors.Is(err, ticket.ErrEventNotPaid) {
		t.Fatalf("expected ErrEventNotPaid, got %v", err)
	}

	tk, err := env.service.Request(context.Background(), env.paidEvent, fanID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if tk.Status != ticket.StatusPending {
		t.Fatalf("expected pending ticket, got %s", tk.Status)
	}
	if !tk.Price.Equal(decimal.RequireFromString("25.00")) || tk.Currency != "USD" {
		t.Fatalf("expected event price copied to ticket, got %s %s", tk.Price, tk.Currency)
	}
	if len(env.txns.began) != 1 {
		t.Fatalf("expected 1 purchase begun, got %d", len(env.txns.began))
	}
	if !env.txns.began[0].Amount.Equal(tk.Price) {
		t.Fatalf("purchase amount %s does not match ticket price %s", env.txns.began[0].Amount, tk.Price)
	}
}

func TestActivateByTransaction(t *testing.T) {
	env := newTicketEnv()
	fanID := uuid.New()

	if err := env.service.ActivateByTransaction(context.Background(), uuid.New()); !errors.Is(err, ticket.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown transaction, got %v", err)
	}

	tk, err := env.service.Request(context.Background(), env.paidEvent, fanID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if err := env.service.ActivateByTransaction(context.Background(), tk.TransactionID); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	// Retried activation is a no-op.
	if err := env.service.ActivateByTransaction(context.Background(), tk.TransactionID); err != nil {
		t.Fatalf("re-activate failed: %v", err)
	}

	got, _ := env.repo.GetByID(context.Background(), tk.ID)
	if got.Status != ticket.StatusActive {
		t.Fatalf("expected active, got %s", got.Status)
	}

	// A cancelled ticket never re-activates.
	if _, err := env.service.Cancel(context.Background(), tk.ID, fanID, middleware.RoleFan); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := env.service.ActivateByTransaction(context.Background(), tk.TransactionID); !errors.Is(err, ticket.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState activating cancelled ticket, got %v", err)
	}
}

func TestCancelPermissions(t *testing.T) {
	env := newTicketEnv()
	fanID := uuid.New()

	tk, err := env.service.Request(context.Background(), env.paidEvent, fanID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if _, err := env.service.Cancel(context.Background(), tk.ID, uuid.New(), middleware.RoleFan); !errors.Is(err, ticket.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for stranger, got %v", err)
	}
	if _, err := env.service.Cancel(context.Background(), tk.ID, uuid.New(), middleware.RoleArtist); !errors.Is(err, ticket.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unrelated artist, got %v", err)
	}

	got, err := env.service.Cancel(context.Background(), tk.ID, env.artistID, middleware.RoleArtist)
	if err != nil {
		t.Fatalf("event artist cancel failed: %v", err)
	}
	if got.Status != ticket.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}

	// Terminal states stay terminal.
	if _, err := env.service.Cancel(context.Background(), tk.ID, fanID, middleware.RoleFan); !errors.Is(err, ticket.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState cancelling twice, got %v", err)
	}
}

func TestRefundTicket(t *testing.T) {
	env := newTicketEnv()
	fanID := uuid.New()

	tk, err := env.service.Request(context.Background(), env.paidEvent, fanID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// Refund is artist/admin-only, and only for active tickets.
	if _, err := env.service.Refund(context.Background(), tk.ID, fanID, middleware.RoleFan); !errors.Is(err, ticket.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for holder refund, got %v", err)
	}
	if _, err := env.service.Refund(context.Background(), tk.ID, env.artistID, middleware.RoleArtist); !errors.Is(err, ticket.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState refunding pending ticket, got %v", err)
	}

	if err := env.service.ActivateByTransaction(context.Background(), tk.TransactionID); err != nil {
		t.Fatalf("activate failed: %v", err)
	}

	got, err := env.service.Refund(context.Background(), tk.ID, env.artistID, middleware.RoleArtist)
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if got.Status != ticket.StatusRefunded {
		t.Fatalf("expected refunded, got %s", got.Status)
	}
	if len(env.txns.refunded) != 1 || env.txns.refunded[0] != tk.TransactionID {
		t.Fatalf("expected payment refund for %s, got %v", tk.TransactionID, env.txns.refunded)
	}
}

func TestRevokeUnknownTransactionIsNoop(t *testing.T) {
	env := newTicketEnv()
	if err := env.service.RevokeByTransaction(context.Background(), uuid.New()); err != nil {
		t.Fatalf("expected nil for transaction without ticket, got %v", err)
	}
}

func TestHasValidAccess(t *testing.T) {
	env := newTicketEnv()
	fanID := uuid.New()

	if _, err := env.service.HasValidAccess(context.Background(), uuid.New(), fanID); !errors.Is(err, ticket.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}

	// Free events are open to everyone.
	allowed, err := env.service.HasValidAccess(context.Background(), env.freeEvent, fanID)
	if err != nil || !allowed {
		t.Fatalf("expected access to free event, got %v (err %v)", allowed, err)
	}

	// Paid events need an active ticket.
	allowed, err = env.service.HasValidAccess(context.Background(), env.paidEvent, fanID)
	if err != nil || allowed {
		t.Fatalf("expected no access without ticket, got %v (err %v)", allowed, err)
	}

	tk, err := env.service.Request(context.Background(), env.paidEvent, fanID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	// A pending ticket grants nothing yet.
	allowed, _ = env.service.HasValidAccess(context.Background(), env.paidEvent, fanID)
	if allowed {
		t.Fatal("pending ticket must not grant access")
	}

	if err := env.service.ActivateByTransaction(context.Background(), tk.TransactionID); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	allowed, _ = env.service.HasValidAccess(context.Background(), env.paidEvent, fanID)
	if !allowed {
		t.Fatal("active ticket must grant access")
	}

	if err := env.service.RevokeByTransaction(context.Background(), tk.TransactionID); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	allowed, _ = env.service.HasValidAccess(context.Background(), env.paidEvent, fanID)
	if allowed {
		t.Fatal("revoked ticket must not grant access")
	}
}
