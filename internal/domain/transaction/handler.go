package transaction

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fanstage/fanstage-api/internal/middleware"
	"github.com/fanstage/fanstage-api/internal/pkg/response"
	"github.com/fanstage/fanstage-api/internal/pkg/validator"
)

// Handler handles transaction HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates transaction handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /transactions
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	payerID := middleware.GetUserID(r.Context())
	if payerID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	t, err := h.service.Create(r.Context(), CreateInput{
		Amount:      req.Amount,
		PayerID:     payerID,
		ArtistID:    req.ArtistID,
		Description: req.Description,
		Source:      Source(req.Source),
		SourceID:    req.SourceID,
		Metadata:    req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.ValidationError(w, map[string]string{"amount": "Amount must be positive"})
		case errors.Is(err, ErrEmptyDescription):
			response.ValidationError(w, map[string]string{"description": "This field is required"})
		case errors.Is(err, ErrInvalidSource):
			response.ValidationError(w, map[string]string{"source": "Unknown revenue source"})
		case errors.Is(err, ErrArtistNotFound):
			response.NotFound(w, "Artist not found")
		case errors.Is(err, ErrSourceItemNotFound):
			response.NotFound(w, "Source item not found")
		default:
			log.Error().Err(err).Msg("Failed to create transaction")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, t)
}

// Authorize handles POST /transactions/{id}/authorize
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid transaction id")
		return
	}

	var req AuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	t, err := h.service.Authorize(r.Context(), id, req.Method, req.Details)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Transaction not found")
		case errors.Is(err, ErrInvalidState):
			// Duplicate submission: the transaction already reached a
			// terminal state, so the client should treat it as handled.
			response.Conflict(w, "ALREADY_PROCESSED", "Transaction is not pending")
		case errors.Is(err, ErrPaymentFailed):
			response.PaymentRequired(w, "Payment could not be completed, try again")
		case errors.Is(err, ErrGatewayUnavailable):
			response.BadGateway(w, "Payment gateway unavailable, transaction still pending")
		default:
			log.Error().Err(err).Str("transaction_id", id.String()).Msg("Failed to authorize payment")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, t)
}

// Refund handles POST /transactions/{id}/refund
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid transaction id")
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Transaction not found")
			return
		}
		log.Error().Err(err).Msg("Failed to load transaction")
		response.InternalError(w)
		return
	}

	// Only the transaction's artist or an admin may refund.
	actorID := middleware.GetUserID(r.Context())
	role := middleware.GetRole(r.Context())
	if role != middleware.RoleAdmin && !(t.ArtistID.Valid && t.ArtistID.UUID == actorID) {
		response.Forbidden(w, "Only the artist or an admin can refund this transaction")
		return
	}

	refunded, err := h.service.Refund(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Transaction not found")
		case errors.Is(err, ErrInvalidState):
			response.Conflict(w, "INVALID_STATE", "Only completed transactions can be refunded")
		default:
			log.Error().Err(err).Str("transaction_id", id.String()).Msg("Failed to refund transaction")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, refunded)
}

// Get handles GET /transactions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid transaction id")
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Transaction not found")
			return
		}
		log.Error().Err(err).Msg("Failed to load transaction")
		response.InternalError(w)
		return
	}

	// Payers see their own transactions; artists see their revenue rows.
	actorID := middleware.GetUserID(r.Context())
	role := middleware.GetRole(r.Context())
	if role != middleware.RoleAdmin && t.PayerID != actorID && !(t.ArtistID.Valid && t.ArtistID.UUID == actorID) {
		response.Forbidden(w, "Not your transaction")
		return
	}

	response.OK(w, t)
}

// ListMy handles GET /transactions
func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	payerID := middleware.GetUserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	transactions, err := h.service.ListByPayer(r.Context(), payerID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list transactions")
		response.InternalError(w)
		return
	}

	response.OK(w, transactions)
}

// Routes returns transaction router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/", h.ListMy)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/authorize", h.Authorize)
		r.Post("/{id}/refund", h.Refund)
	})

	return r
}
