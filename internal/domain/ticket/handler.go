package ticket

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

	txdomain "github.com/fanstage/fanstage-api/internal/domain/transaction"
)

// Handler handles ticket HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates ticket handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Request handles POST /events/{id}/tickets
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid event id")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	t, err := h.service.Request(r.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.NotFound(w, "Event not found")
		case errors.Is(err, ErrEventNotPaid):
			response.ValidationError(w, map[string]string{"event_id": "Event does not require a ticket"})
		case errors.Is(err, txdomain.ErrInvalidAmount):
			response.ValidationError(w, map[string]string{"event_id": "Event price is not chargeable"})
		default:
			log.Error().Err(err).Str("event_id", eventID.String()).Msg("Failed to request ticket")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, t)
}

// Access handles GET /events/{id}/access
func (h *Handler) Access(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid event id")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	allowed, err := h.service.HasValidAccess(r.Context(), eventID, userID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			response.NotFound(w, "Event not found")
			return
		}
		log.Error().Err(err).Str("event_id", eventID.String()).Msg("Access check failed")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]bool{"has_access": allowed})
}

// UpdateStatus handles PATCH /tickets/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ticketID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid ticket id")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	actorID := middleware.GetUserID(r.Context())
	role := middleware.GetRole(r.Context())

	var t *Ticket
	switch Status(req.Status) {
	case StatusCancelled:
		t, err = h.service.Cancel(r.Context(), ticketID, actorID, role)
	case StatusRefunded:
		t, err = h.service.Refund(r.Context(), ticketID, actorID, role)
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Ticket not found")
		case errors.Is(err, ErrForbidden):
			response.Forbidden(w, "You cannot modify this ticket")
		case errors.Is(err, ErrInvalidState), errors.Is(err, txdomain.ErrInvalidState):
			response.Conflict(w, "INVALID_STATE", "Ticket cannot change to the requested status")
		default:
			log.Error().Err(err).Str("ticket_id", ticketID.String()).Msg("Failed to update ticket status")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, t)
}

// Get handles GET /tickets/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ticketID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid ticket id")
		return
	}

	actorID := middleware.GetUserID(r.Context())
	role := middleware.GetRole(r.Context())

	t, err := h.service.Get(r.Context(), ticketID, actorID, role)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Ticket not found")
		case errors.Is(err, ErrForbidden):
			response.Forbidden(w, "Not your ticket")
		default:
			log.Error().Err(err).Str("ticket_id", ticketID.String()).Msg("Failed to load ticket")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, t)
}

// ListMy handles GET /tickets
func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	tickets, err := h.service.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list tickets")
		response.InternalError(w)
		return
	}

	response.OK(w, tickets)
}

// Routes returns ticket router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListMy)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}/status", h.UpdateStatus)
	})

	return r
}

// EventRoutes returns the ticket endpoints that live under /events
func (h *Handler) EventRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/{id}/tickets", h.Request)
		r.Get("/{id}/access", h.Access)
	})

	return r
}
