package reward

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fanstage/fanstage-api/internal/middleware"
	"github.com/fanstage/fanstage-api/internal/pkg/response"
)

// Handler handles loyalty reward HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates reward handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Balance handles GET /rewards/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load reward balance")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]int64{"balance": balance})
}

// History handles GET /rewards/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.service.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list reward history")
		response.InternalError(w)
		return
	}

	response.OK(w, entries)
}

// Routes returns reward router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/balance", h.Balance)
		r.Get("/history", h.History)
	})

	return r
}
