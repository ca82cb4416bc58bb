package revenue

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fanstage/fanstage-api/internal/middleware"
	"github.com/fanstage/fanstage-api/internal/pkg/response"
)

// Handler handles revenue HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates revenue handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Summary handles GET /artists/{id}/revenue/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	artistID, ok := h.authorizeArtist(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), artistID)
	if err != nil {
		log.Error().Err(err).Str("artist_id", artistID.String()).Msg("Failed to build revenue summary")
		response.InternalError(w)
		return
	}

	response.OK(w, summary)
}

// TopFans handles GET /artists/{id}/revenue/top-fans
func (h *Handler) TopFans(w http.ResponseWriter, r *http.Request) {
	artistID, ok := h.authorizeArtist(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	fans, err := h.service.TopFans(r.Context(), artistID, limit)
	if err != nil {
		log.Error().Err(err).Str("artist_id", artistID.String()).Msg("Failed to rank top fans")
		response.InternalError(w)
		return
	}

	response.OK(w, fans)
}

// authorizeArtist parses the artist ID and checks the caller is that artist
// or an admin. Revenue figures are private to the artist.
func (h *Handler) authorizeArtist(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	artistID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid artist id")
		return uuid.Nil, false
	}

	actorID := middleware.GetUserID(r.Context())
	role := middleware.GetRole(r.Context())

	if role != middleware.RoleAdmin && actorID != artistID {
		response.Forbidden(w, "You cannot view this artist's revenue")
		return uuid.Nil, false
	}

	return artistID, true
}

// Routes returns revenue router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/{id}/revenue/summary", h.Summary)
		r.Get("/{id}/revenue/top-fans", h.TopFans)
	})

	return r
}
