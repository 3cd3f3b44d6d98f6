package subscription

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizbroker/bizbroker-api/internal/middleware"
	"github.com/bizbroker/bizbroker-api/internal/pkg/response"
)

// Handler handles subscription HTTP requests
type Handler struct {
	service Service
}

// NewHandler creates subscription handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the subscription routes
func (h *Handler) Routes(auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth)
	r.Get("/me", h.GetMine)
	return r
}

// GetMine returns the authenticated account's subscription
func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetUserID(r.Context())

	sub, err := h.service.GetMine(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			response.NotFound(w, "No subscription")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, sub)
}
