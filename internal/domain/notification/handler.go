package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bizbroker/bizbroker-api/internal/middleware"
	"github.com/bizbroker/bizbroker-api/internal/pkg/response"
)

// Handler handles notification HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the notification routes
func (h *Handler) Routes(auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth)

	r.Get("/", h.List)
	r.Get("/unread-count", h.UnreadCount)
	r.Post("/{id}/read", h.MarkRead)
	r.Post("/read-all", h.MarkAllRead)

	return r
}

// List returns the account's notifications, newest first
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetUserID(r.Context())

	limit, offset := 20, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	items, err := h.service.List(r.Context(), accountID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, items)
}

// UnreadCount returns the number of unread notifications
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetUserID(r.Context())

	count, err := h.service.UnreadCount(r.Context(), accountID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]int{"unread": count})
}

// MarkRead marks one notification as read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	accountID := middleware.GetUserID(r.Context())
	if err := h.service.MarkRead(r.Context(), id, accountID); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			response.NotFound(w, "Notification not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

// MarkAllRead marks every unread notification as read
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetUserID(r.Context())
	if err := h.service.MarkAllRead(r.Context(), accountID); err != nil {
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}
