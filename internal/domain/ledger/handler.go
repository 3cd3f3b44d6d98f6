package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bizbroker/bizbroker-api/internal/middleware"
	"github.com/bizbroker/bizbroker-api/internal/pkg/response"
	"github.com/bizbroker/bizbroker-api/internal/pkg/validator"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Balance returns the caller's current credit balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetUserID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	balance, err := h.svc.GetBalance(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			response.NotFound(w, "account not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"balance": balance})
}

// Entries returns the caller's paginated ledger history
func (h *Handler) Entries(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetUserID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, offset := paginationParams(r.URL.Query())

	entries, err := h.svc.ListEntries(r.Context(), accountID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, entries)
}

type adjustRequest struct {
	AccountID   string `json:"account_id" validate:"required,uuid"`
	Amount      int    `json:"amount" validate:"required"`
	Description string `json:"description" validate:"max=500"`
}

// Adjust applies an admin grant or spend against an arbitrary account
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		response.BadRequest(w, "invalid account_id")
		return
	}

	var entry *Entry
	if req.Amount >= 0 {
		entry, err = h.svc.Award(r.Context(), accountID, req.Amount, KindAdminGrant, AdminAdjustmentSource(), req.Description)
	} else {
		entry, err = h.svc.Spend(r.Context(), accountID, -req.Amount, KindSpend, AdminAdjustmentSource(), req.Description)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must be non-zero")
		case errors.Is(err, ErrInsufficientCredits):
			response.Conflict(w, "insufficient credit balance")
		case errors.Is(err, ErrAccountNotFound):
			response.NotFound(w, "account not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, entry)
}

// Search returns filtered entries (admin use)
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := SearchFilters{}
	if v := strings.TrimSpace(q.Get("account_id")); v != "" {
		filters.AccountID = &v
	}
	if v := strings.TrimSpace(q.Get("entry_kind")); v != "" {
		filters.EntryKind = &v
	}
	if v := strings.TrimSpace(q.Get("source_type")); v != "" {
		filters.SourceType = &v
	}
	if v := strings.TrimSpace(q.Get("source_ref")); v != "" {
		filters.SourceRef = &v
	}
	filters.Limit, filters.Offset = paginationParams(q)

	entries, err := h.svc.SearchEntries(r.Context(), filters)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, entries)
}

func paginationParams(q url.Values) (limit, offset int) {
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/balance", h.Balance)
	r.Get("/entries", h.Entries)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin())
		r.Post("/adjust", h.Adjust)
		r.Get("/search", h.Search)
	})

	return r
}
