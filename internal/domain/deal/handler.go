package deal

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bizbroker/bizbroker-api/internal/middleware"
	"github.com/bizbroker/bizbroker-api/internal/pkg/response"
	"github.com/bizbroker/bizbroker-api/internal/pkg/validator"
)

// Handler handles deal HTTP requests
type Handler struct {
	service Service
}

// NewHandler creates deal handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the deal routes. All routes require authentication.
func (h *Handler) Routes(auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth)

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/move", h.Move)
	r.Post("/{id}/release", h.Release)
	r.Post("/{id}/abandon", h.Abandon)
	r.Get("/{id}/history", h.History)

	return r
}

// Create opens a deal at the interest stage for the authenticated buyer
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDealRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		response.BadRequest(w, "Invalid listing ID")
		return
	}

	buyerID := middleware.GetUserID(r.Context())
	d, err := h.service.CreateInterest(r.Context(), buyerID, listingID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, toDealResponse(d, time.Now().UTC()))
}

// List returns the authenticated buyer's deals
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	buyerID := middleware.GetUserID(r.Context())

	deals, err := h.service.ListByBuyer(r.Context(), buyerID, limit, offset)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.OK(w, toDealResponses(deals, time.Now().UTC()))
}

// Get returns one deal. Visible to its buyer, its seller, and admins.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadVisible(w, r)
	if !ok {
		return
	}
	response.OK(w, toDealResponse(d, time.Now().UTC()))
}

// Move advances the deal one or more stages forward
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	var req moveDealRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	d, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	target, err := ParseStage(req.Stage)
	if err != nil {
		response.BadRequest(w, "Unknown stage")
		return
	}

	moved, err := h.service.Move(r.Context(), d.ID, target, actor(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.OK(w, toDealResponse(moved, time.Now().UTC()))
}

// Release closes the deal and reports the credits awarded
func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	var req releaseDealRequest
	if r.ContentLength > 0 {
		if err := response.DecodeJSON(r.Body, &req); err != nil {
			response.BadRequest(w, "Invalid request body")
			return
		}
		if errs := validator.Validate(req); errs != nil {
			response.ValidationError(w, errs)
			return
		}
	}

	d, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	released, credits, err := h.service.Release(r.Context(), d.ID, req.Reason, actor(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.OK(w, releaseResponse{
		Deal:           toDealResponse(released, time.Now().UTC()),
		CreditsAwarded: credits,
	})
}

// Abandon closes the deal without any award
func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	abandoned, err := h.service.Abandon(r.Context(), d.ID, actor(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.OK(w, toDealResponse(abandoned, time.Now().UTC()))
}

// History returns the append-only stage transition log
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadVisible(w, r)
	if !ok {
		return
	}

	events, err := h.service.History(r.Context(), d.ID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.OK(w, events)
}

// loadOwned resolves the deal and requires the caller to be its buyer or
// an admin.
func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request) (*Deal, bool) {
	d, ok := h.load(w, r)
	if !ok {
		return nil, false
	}

	userID := middleware.GetUserID(r.Context())
	if d.BuyerID != userID && middleware.GetRole(r.Context()) != "admin" {
		response.Forbidden(w, "Not your deal")
		return nil, false
	}
	return d, true
}

// loadVisible resolves the deal for read access: buyer, seller, or admin
func (h *Handler) loadVisible(w http.ResponseWriter, r *http.Request) (*Deal, bool) {
	d, ok := h.load(w, r)
	if !ok {
		return nil, false
	}

	userID := middleware.GetUserID(r.Context())
	if d.BuyerID != userID && d.SellerID != userID && middleware.GetRole(r.Context()) != "admin" {
		response.Forbidden(w, "Not your deal")
		return nil, false
	}
	return d, true
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*Deal, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid deal ID")
		return nil, false
	}

	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return nil, false
	}
	return d, true
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDealNotFound):
		response.NotFound(w, "Deal not found")
	case errors.Is(err, ErrListingNotFound):
		response.NotFound(w, "Listing not found")
	case errors.Is(err, ErrDealExists):
		response.Conflict(w, "An open deal already exists for this listing")
	case errors.Is(err, ErrUnknownStage):
		response.BadRequest(w, "Unknown stage")
	case errors.Is(err, ErrAbsorbingTarget):
		response.BadRequest(w, "Use release or abandon to close a deal")
	case errors.Is(err, ErrBackwardMove):
		response.Conflict(w, "Stage moves are forward-only")
	case errors.Is(err, ErrStaleStage):
		response.Conflict(w, "Deal changed concurrently, retry")
	case errors.Is(err, ErrAlreadyReleased):
		response.Conflict(w, "Deal already released")
	case errors.Is(err, ErrTerminalDeal):
		response.Conflict(w, "Deal is already closed")
	default:
		response.InternalError(w)
	}
}

func actor(r *http.Request) string {
	return middleware.GetUserID(r.Context()).String()
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
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
	return limit, offset
}
