package billing

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/bizbroker/bizbroker-api/internal/pkg/payhook"
	"github.com/bizbroker/bizbroker-api/internal/pkg/response"
)

// maxWebhookBody bounds the raw payload read for signature verification
const maxWebhookBody = 1 << 20

// Handler receives billing-provider webhooks
type Handler struct {
	applier Applier
	secret  string
}

// NewHandler creates billing webhook handler
func NewHandler(applier Applier, secret string) *Handler {
	return &Handler{applier: applier, secret: secret}
}

// Routes returns the webhook routes. No auth middleware: the provider
// authenticates with the payload signature.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/billing", h.Webhook)
	return r
}

// Webhook verifies, parses and applies one provider event. Apply failures
// are logged and still acknowledged with 200; the provider only retries
// transport errors.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "Unreadable body")
		return
	}
	defer r.Body.Close()

	if !payhook.VerifySignature(body, r.Header.Get(payhook.SignatureHeader), h.secret) {
		response.Unauthorized(w, "Invalid signature")
		return
	}

	ev, err := payhook.ParseEvent(body)
	if err != nil {
		response.BadRequest(w, "Malformed payload")
		return
	}

	result, err := h.applier.Apply(r.Context(), ev)
	if err != nil {
		if errors.Is(err, ErrEventRejected) {
			log.Warn().Err(err).Str("event_id", ev.EventID).Str("type", ev.Type).Msg("billing event rejected")
		} else {
			log.Error().Err(err).Str("event_id", ev.EventID).Str("type", ev.Type).Msg("billing event failed")
		}
	} else {
		log.Info().Str("event_id", ev.EventID).Str("type", ev.Type).Str("result", string(result)).Msg("billing event handled")
	}

	response.OK(w, map[string]bool{"received": true})
}
