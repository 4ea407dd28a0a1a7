package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
)

// EventPublisher queues a raw webhook payload for asynchronous processing.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// WebhookSubjectRaw is the NATS subject raw WAHA events are published on.
const WebhookSubjectRaw = "waha.events.raw"

// WebhookHandler receives WAHA node callbacks. The acknowledgment to the
// node is unconditional: whatever goes wrong on our side is logged, and the
// node must never retry because of it.
type WebhookHandler struct {
	publisher EventPublisher
	logger    *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(publisher EventPublisher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		publisher: publisher,
		logger:    logger.With("handler", "webhook"),
	}
}

// RegisterRoutes registers the unauthenticated webhook routes. /bot is a
// legacy alias kept for nodes still configured with the old callback URL.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/waha", h.handleWebhook)
	r.Post("/bot", h.handleWebhook)
}

func (h *WebhookHandler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read webhook body", "error", err)
		h.ack(w)
		return
	}
	defer r.Body.Close()

	logger.InfoContext(ctx, "Webhook received", "payload_len", len(body))

	if err := h.publisher.Publish(ctx, WebhookSubjectRaw, body); err != nil {
		// Dropping the event is preferable to making the node retry.
		logger.ErrorContext(ctx, "Failed to queue webhook event", "error", err, "subject", WebhookSubjectRaw)
	}

	h.ack(w)
}

func (h *WebhookHandler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
