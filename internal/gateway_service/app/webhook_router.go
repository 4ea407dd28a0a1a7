package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wahaops/gateway/internal/gateway_service/adapters/wahaclient"
	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

// WebhookRouter classifies inbound WAHA callback events and drives
// read-receipt and echo behavior. Processing failures are logged and
// swallowed: the acknowledgment to the upstream system is unconditional,
// so HandleEvent never returns an error.
type WebhookRouter struct {
	sessionRepo domain.SessionRepository
	nodeRepo    domain.NodeRepository
	nodeClient  wahaclient.NodeClient
	resolver    *ContainerResolver
	dispatcher  *DeliveryDispatcher
	logger      *slog.Logger
}

// NewWebhookRouter creates a new WebhookRouter.
func NewWebhookRouter(
	sessionRepo domain.SessionRepository,
	nodeRepo domain.NodeRepository,
	nodeClient wahaclient.NodeClient,
	resolver *ContainerResolver,
	dispatcher *DeliveryDispatcher,
	logger *slog.Logger,
) *WebhookRouter {
	return &WebhookRouter{
		sessionRepo: sessionRepo,
		nodeRepo:    nodeRepo,
		nodeClient:  nodeClient,
		resolver:    resolver,
		dispatcher:  dispatcher,
		logger:      logger.With("component", "webhook_router"),
	}
}

// HandleEvent processes one raw webhook payload.
func (r *WebhookRouter) HandleEvent(ctx context.Context, payload []byte) {
	event, err := domain.ParseWebhookEvent(payload)
	if err != nil {
		webhookEventsProcessedCounter.WithLabelValues("malformed", "error_parsing").Inc()
		r.logger.ErrorContext(ctx, "Dropping malformed webhook payload", "error", err, "payload_len", len(payload))
		return
	}

	switch event.Kind {
	case domain.EventKindMessage:
		r.handleMessage(ctx, event.Session, event.Message)
	case domain.EventKindSessionStatus:
		webhookEventsProcessedCounter.WithLabelValues(string(event.Kind), "success").Inc()
		r.logger.InfoContext(ctx, "Session status changed", "session", event.Session, "status", event.Status.Status)
	case domain.EventKindMessageAck:
		webhookEventsProcessedCounter.WithLabelValues(string(event.Kind), "success").Inc()
		r.logger.InfoContext(ctx, "Message acknowledgment received",
			"session", event.Session, "message_id", event.Ack.MessageID, "ack_level", event.Ack.AckLevel)
	default:
		webhookEventsProcessedCounter.WithLabelValues(string(domain.EventKindUnknown), "success").Inc()
		r.logger.InfoContext(ctx, "Unhandled webhook event type", "event", event.Raw, "session", event.Session)
	}
}

func (r *WebhookRouter) handleMessage(ctx context.Context, sessionName string, msg *domain.MessageEvent) {
	r.logger.InfoContext(ctx, "Message received",
		"session", sessionName, "from", msg.From, "message_id", msg.MessageID, "body_len", len(msg.Body))

	// Read receipt goes to the node owning the session, not the contact.
	// Best effort: failure is logged and swallowed.
	r.sendSeen(ctx, sessionName, msg.From)

	if msg.Body == "" {
		webhookEventsProcessedCounter.WithLabelValues(string(domain.EventKindMessage), "success").Inc()
		return
	}

	targets, err := r.resolver.Resolve(ctx, msg.From, sessionName)
	if err != nil {
		webhookEventsProcessedCounter.WithLabelValues(string(domain.EventKindMessage), "error_resolve").Inc()
		r.logger.ErrorContext(ctx, "Failed to resolve containers for sender, dropping echo",
			"session", sessionName, "from", msg.From, "error", err)
		return
	}

	for _, target := range targets {
		reply := fmt.Sprintf("[container %d] Echo: %s", target.ContainerNumber, msg.Body)
		results := r.dispatcher.Broadcast(ctx, []ResolvedTarget{target}, sessionName, msg.From, reply)
		for _, res := range results {
			if !res.Success {
				r.logger.ErrorContext(ctx, "Failed to send echo reply",
					"session", sessionName, "from", msg.From, "container", res.ContainerNumber, "error", res.Error)
			}
		}
	}
	webhookEventsProcessedCounter.WithLabelValues(string(domain.EventKindMessage), "success").Inc()
}

func (r *WebhookRouter) sendSeen(ctx context.Context, sessionName, chatID string) {
	sess, err := r.sessionRepo.GetByName(ctx, sessionName)
	if err != nil {
		r.logger.WarnContext(ctx, "Cannot send seen: session unknown", "session", sessionName, "error", err)
		return
	}
	node, err := r.nodeRepo.GetByContainer(ctx, sess.NodeID)
	if err != nil {
		r.logger.WarnContext(ctx, "Cannot send seen: node unknown", "session", sessionName, "node_id", sess.NodeID, "error", err)
		return
	}
	if err := r.nodeClient.SendSeen(ctx, node, sessionName, chatID); err != nil {
		r.logger.WarnContext(ctx, "Failed to send seen", "session", sessionName, "chat_id", chatID, "error", err)
		return
	}
	r.logger.InfoContext(ctx, "Sent seen", "session", sessionName, "chat_id", chatID)
}
