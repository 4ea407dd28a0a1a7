package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/wahaops/gateway/internal/platform/messagebroker"
)

// EventConsumer consumes raw webhook payloads from NATS and feeds them to
// the WebhookRouter. The HTTP transport acknowledges the upstream caller
// before processing happens here, so nothing in this path can make the
// webhook fail.
type EventConsumer struct {
	natsClient *messagebroker.NatsClient
	router     *WebhookRouter
	logger     *slog.Logger
	sub        *nats.Subscription
}

// NewEventConsumer creates a new EventConsumer.
func NewEventConsumer(natsClient *messagebroker.NatsClient, router *WebhookRouter, logger *slog.Logger) *EventConsumer {
	return &EventConsumer{
		natsClient: natsClient,
		router:     router,
		logger:     logger.With("component", "event_consumer"),
	}
}

// Start subscribes to the given subject with the given queue group.
func (c *EventConsumer) Start(ctx context.Context, subject, queueGroup string) error {
	if c.natsClient == nil {
		return errors.New("NATS client not initialized in EventConsumer")
	}
	c.logger.Info("Starting webhook event consumer", "subject", subject, "queue_group", queueGroup)

	msgHandler := func(msg *nats.Msg) {
		natsWebhookEventsReceivedCounter.WithLabelValues(msg.Subject).Inc()
		c.logger.DebugContext(ctx, "Received NATS webhook event", "subject", msg.Subject, "data_len", len(msg.Data))

		// Each event gets its own bounded context; remote node calls inside
		// the router carry their own per-call timeouts on top.
		eventCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		c.router.HandleEvent(eventCtx, msg.Data)
	}

	sub, err := c.natsClient.Subscribe(ctx, subject, queueGroup, msgHandler)
	if err != nil {
		return err
	}
	c.sub = sub
	return nil
}

// Stop unsubscribes from NATS.
func (c *EventConsumer) Stop() {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			c.logger.Warn("Failed to unsubscribe webhook event consumer", "error", err)
		}
		c.sub = nil
	}
}
