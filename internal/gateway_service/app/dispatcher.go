package app

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/wahaops/gateway/internal/gateway_service/adapters/wahaclient"
)

// DeliveryResult is the outcome of one per-node send within a fan-out.
type DeliveryResult struct {
	ContainerNumber int    `json:"container_number"`
	NodeID          int    `json:"node_id"`
	Success         bool   `json:"success"`
	MessageID       string `json:"message_id,omitempty"`
	Error           string `json:"error,omitempty"`
}

// DeliveryDispatcher fans a message out to every resolved (container, node)
// pair. Each per-node send is an isolated unit with its own timeout: one
// node failing or timing out never suppresses delivery to the others, and
// partial success is a normal, reportable outcome. No retries.
type DeliveryDispatcher struct {
	nodeClient wahaclient.NodeClient
	logger     *slog.Logger
}

// NewDeliveryDispatcher creates a new DeliveryDispatcher.
func NewDeliveryDispatcher(nodeClient wahaclient.NodeClient, logger *slog.Logger) *DeliveryDispatcher {
	return &DeliveryDispatcher{
		nodeClient: nodeClient,
		logger:     logger.With("component", "delivery_dispatcher"),
	}
}

// Broadcast sends text to chatID through every target, one result per
// container, ordered like targets.
func (d *DeliveryDispatcher) Broadcast(ctx context.Context, targets []ResolvedTarget, sessionName, chatID, text string) []DeliveryResult {
	results := make([]DeliveryResult, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target ResolvedTarget) {
			defer wg.Done()
			results[i] = d.sendOne(ctx, target, sessionName, chatID, text)
		}(i, target)
	}
	wg.Wait()

	return results
}

func (d *DeliveryDispatcher) sendOne(ctx context.Context, target ResolvedTarget, sessionName, chatID, text string) DeliveryResult {
	result := DeliveryResult{
		ContainerNumber: target.ContainerNumber,
		NodeID:          target.Node.ID,
	}
	containerLabel := strconv.Itoa(target.ContainerNumber)

	start := time.Now()
	receipt, err := d.nodeClient.SendText(ctx, target.Node, sessionName, chatID, text)
	messageDeliveryDurationHist.WithLabelValues(containerLabel).Observe(time.Since(start).Seconds())
	if err != nil {
		messageDeliveriesCounter.WithLabelValues(containerLabel, "error_node").Inc()
		d.logger.WarnContext(ctx, "Delivery to node failed",
			"container", target.ContainerNumber, "node_id", target.Node.ID, "chat_id", chatID, "error", err)
		result.Error = err.Error()
		return result
	}

	messageDeliveriesCounter.WithLabelValues(containerLabel, "success").Inc()
	result.Success = true
	result.MessageID = receipt.MessageID
	d.logger.InfoContext(ctx, "Delivered message",
		"container", target.ContainerNumber, "node_id", target.Node.ID, "chat_id", chatID, "provider_message_id", receipt.MessageID)
	return result
}
