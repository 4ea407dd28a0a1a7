package wahaclient

import (
	"context"

	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

// SendReceipt carries the node's acknowledgment of a sendText call.
type SendReceipt struct {
	MessageID string `json:"id"`
}

// NodeClient is the remote capability exposed by every WAHA node. Each call
// requires the node's address and API key and is bounded by an explicit
// timeout (30s for session/send operations, 10s for linked-id resolution).
type NodeClient interface {
	// CreateSession asks the node to start a WhatsApp session.
	CreateSession(ctx context.Context, node *domain.WahaNode, sessionName string) error
	// SendText sends a text message to a chat through the given session.
	SendText(ctx context.Context, node *domain.WahaNode, sessionName, chatID, text string) (*SendReceipt, error)
	// SendSeen sends a read receipt for a chat.
	SendSeen(ctx context.Context, node *domain.WahaNode, sessionName, chatID string) error
	// ResolveLinkedID resolves an opaque linked identifier to a phone
	// number. Returns domain.ErrLinkedIDNotFound when the node has no
	// mapping for it.
	ResolveLinkedID(ctx context.Context, node *domain.WahaNode, sessionName, linkedID string) (string, error)
}
