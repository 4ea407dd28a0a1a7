package domain

import (
	"time"

	"github.com/google/uuid"
)

// WaSession is a named WhatsApp account bound to exactly one node. The
// session name is the external identifier; a name can exist at most once.
// Sessions are never reassigned to another node and never deleted.
type WaSession struct {
	ID          uuid.UUID `json:"id"`
	SessionName string    `json:"session_name"`
	NodeID      int       `json:"node_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewWaSession creates a new WaSession instance.
func NewWaSession(sessionName string, nodeID int) *WaSession {
	return &WaSession{
		ID:          uuid.New(),
		SessionName: sessionName,
		NodeID:      nodeID,
		CreatedAt:   time.Now().UTC(),
	}
}
