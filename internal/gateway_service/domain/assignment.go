package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContactAssignment is the durable record that a contact identifier is
// served by a given container/node. A contact may hold one row per
// container, but never two rows for the same container: the pair
// (ContactID, ContainerNumber) is unique. Rows are written once and never
// updated or deleted; ResolvedPhone is authoritative after the first write.
type ContactAssignment struct {
	ID              uuid.UUID `json:"id"`
	ContactID       string    `json:"contact_id"`
	ContainerNumber int       `json:"container_number"`
	NodeID          int       `json:"node_id"`
	ResolvedPhone   string    `json:"resolved_phone"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewContactAssignment creates a new ContactAssignment instance.
func NewContactAssignment(contactID string, containerNumber, nodeID int, resolvedPhone string) *ContactAssignment {
	return &ContactAssignment{
		ID:              uuid.New(),
		ContactID:       contactID,
		ContainerNumber: containerNumber,
		NodeID:          nodeID,
		ResolvedPhone:   resolvedPhone,
		CreatedAt:       time.Now().UTC(),
	}
}
