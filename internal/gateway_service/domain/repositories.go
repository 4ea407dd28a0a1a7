package domain

import "context"

// NodeRepository manages the node catalog. Node ids are container numbers
// by the registry load-time convention.
type NodeRepository interface {
	// EnsureProvisioned seeds the catalog from configuration if it is empty.
	EnsureProvisioned(ctx context.Context, nodes []*WahaNode) error
	// List returns all nodes ordered by id.
	List(ctx context.Context) ([]*WahaNode, error)
	// GetByContainer returns the node whose identity matches the container
	// number. Returns ErrNotFound when no such node exists.
	GetByContainer(ctx context.Context, containerNumber int) (*WahaNode, error)
	// PickLeastLoaded returns the node with the lowest active session count
	// among nodes below their soft limit, ties broken by id. Returns
	// ErrNotFound when no node qualifies.
	PickLeastLoaded(ctx context.Context) (*WahaNode, error)
	// IncrementActiveSessions bumps the load hint for a node.
	IncrementActiveSessions(ctx context.Context, nodeID int) error
}

// SessionRepository manages WhatsApp session records.
type SessionRepository interface {
	// GetByName returns the session with the given name, or ErrNotFound.
	GetByName(ctx context.Context, sessionName string) (*WaSession, error)
	// Create inserts a new session. Returns ErrDuplicateEntry when the
	// session name is already taken.
	Create(ctx context.Context, session *WaSession) error
	// Count returns the total number of sessions.
	Count(ctx context.Context) (int, error)
}

// AssignmentRepository manages contact-to-container assignment records.
// The Container Assignment Resolver is the only writer.
type AssignmentRepository interface {
	// ListByContactID returns all assignments for a contact ordered by
	// container number ascending. An empty slice is not an error.
	ListByContactID(ctx context.Context, contactID string) ([]*ContactAssignment, error)
	// FindResolvedPhone returns the resolved phone recorded for the contact,
	// or ErrNotFound when the contact has no assignment yet.
	FindResolvedPhone(ctx context.Context, contactID string) (string, error)
	// CreateBatch inserts the given assignments in one transaction. Rows
	// colliding on (contact_id, container_number) are silently skipped so a
	// concurrent resolution of the same contact cannot corrupt state.
	CreateBatch(ctx context.Context, assignments []*ContactAssignment) error
}
