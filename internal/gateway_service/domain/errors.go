package domain

import "errors"

var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicateEntry indicates a unique constraint violation.
	ErrDuplicateEntry = errors.New("duplicate entry")
	// ErrSessionExists indicates that a session with the requested name already exists.
	ErrSessionExists = errors.New("session already exists")
	// ErrNoNodesAvailable indicates that no node has free session capacity.
	ErrNoNodesAvailable = errors.New("no available WAHA nodes")
	// ErrNoRoute indicates that no node could be resolved for any container
	// of a contact. Reachable only with an empty or misconfigured node catalog.
	ErrNoRoute = errors.New("no route to any node for contact")
	// ErrLinkedIDNotFound indicates the remote node has no phone number
	// mapping for a linked identifier.
	ErrLinkedIDNotFound = errors.New("linked id not found")
)
