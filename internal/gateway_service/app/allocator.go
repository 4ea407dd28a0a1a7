package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wahaops/gateway/internal/gateway_service/adapters/wahaclient"
	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

// Allocation policies for brand-new sessions.
const (
	PolicyLoad       = "load"
	PolicyRoundRobin = "roundrobin"
)

// SessionPlacement reports where a freshly created session landed.
type SessionPlacement struct {
	NodeURL         string `json:"node_url"`
	ContainerNumber int    `json:"container_number"`
}

// SessionAllocator places brand-new outbound sessions on nodes, either by
// load or by round-robin over container numbers. It does not consult the
// container resolver: allocation happens before a session is tied to any
// contact.
type SessionAllocator struct {
	sessionRepo domain.SessionRepository
	nodeRepo    domain.NodeRepository
	nodeClient  wahaclient.NodeClient
	policy      string
	logger      *slog.Logger
}

// NewSessionAllocator creates a new SessionAllocator. policy must be
// PolicyLoad or PolicyRoundRobin.
func NewSessionAllocator(
	sessionRepo domain.SessionRepository,
	nodeRepo domain.NodeRepository,
	nodeClient wahaclient.NodeClient,
	policy string,
	logger *slog.Logger,
) *SessionAllocator {
	return &SessionAllocator{
		sessionRepo: sessionRepo,
		nodeRepo:    nodeRepo,
		nodeClient:  nodeClient,
		policy:      policy,
		logger:      logger.With("component", "session_allocator"),
	}
}

// CreateSession creates the named session on a chosen node. containerHint,
// when non-zero, pins the session to that container regardless of policy.
//
// The remote createSession call runs first; the local session row and the
// node's load counter are written only after it succeeds, so a failed
// remote call leaves no dangling state.
func (a *SessionAllocator) CreateSession(ctx context.Context, sessionName string, containerHint int) (*SessionPlacement, error) {
	if _, err := a.sessionRepo.GetByName(ctx, sessionName); err == nil {
		sessionCreationsCounter.WithLabelValues("error_exists").Inc()
		return nil, domain.ErrSessionExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	node, err := a.pickNode(ctx, containerHint)
	if err != nil {
		if errors.Is(err, domain.ErrNoNodesAvailable) {
			sessionCreationsCounter.WithLabelValues("error_no_nodes").Inc()
		}
		return nil, err
	}

	if err := a.nodeClient.CreateSession(ctx, node, sessionName); err != nil {
		sessionCreationsCounter.WithLabelValues("error_node").Inc()
		a.logger.ErrorContext(ctx, "Remote session creation failed", "session", sessionName, "node_id", node.ID, "error", err)
		return nil, fmt.Errorf("remote session creation failed: %w", err)
	}

	if err := a.sessionRepo.Create(ctx, domain.NewWaSession(sessionName, node.ID)); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			// A concurrent request created the same session name between our
			// existence check and the insert.
			sessionCreationsCounter.WithLabelValues("error_exists").Inc()
			return nil, domain.ErrSessionExists
		}
		return nil, err
	}

	if err := a.nodeRepo.IncrementActiveSessions(ctx, node.ID); err != nil {
		// The counter is a load hint, not an admission limit; losing one
		// increment must not fail the already-created session.
		a.logger.WarnContext(ctx, "Failed to increment node session counter", "node_id", node.ID, "error", err)
	}

	sessionCreationsCounter.WithLabelValues("success").Inc()
	a.logger.InfoContext(ctx, "Session created", "session", sessionName, "node_id", node.ID, "node_url", node.URL)
	return &SessionPlacement{NodeURL: node.URL, ContainerNumber: node.ContainerNumber()}, nil
}

func (a *SessionAllocator) pickNode(ctx context.Context, containerHint int) (*domain.WahaNode, error) {
	if containerHint > 0 {
		node, err := a.nodeRepo.GetByContainer(ctx, containerHint)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNoNodesAvailable
			}
			return nil, err
		}
		return node, nil
	}

	switch a.policy {
	case PolicyRoundRobin:
		return a.pickRoundRobin(ctx)
	default:
		return a.pickLeastLoaded(ctx)
	}
}

// pickLeastLoaded selects the node with the fewest active sessions among
// those below their soft limit, ties broken by registry order.
func (a *SessionAllocator) pickLeastLoaded(ctx context.Context) (*domain.WahaNode, error) {
	node, err := a.nodeRepo.PickLeastLoaded(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoNodesAvailable
		}
		return nil, err
	}
	return node, nil
}

// pickRoundRobin selects container (sessionCount mod nodeCount) + 1.
// Deterministic and stateless beyond the session count.
func (a *SessionAllocator) pickRoundRobin(ctx context.Context) (*domain.WahaNode, error) {
	nodes, err := a.nodeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, domain.ErrNoNodesAvailable
	}

	count, err := a.sessionRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	container := (count % len(nodes)) + 1
	node, err := a.nodeRepo.GetByContainer(ctx, container)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoNodesAvailable
		}
		return nil, err
	}
	return node, nil
}
