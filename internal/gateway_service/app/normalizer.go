package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/wahaops/gateway/internal/gateway_service/adapters/wahaclient"
	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

const (
	phoneSuffix    = "@c.us"
	linkedIDSuffix = "@lid"
)

// IdentifierNormalizer turns a raw contact identifier into a best-effort
// phone number for routing-table matching. It never fails: the worst case
// is returning the raw identifier unchanged.
type IdentifierNormalizer struct {
	assignmentRepo domain.AssignmentRepository
	nodeRepo       domain.NodeRepository
	nodeClient     wahaclient.NodeClient
	logger         *slog.Logger
}

// NewIdentifierNormalizer creates a new IdentifierNormalizer.
func NewIdentifierNormalizer(
	assignmentRepo domain.AssignmentRepository,
	nodeRepo domain.NodeRepository,
	nodeClient wahaclient.NodeClient,
	logger *slog.Logger,
) *IdentifierNormalizer {
	return &IdentifierNormalizer{
		assignmentRepo: assignmentRepo,
		nodeRepo:       nodeRepo,
		nodeClient:     nodeClient,
		logger:         logger.With("component", "identifier_normalizer"),
	}
}

// Normalize resolves contactID to a phone number string.
//
//   - "<digits>@c.us" strips the suffix; no remote call.
//   - "<id>@lid" returns the phone memoized on an earlier assignment when
//     one exists; otherwise it asks a node to resolve the linked id once.
//     Resolution failure falls back to the raw identifier so routing can
//     proceed (possibly via the last-digit rule) instead of blocking.
//   - anything else is returned unchanged.
//
// sessionName is the WhatsApp session used for the remote lookup.
func (n *IdentifierNormalizer) Normalize(ctx context.Context, contactID, sessionName string) string {
	if strings.HasSuffix(contactID, phoneSuffix) {
		return strings.TrimSuffix(contactID, phoneSuffix)
	}
	if strings.HasSuffix(contactID, linkedIDSuffix) {
		return n.resolveLinkedID(ctx, contactID, sessionName)
	}
	return contactID
}

func (n *IdentifierNormalizer) resolveLinkedID(ctx context.Context, contactID, sessionName string) string {
	// Resolution is memoized permanently: a previously recorded phone is
	// authoritative and must not trigger a second remote call.
	phone, err := n.assignmentRepo.FindResolvedPhone(ctx, contactID)
	if err == nil && phone != "" {
		n.logger.DebugContext(ctx, "Linked id resolved from stored assignment", "contact_id", contactID, "phone", phone)
		return phone
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		n.logger.WarnContext(ctx, "Failed to query stored resolved phone, falling back to remote lookup", "contact_id", contactID, "error", err)
	}

	node, err := n.pickLookupNode(ctx)
	if err != nil {
		n.logger.WarnContext(ctx, "No node available for linked id resolution, using raw identifier", "contact_id", contactID, "error", err)
		return contactID
	}

	resolved, err := n.nodeClient.ResolveLinkedID(ctx, node, sessionName, contactID)
	if err != nil {
		if errors.Is(err, domain.ErrLinkedIDNotFound) {
			n.logger.InfoContext(ctx, "Node has no phone mapping for linked id, using raw identifier", "contact_id", contactID, "node_id", node.ID)
		} else {
			n.logger.WarnContext(ctx, "Linked id resolution failed, using raw identifier", "contact_id", contactID, "node_id", node.ID, "error", err)
		}
		return contactID
	}

	n.logger.InfoContext(ctx, "Linked id resolved remotely", "contact_id", contactID, "phone", resolved, "node_id", node.ID)
	return resolved
}

// pickLookupNode chooses a node for the remote lookup: the first
// provisioned node is fine since every node shares the directory.
func (n *IdentifierNormalizer) pickLookupNode(ctx context.Context) (*domain.WahaNode, error) {
	nodes, err := n.nodeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, domain.ErrNoNodesAvailable
	}
	return nodes[0], nil
}
