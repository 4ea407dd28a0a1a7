package app

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

// ResolvedTarget is one (container number, node) pair owning a contact.
type ResolvedTarget struct {
	ContainerNumber int
	Node            *domain.WahaNode
}

// ContainerResolver decides which container(s) own a contact identifier and
// persists that decision. Persisted assignments win; otherwise the static
// routing table is consulted (phone-number keyed), and when nothing matches
// the deterministic last-digit rule guarantees a single container.
type ContainerResolver struct {
	assignmentRepo domain.AssignmentRepository
	nodeRepo       domain.NodeRepository
	tableProvider  domain.RoutingTableProvider
	normalizer     *IdentifierNormalizer
	logger         *slog.Logger
}

// NewContainerResolver creates a new ContainerResolver.
func NewContainerResolver(
	assignmentRepo domain.AssignmentRepository,
	nodeRepo domain.NodeRepository,
	tableProvider domain.RoutingTableProvider,
	normalizer *IdentifierNormalizer,
	logger *slog.Logger,
) *ContainerResolver {
	return &ContainerResolver{
		assignmentRepo: assignmentRepo,
		nodeRepo:       nodeRepo,
		tableProvider:  tableProvider,
		normalizer:     normalizer,
		logger:         logger.With("component", "container_resolver"),
	}
}

// Resolve returns the full owning set for contactID ordered by container
// number ascending. Callers that need a single target take the first.
// sessionName is forwarded to the one-time linked-id resolution.
//
// Returns domain.ErrNoRoute only when no node can be resolved for any
// container, which requires a broken or empty node catalog.
func (r *ContainerResolver) Resolve(ctx context.Context, contactID, sessionName string) ([]ResolvedTarget, error) {
	existing, err := r.assignmentRepo.ListByContactID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		// Persisted assignments are the authoritative, complete set.
		return r.targetsFromAssignments(ctx, contactID, existing)
	}

	// Normalization happens before the table scan so matching is always
	// phone-number keyed, including the one-time linked-id resolution.
	phone := r.normalizer.Normalize(ctx, contactID, sessionName)

	table := r.tableProvider.Load(ctx)
	containers := table.ContainersFor(phone)
	if len(containers) == 0 {
		containers = []int{fallbackContainer(phone)}
		r.logger.DebugContext(ctx, "No static routing match, using last-digit fallback",
			"contact_id", contactID, "phone", phone, "container", containers[0])
	}

	targets := make([]ResolvedTarget, 0, len(containers))
	assignments := make([]*domain.ContactAssignment, 0, len(containers))
	for _, container := range containers {
		node, err := r.nodeRepo.GetByContainer(ctx, container)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Registry inconsistency: the routing decision names a
				// container with no backing node. Skip it rather than fail
				// the whole resolution.
				r.logger.ErrorContext(ctx, "No node registered for container, skipping",
					"contact_id", contactID, "container", container)
				continue
			}
			return nil, err
		}
		targets = append(targets, ResolvedTarget{ContainerNumber: container, Node: node})
		assignments = append(assignments, domain.NewContactAssignment(contactID, container, node.ID, phone))
	}

	if len(targets) == 0 {
		r.logger.ErrorContext(ctx, "Could not resolve any node for contact", "contact_id", contactID, "containers", containers)
		return nil, domain.ErrNoRoute
	}

	// One resolution pass commits its writes together. A concurrent
	// resolution of the same contact may race; the unique
	// (contact_id, container_number) constraint makes the losing writer's
	// rows redundant instead of corrupting state.
	if err := r.assignmentRepo.CreateBatch(ctx, assignments); err != nil {
		if !errors.Is(err, domain.ErrDuplicateEntry) {
			return nil, err
		}
		r.logger.InfoContext(ctx, "Concurrent resolution already persisted assignment", "contact_id", contactID)
	}

	sortTargets(targets)
	return targets, nil
}

// targetsFromAssignments materializes persisted assignments into targets,
// skipping (with a logged inconsistency) containers whose node vanished.
func (r *ContainerResolver) targetsFromAssignments(ctx context.Context, contactID string, rows []*domain.ContactAssignment) ([]ResolvedTarget, error) {
	targets := make([]ResolvedTarget, 0, len(rows))
	for _, row := range rows {
		node, err := r.nodeRepo.GetByContainer(ctx, row.ContainerNumber)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				r.logger.ErrorContext(ctx, "Persisted assignment references missing node, skipping",
					"contact_id", contactID, "container", row.ContainerNumber, "node_id", row.NodeID)
				continue
			}
			return nil, err
		}
		targets = append(targets, ResolvedTarget{ContainerNumber: row.ContainerNumber, Node: node})
	}
	if len(targets) == 0 {
		return nil, domain.ErrNoRoute
	}
	sortTargets(targets)
	return targets, nil
}

// fallbackContainer derives a container from the normalized matching key's
// final character: digits 0-4 map to container 1, digits 5-9 to container
// 2, and a missing or non-digit character counts as 0. Every contact
// therefore resolves to exactly one container even with no configuration
// at all.
func fallbackContainer(phone string) int {
	digit := 0
	if len(phone) > 0 {
		last := phone[len(phone)-1]
		if last >= '0' && last <= '9' {
			digit = int(last - '0')
		}
	}
	if digit <= 4 {
		return 1
	}
	return 2
}

func sortTargets(targets []ResolvedTarget) {
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].ContainerNumber < targets[j].ContainerNumber
	})
}
