package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

// GatewayService is the application facade over session allocation,
// container resolution and fan-out delivery.
type GatewayService struct {
	sessionRepo domain.SessionRepository
	allocator   *SessionAllocator
	resolver    *ContainerResolver
	dispatcher  *DeliveryDispatcher
	logger      *slog.Logger
}

// NewGatewayService creates a new GatewayService.
func NewGatewayService(
	sessionRepo domain.SessionRepository,
	allocator *SessionAllocator,
	resolver *ContainerResolver,
	dispatcher *DeliveryDispatcher,
	logger *slog.Logger,
) *GatewayService {
	return &GatewayService{
		sessionRepo: sessionRepo,
		allocator:   allocator,
		resolver:    resolver,
		dispatcher:  dispatcher,
		logger:      logger.With("service", "gateway_app"),
	}
}

// CreateSession allocates the named session onto a node. A containerHint of
// zero lets the configured allocation policy pick.
func (s *GatewayService) CreateSession(ctx context.Context, sessionName string, containerHint int) (*SessionPlacement, error) {
	return s.allocator.CreateSession(ctx, sessionName, containerHint)
}

// SendMessage resolves the owning container set for contactID and delivers
// text through every owning node using the named session. The session must
// already exist; its label is the WhatsApp account the nodes send from.
func (s *GatewayService) SendMessage(ctx context.Context, contactID, text, sessionName string) ([]DeliveryResult, error) {
	if _, err := s.sessionRepo.GetByName(ctx, sessionName); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no session found for %q, create session first: %w", sessionName, domain.ErrNotFound)
		}
		return nil, err
	}

	targets, err := s.resolver.Resolve(ctx, contactID, sessionName)
	if err != nil {
		return nil, err
	}

	results := s.dispatcher.Broadcast(ctx, targets, sessionName, contactID, text)
	return results, nil
}
