package app

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wahaops/gateway/internal/gateway_service/adapters/wahaclient"
	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

// MockNodeRepository is a mock implementation of domain.NodeRepository.
type MockNodeRepository struct {
	mock.Mock
}

func (m *MockNodeRepository) EnsureProvisioned(ctx context.Context, nodes []*domain.WahaNode) error {
	args := m.Called(ctx, nodes)
	return args.Error(0)
}

func (m *MockNodeRepository) List(ctx context.Context) ([]*domain.WahaNode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.WahaNode), args.Error(1)
}

func (m *MockNodeRepository) GetByContainer(ctx context.Context, containerNumber int) (*domain.WahaNode, error) {
	args := m.Called(ctx, containerNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WahaNode), args.Error(1)
}

func (m *MockNodeRepository) PickLeastLoaded(ctx context.Context) (*domain.WahaNode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WahaNode), args.Error(1)
}

func (m *MockNodeRepository) IncrementActiveSessions(ctx context.Context, nodeID int) error {
	args := m.Called(ctx, nodeID)
	return args.Error(0)
}

// MockSessionRepository is a mock implementation of domain.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) GetByName(ctx context.Context, sessionName string) (*domain.WaSession, error) {
	args := m.Called(ctx, sessionName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WaSession), args.Error(1)
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.WaSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockAssignmentRepository is a mock implementation of domain.AssignmentRepository.
type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) ListByContactID(ctx context.Context, contactID string) ([]*domain.ContactAssignment, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContactAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) FindResolvedPhone(ctx context.Context, contactID string) (string, error) {
	args := m.Called(ctx, contactID)
	return args.String(0), args.Error(1)
}

func (m *MockAssignmentRepository) CreateBatch(ctx context.Context, assignments []*domain.ContactAssignment) error {
	args := m.Called(ctx, assignments)
	return args.Error(0)
}

// MockNodeClient is a mock implementation of wahaclient.NodeClient.
type MockNodeClient struct {
	mock.Mock
}

func (m *MockNodeClient) CreateSession(ctx context.Context, node *domain.WahaNode, sessionName string) error {
	args := m.Called(ctx, node, sessionName)
	return args.Error(0)
}

func (m *MockNodeClient) SendText(ctx context.Context, node *domain.WahaNode, sessionName, chatID, text string) (*wahaclient.SendReceipt, error) {
	args := m.Called(ctx, node, sessionName, chatID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wahaclient.SendReceipt), args.Error(1)
}

func (m *MockNodeClient) SendSeen(ctx context.Context, node *domain.WahaNode, sessionName, chatID string) error {
	args := m.Called(ctx, node, sessionName, chatID)
	return args.Error(0)
}

func (m *MockNodeClient) ResolveLinkedID(ctx context.Context, node *domain.WahaNode, sessionName, linkedID string) (string, error) {
	args := m.Called(ctx, node, sessionName, linkedID)
	return args.String(0), args.Error(1)
}

// staticTableProvider serves a fixed routing table to tests.
type staticTableProvider struct {
	table domain.RoutingTable
}

func (p *staticTableProvider) Load(ctx context.Context) domain.RoutingTable {
	return p.table
}
