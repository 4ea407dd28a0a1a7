package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/wahaops/gateway/internal/gateway_service/adapters/wahaclient"
	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

func newRouterFixture(table domain.RoutingTable) (*WebhookRouter, *MockSessionRepository, *MockAssignmentRepository, *MockNodeRepository, *MockNodeClient) {
	mockSessions := new(MockSessionRepository)
	mockAssignments := new(MockAssignmentRepository)
	mockNodes := new(MockNodeRepository)
	mockClient := new(MockNodeClient)

	normalizer := NewIdentifierNormalizer(mockAssignments, mockNodes, mockClient, discardLogger())
	resolver := NewContainerResolver(mockAssignments, mockNodes, &staticTableProvider{table: table}, normalizer, discardLogger())
	dispatcher := NewDeliveryDispatcher(mockClient, discardLogger())
	router := NewWebhookRouter(mockSessions, mockNodes, mockClient, resolver, dispatcher, discardLogger())

	return router, mockSessions, mockAssignments, mockNodes, mockClient
}

func TestHandleEvent_MessageSendsSeenAndEcho(t *testing.T) {
	router, mockSessions, mockAssignments, mockNodes, mockClient := newRouterFixture(domain.RoutingTable{1: {"923001234567"}})

	sessionNode := &domain.WahaNode{ID: 1}
	mockSessions.On("GetByName", mock.Anything, "default").Return(domain.NewWaSession("default", 1), nil)
	mockNodes.On("GetByContainer", mock.Anything, 1).Return(sessionNode, nil)
	mockClient.On("SendSeen", mock.Anything, sessionNode, "default", "923001234567@c.us").Return(nil)

	mockAssignments.On("ListByContactID", mock.Anything, "923001234567@c.us").Return([]*domain.ContactAssignment{}, nil)
	mockAssignments.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	mockClient.On("SendText", mock.Anything, sessionNode, "default", "923001234567@c.us", "[container 1] Echo: hello").
		Return(&wahaclient.SendReceipt{MessageID: "echo-1"}, nil)

	payload := []byte(`{"event":"message","session":"default","payload":{"id":"m1","from":"923001234567@c.us","body":"hello"}}`)
	router.HandleEvent(context.Background(), payload)

	mockClient.AssertExpectations(t)
	mockSessions.AssertExpectations(t)
}

func TestHandleEvent_SeenFailureIsSwallowed(t *testing.T) {
	router, mockSessions, mockAssignments, mockNodes, mockClient := newRouterFixture(domain.RoutingTable{1: {"923001234567"}})

	sessionNode := &domain.WahaNode{ID: 1}
	mockSessions.On("GetByName", mock.Anything, "default").Return(domain.NewWaSession("default", 1), nil)
	mockNodes.On("GetByContainer", mock.Anything, 1).Return(sessionNode, nil)
	mockClient.On("SendSeen", mock.Anything, sessionNode, "default", "923001234567@c.us").Return(errors.New("timeout"))

	// The echo still goes out even though the read receipt failed.
	mockAssignments.On("ListByContactID", mock.Anything, "923001234567@c.us").Return([]*domain.ContactAssignment{}, nil)
	mockAssignments.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	mockClient.On("SendText", mock.Anything, sessionNode, "default", "923001234567@c.us", "[container 1] Echo: hello").
		Return(&wahaclient.SendReceipt{MessageID: "echo-1"}, nil)

	payload := []byte(`{"event":"message","session":"default","payload":{"id":"m1","from":"923001234567@c.us","body":"hello"}}`)
	router.HandleEvent(context.Background(), payload)

	mockClient.AssertExpectations(t)
}

func TestHandleEvent_EmptyBodySkipsEcho(t *testing.T) {
	router, mockSessions, mockAssignments, mockNodes, mockClient := newRouterFixture(domain.RoutingTable{})

	sessionNode := &domain.WahaNode{ID: 1}
	mockSessions.On("GetByName", mock.Anything, "default").Return(domain.NewWaSession("default", 1), nil)
	mockNodes.On("GetByContainer", mock.Anything, 1).Return(sessionNode, nil)
	mockClient.On("SendSeen", mock.Anything, sessionNode, "default", "923001234567@c.us").Return(nil)

	payload := []byte(`{"event":"message","session":"default","payload":{"id":"m1","from":"923001234567@c.us","body":""}}`)
	router.HandleEvent(context.Background(), payload)

	mockAssignments.AssertNotCalled(t, "ListByContactID", mock.Anything, mock.Anything)
	mockClient.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleEvent_MultiContainerEchoTaggedPerContainer(t *testing.T) {
	table := domain.RoutingTable{1: {"923001234567"}, 2: {"923001234567"}}
	router, mockSessions, mockAssignments, mockNodes, mockClient := newRouterFixture(table)

	node1 := &domain.WahaNode{ID: 1}
	node2 := &domain.WahaNode{ID: 2}
	mockSessions.On("GetByName", mock.Anything, "default").Return(domain.NewWaSession("default", 1), nil)
	mockNodes.On("GetByContainer", mock.Anything, 1).Return(node1, nil)
	mockNodes.On("GetByContainer", mock.Anything, 2).Return(node2, nil)
	mockClient.On("SendSeen", mock.Anything, node1, "default", "923001234567@c.us").Return(nil)

	mockAssignments.On("ListByContactID", mock.Anything, "923001234567@c.us").Return([]*domain.ContactAssignment{}, nil)
	mockAssignments.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)

	// One container failing must not stop the echo to the other one.
	mockClient.On("SendText", mock.Anything, node1, "default", "923001234567@c.us", "[container 1] Echo: hi").
		Return(nil, errors.New("node down"))
	mockClient.On("SendText", mock.Anything, node2, "default", "923001234567@c.us", "[container 2] Echo: hi").
		Return(&wahaclient.SendReceipt{MessageID: "echo-2"}, nil)

	payload := []byte(`{"event":"message","session":"default","payload":{"id":"m1","from":"923001234567@c.us","body":"hi"}}`)
	router.HandleEvent(context.Background(), payload)

	mockClient.AssertExpectations(t)
}

func TestHandleEvent_SessionStatusAndAckAreLoggedOnly(t *testing.T) {
	router, mockSessions, _, _, mockClient := newRouterFixture(domain.RoutingTable{})

	router.HandleEvent(context.Background(), []byte(`{"event":"session.status","session":"default","payload":{"status":"WORKING"}}`))
	router.HandleEvent(context.Background(), []byte(`{"event":"message.ack","session":"default","payload":{"id":"m1","ack":3}}`))

	mockSessions.AssertNotCalled(t, "GetByName", mock.Anything, mock.Anything)
	mockClient.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleEvent_UnknownAndMalformedEventsAreDropped(t *testing.T) {
	router, mockSessions, _, _, mockClient := newRouterFixture(domain.RoutingTable{})

	router.HandleEvent(context.Background(), []byte(`{"event":"presence.update","session":"default","payload":{}}`))
	router.HandleEvent(context.Background(), []byte(`not json at all`))

	mockSessions.AssertNotCalled(t, "GetByName", mock.Anything, mock.Anything)
	mockClient.AssertNotCalled(t, "SendSeen", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
