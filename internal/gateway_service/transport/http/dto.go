package http

import "github.com/wahaops/gateway/internal/gateway_service/app"

// CreateSessionRequest DTO for POST /api/v1/sessions.
type CreateSessionRequest struct {
	Name string `json:"name" validate:"required"`
	// Container pins the session to a container; zero lets the allocation
	// policy pick.
	Container int `json:"container,omitempty" validate:"omitempty,min=1"`
}

// CreateSessionResponse DTO.
type CreateSessionResponse struct {
	Status     string `json:"status"`
	Session    string `json:"session"`
	AssignedTo string `json:"assigned_to"`
	Container  int    `json:"container"`
}

// SendMessageRequest DTO for POST /api/v1/messages/send.
type SendMessageRequest struct {
	Session   string `json:"session" validate:"required"`
	ContactID string `json:"contact_id" validate:"required"`
	Text      string `json:"text" validate:"required,min=1"`
}

// SendMessageResponse DTO. One result per owning container.
type SendMessageResponse struct {
	Status  string               `json:"status"`
	Results []app.DeliveryResult `json:"results"`
}

// ErrorResponse DTO.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
