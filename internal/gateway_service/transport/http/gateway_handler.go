package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/wahaops/gateway/internal/gateway_service/app"
	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

// GatewayApp is the slice of the application service the HTTP transport
// depends on.
type GatewayApp interface {
	CreateSession(ctx context.Context, sessionName string, containerHint int) (*app.SessionPlacement, error)
	SendMessage(ctx context.Context, contactID, text, sessionName string) ([]app.DeliveryResult, error)
}

// GatewayHandler exposes session creation and message sending.
type GatewayHandler struct {
	gateway  GatewayApp
	logger   *slog.Logger
	validate *validator.Validate
}

// NewGatewayHandler creates a new GatewayHandler.
func NewGatewayHandler(gateway GatewayApp, logger *slog.Logger, validate *validator.Validate) *GatewayHandler {
	return &GatewayHandler{
		gateway:  gateway,
		logger:   logger.With("handler", "gateway"),
		validate: validate,
	}
}

// RegisterRoutes registers the authenticated API routes.
func (h *GatewayHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Post("/messages/send", h.handleSendMessage)
}

func (h *GatewayHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.ErrorContext(ctx, "Failed to decode create session request", "error", err)
		h.jsonError(w, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		logger.WarnContext(ctx, "Create session request failed validation", "error", err)
		h.jsonError(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	placement, err := h.gateway.CreateSession(ctx, req.Name, req.Container)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionExists):
			logger.WarnContext(ctx, "Session already exists", "session", req.Name)
			h.jsonError(w, "Session for "+req.Name+" already exists", http.StatusConflict)
		case errors.Is(err, domain.ErrNoNodesAvailable):
			logger.ErrorContext(ctx, "No available WAHA nodes", "session", req.Name)
			h.jsonError(w, "No available WAHA nodes", http.StatusServiceUnavailable)
		default:
			logger.ErrorContext(ctx, "Failed to create session", "session", req.Name, "error", err)
			h.jsonError(w, err.Error(), http.StatusBadGateway)
		}
		return
	}

	logger.InfoContext(ctx, "Session created", "session", req.Name, "node_url", placement.NodeURL)
	h.respondJSON(w, http.StatusCreated, CreateSessionResponse{
		Status:     "success",
		Session:    req.Name,
		AssignedTo: placement.NodeURL,
		Container:  placement.ContainerNumber,
	})
}

func (h *GatewayHandler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.ErrorContext(ctx, "Failed to decode send message request", "error", err)
		h.jsonError(w, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		logger.WarnContext(ctx, "Send message request failed validation", "error", err)
		h.jsonError(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	results, err := h.gateway.SendMessage(ctx, req.ContactID, req.Text, req.Session)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			logger.WarnContext(ctx, "Send for unknown session", "session", req.Session)
			h.jsonError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrNoRoute):
			logger.ErrorContext(ctx, "No route for contact", "contact_id", req.ContactID)
			h.jsonError(w, "No route to any node for contact", http.StatusBadGateway)
		default:
			logger.ErrorContext(ctx, "Failed to send message", "contact_id", req.ContactID, "error", err)
			h.jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	// Partial success is a normal outcome; per-container results carry it.
	status := "success"
	for _, res := range results {
		if !res.Success {
			status = "partial"
			break
		}
	}
	logger.InfoContext(ctx, "Message dispatched", "contact_id", req.ContactID, "targets", len(results), "status", status)
	h.respondJSON(w, http.StatusOK, SendMessageResponse{Status: status, Results: results})
}

func (h *GatewayHandler) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *GatewayHandler) jsonError(w http.ResponseWriter, message string, code int) {
	h.respondJSON(w, code, ErrorResponse{Status: "error", Message: message})
}
