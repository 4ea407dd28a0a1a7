package wahaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

const (
	// Remote session/send operations are bounded by this timeout.
	operationTimeout = 30 * time.Second
	// Linked-id resolution is on the routing hot path and gets a tighter bound.
	lidResolveTimeout = 10 * time.Second
)

// HTTPNodeClient talks to WAHA nodes over their HTTP API, authenticating
// with the per-node X-Api-Key header.
type HTTPNodeClient struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPNodeClient creates a new HTTPNodeClient. A nil httpClient gets a
// default one; per-call deadlines come from the operation timeouts, not the
// client.
func NewHTTPNodeClient(logger *slog.Logger, httpClient *http.Client) *HTTPNodeClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPNodeClient{
		httpClient: httpClient,
		logger:     logger.With("adapter", "waha_client"),
	}
}

type createSessionRequest struct {
	Name string `json:"name"`
}

type sendTextRequest struct {
	Session string `json:"session"`
	ChatID  string `json:"chatId"`
	Text    string `json:"text"`
}

type sendSeenRequest struct {
	Session string `json:"session"`
	ChatID  string `json:"chatId"`
}

type lidResponse struct {
	LID string `json:"lid"`
	PN  string `json:"pn"`
}

func (c *HTTPNodeClient) CreateSession(ctx context.Context, node *domain.WahaNode, sessionName string) error {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	body, err := c.post(ctx, node, "/api/sessions", createSessionRequest{Name: sessionName})
	if err != nil {
		return fmt.Errorf("failed to create WAHA session %q on node %d: %w", sessionName, node.ID, err)
	}
	c.logger.InfoContext(ctx, "WAHA session created", "session", sessionName, "node_id", node.ID, "response_len", len(body))
	return nil
}

func (c *HTTPNodeClient) SendText(ctx context.Context, node *domain.WahaNode, sessionName, chatID, text string) (*SendReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	body, err := c.post(ctx, node, "/api/sendText", sendTextRequest{Session: sessionName, ChatID: chatID, Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to send text via node %d: %w", node.ID, err)
	}

	var receipt SendReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		// The send succeeded at the HTTP level; a receipt we cannot parse
		// only loses the provider message id.
		c.logger.WarnContext(ctx, "Sent text but failed to parse receipt", "node_id", node.ID, "error", err)
		return &SendReceipt{}, nil
	}
	return &receipt, nil
}

func (c *HTTPNodeClient) SendSeen(ctx context.Context, node *domain.WahaNode, sessionName, chatID string) error {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	if _, err := c.post(ctx, node, "/api/sendSeen", sendSeenRequest{Session: sessionName, ChatID: chatID}); err != nil {
		return fmt.Errorf("failed to send seen via node %d: %w", node.ID, err)
	}
	return nil
}

func (c *HTTPNodeClient) ResolveLinkedID(ctx context.Context, node *domain.WahaNode, sessionName, linkedID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, lidResolveTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/api/%s/lids/%s", node.URL, url.PathEscape(sessionName), url.PathEscape(linkedID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create lid resolve request: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", node.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("lid resolve request to node %d failed: %w", node.ID, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusNotFound {
		return "", domain.ErrLinkedIDNotFound
	}
	respBody, readErr := io.ReadAll(httpResp.Body)
	if readErr != nil {
		return "", fmt.Errorf("failed to read lid resolve response from node %d: %w", node.ID, readErr)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", fmt.Errorf("lid resolve on node %d returned status %d", node.ID, httpResp.StatusCode)
	}

	var resp lidResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to parse lid resolve response from node %d: %w", node.ID, err)
	}
	if resp.PN == "" {
		return "", domain.ErrLinkedIDNotFound
	}
	return resp.PN, nil
}

// post issues an authenticated JSON POST against the node and returns the
// response body for 2xx statuses.
func (c *HTTPNodeClient) post(ctx context.Context, node *domain.WahaNode, path string, payload any) ([]byte, error) {
	reqBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, node.URL+path, bytes.NewBuffer(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", node.APIKey)

	c.logger.DebugContext(ctx, "Sending HTTP request to WAHA node", "url", node.URL+path, "node_id", node.ID)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, readErr := io.ReadAll(httpResp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("request returned status %d, and reading the body failed: %w", httpResp.StatusCode, readErr)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		errMsg := fmt.Sprintf("node returned status %d", httpResp.StatusCode)
		if len(respBody) > 0 && len(respBody) < 200 {
			errMsg = fmt.Sprintf("node returned status %d: %s", httpResp.StatusCode, string(respBody))
		}
		return nil, fmt.Errorf("%s", errMsg)
	}
	return respBody, nil
}
