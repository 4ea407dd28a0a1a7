package wahaclient

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testNode(serverURL string) *domain.WahaNode {
	return &domain.WahaNode{ID: 1, URL: serverURL, APIKey: "secret-key"}
}

func TestCreateSession(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("X-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewHTTPNodeClient(discardLogger(), server.Client())
	err := client.CreateSession(context.Background(), testNode(server.URL), "acct-1")

	require.NoError(t, err)
	assert.Equal(t, "/api/sessions", gotPath)
	assert.Equal(t, "secret-key", gotAPIKey)
	assert.Equal(t, map[string]string{"name": "acct-1"}, gotBody)
}

func TestCreateSession_NodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"session limit reached"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewHTTPNodeClient(discardLogger(), server.Client())
	err := client.CreateSession(context.Background(), testNode(server.URL), "acct-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestSendText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sendText", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "default", req["session"])
		assert.Equal(t, "923001234567@c.us", req["chatId"])
		assert.Equal(t, "hello", req["text"])
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "true_923001234567@c.us_ABCD"})
	}))
	defer server.Close()

	client := NewHTTPNodeClient(discardLogger(), server.Client())
	receipt, err := client.SendText(context.Background(), testNode(server.URL), "default", "923001234567@c.us", "hello")

	require.NoError(t, err)
	assert.Equal(t, "true_923001234567@c.us_ABCD", receipt.MessageID)
}

func TestSendText_UnparsableReceiptIsNotAFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := NewHTTPNodeClient(discardLogger(), server.Client())
	receipt, err := client.SendText(context.Background(), testNode(server.URL), "default", "923001234567@c.us", "hello")

	require.NoError(t, err)
	assert.Empty(t, receipt.MessageID)
}

func TestSendSeen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sendSeen", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPNodeClient(discardLogger(), server.Client())
	err := client.SendSeen(context.Background(), testNode(server.URL), "default", "923001234567@c.us")
	assert.NoError(t, err)
}

func TestResolveLinkedID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/default/lids/998877665544", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("X-Api-Key"))
		_ = json.NewEncoder(w).Encode(map[string]string{"lid": "998877665544", "pn": "923009998888"})
	}))
	defer server.Close()

	client := NewHTTPNodeClient(discardLogger(), server.Client())
	phone, err := client.ResolveLinkedID(context.Background(), testNode(server.URL), "default", "998877665544")

	require.NoError(t, err)
	assert.Equal(t, "923009998888", phone)
}

func TestResolveLinkedID_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPNodeClient(discardLogger(), server.Client())
	_, err := client.ResolveLinkedID(context.Background(), testNode(server.URL), "default", "998877665544")
	assert.ErrorIs(t, err, domain.ErrLinkedIDNotFound)
}

func TestResolveLinkedID_EmptyPhone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"lid": "998877665544", "pn": ""})
	}))
	defer server.Close()

	client := NewHTTPNodeClient(discardLogger(), server.Client())
	_, err := client.ResolveLinkedID(context.Background(), testNode(server.URL), "default", "998877665544")
	assert.ErrorIs(t, err, domain.ErrLinkedIDNotFound)
}
