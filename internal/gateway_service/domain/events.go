package domain

import (
	"encoding/json"
	"fmt"
)

// EventKind classifies an inbound WAHA webhook event.
type EventKind string

const (
	EventKindMessage       EventKind = "message"
	EventKindSessionStatus EventKind = "session.status"
	EventKindMessageAck    EventKind = "message.ack"
	EventKindUnknown       EventKind = "unknown"
)

// MessageEvent carries an inbound chat message.
type MessageEvent struct {
	MessageID string `json:"id"`
	From      string `json:"from"`
	Body      string `json:"body"`
}

// SessionStatusEvent signals a session lifecycle transition on a node.
type SessionStatusEvent struct {
	Status string `json:"status"`
}

// MessageAckEvent reports a delivery acknowledgment for an earlier send.
type MessageAckEvent struct {
	MessageID string `json:"id"`
	AckLevel  int    `json:"ack"`
	From      string `json:"from"`
}

// WebhookEvent is a tagged union over the recognized event kinds. Exactly
// one of Message, Status, Ack is non-nil for the matching kind; all are nil
// for EventKindUnknown.
type WebhookEvent struct {
	Kind    EventKind
	Session string

	Message *MessageEvent
	Status  *SessionStatusEvent
	Ack     *MessageAckEvent

	// Raw keeps the original event name for logging unrecognized events.
	Raw string
}

type webhookEnvelope struct {
	Event   string          `json:"event"`
	Session string          `json:"session"`
	Payload json.RawMessage `json:"payload"`
}

// ParseWebhookEvent decodes a raw WAHA callback body into a WebhookEvent.
// An unrecognized event name is not an error: it yields EventKindUnknown so
// the caller can log and drop it. Only malformed JSON fails.
func ParseWebhookEvent(data []byte) (*WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode webhook envelope: %w", err)
	}

	session := env.Session
	if session == "" {
		session = "default"
	}

	ev := &WebhookEvent{Session: session, Raw: env.Event}

	switch env.Event {
	case string(EventKindMessage):
		var msg MessageEvent
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message payload: %w", err)
		}
		ev.Kind = EventKindMessage
		ev.Message = &msg
	case string(EventKindSessionStatus):
		var st SessionStatusEvent
		if err := json.Unmarshal(env.Payload, &st); err != nil {
			return nil, fmt.Errorf("failed to decode session status payload: %w", err)
		}
		if st.Status == "" {
			st.Status = "unknown"
		}
		ev.Kind = EventKindSessionStatus
		ev.Status = &st
	case string(EventKindMessageAck):
		var ack MessageAckEvent
		if err := json.Unmarshal(env.Payload, &ack); err != nil {
			return nil, fmt.Errorf("failed to decode message ack payload: %w", err)
		}
		ev.Kind = EventKindMessageAck
		ev.Ack = &ack
	default:
		ev.Kind = EventKindUnknown
	}

	return ev, nil
}
