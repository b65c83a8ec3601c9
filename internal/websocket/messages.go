package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeNotificationCreated MessageType = "notification.created"
	TypeNotificationRead    MessageType = "notification.read"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"

	// Client -> Server command types
	TypePing MessageType = "ping"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload,omitempty"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationPayload is the payload for notification.created events.
type NotificationPayload struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationReadPayload is the payload for notification.read events.
type NotificationReadPayload struct {
	IDs []string `json:"ids"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
