package websocket

import (
	"log"

	"github.com/condo-admin/backend/internal/storage/models"
)

// EventBroadcaster turns domain events into WebSocket messages.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// NotificationCreated pushes a stored notification to its recipient,
// or to every client for a broadcast.
func (b *EventBroadcaster) NotificationCreated(n *models.Notification) {
	msg := NewMessage(TypeNotificationCreated, NotificationPayload{
		ID:        n.ID,
		UserID:    n.UserID,
		Message:   n.Message,
		Type:      string(n.Type),
		CreatedAt: n.CreatedAt,
	})

	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	if n.IsBroadcast() {
		b.hub.Broadcast(data)
		return
	}
	b.hub.SendToUser(*n.UserID, data)
}

// NotificationsRead tells a user's other sessions that notifications were read.
func (b *EventBroadcaster) NotificationsRead(userID string, ids []string) {
	data, err := NewMessage(TypeNotificationRead, NotificationReadPayload{IDs: ids}).JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}
	b.hub.SendToUser(userID, data)
}
