// Package websocket provides WebSocket connection management and live
// notification delivery.
package websocket

import (
	"log"
	"sync"
)

// envelope is a message queued for delivery. A set client receives it alone;
// otherwise an empty userID reaches every client.
type envelope struct {
	client *Client
	userID string
	data   []byte
}

// Hub maintains the set of active WebSocket clients and routes messages to them.
type Hub struct {
	// Registered clients, grouped by the user they authenticated as
	clients map[string]map[*Client]bool

	outbound   chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		outbound:   make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main event loop until Stop is called.
// This should be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
			log.Printf("WebSocket client connected for user %s (total: %d)", client.userID, h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			log.Printf("WebSocket client disconnected for user %s (total: %d)", client.userID, h.ClientCount())

		case msg := <-h.outbound:
			h.mu.Lock()
			h.deliver(msg)
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for _, set := range h.clients {
				for client := range set {
					h.remove(client)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// deliver hands msg to its recipients. Clients with a full buffer are dropped.
// Callers must hold mu.
func (h *Hub) deliver(msg envelope) {
	if msg.client != nil {
		if h.clients[msg.client.userID][msg.client] {
			h.offer(msg.client, msg.data)
		}
		return
	}
	for userID, set := range h.clients {
		if msg.userID != "" && userID != msg.userID {
			continue
		}
		for client := range set {
			h.offer(client, msg.data)
		}
	}
}

// offer queues data on a client, dropping the client if its buffer is full.
// Callers must hold mu.
func (h *Hub) offer(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.remove(client)
	}
}

// remove closes and forgets a client. Callers must hold mu.
func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

// Stop terminates Run and closes every client.
func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(message []byte) {
	h.enqueue(envelope{data: message})
}

// SendToUser sends a message to every connection held by userID.
func (h *Hub) SendToUser(userID string, message []byte) {
	if userID == "" {
		return
	}
	h.enqueue(envelope{userID: userID, data: message})
}

// Reply sends a message to a single client connection.
func (h *Hub) Reply(client *Client, message []byte) {
	h.enqueue(envelope{client: client, data: message})
}

func (h *Hub) enqueue(msg envelope) {
	select {
	case h.outbound <- msg:
	default:
		log.Println("WebSocket outbound channel full, dropping message")
	}
}

// Register adds a client to the hub. After Stop the client is closed immediately.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Client represents a WebSocket client connection owned by one user.
type Client struct {
	userID string
	send   chan []byte
}

// NewClient creates a new WebSocket client for userID.
func NewClient(userID string) *Client {
	return &Client{
		userID: userID,
		send:   make(chan []byte, 256),
	}
}

// UserID returns the user the client authenticated as.
func (c *Client) UserID() string {
	return c.userID
}

// Send returns the send channel for the client.
func (c *Client) Send() chan []byte {
	return c.send
}
