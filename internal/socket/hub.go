// internal/socket/hub.go
package socket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Estimation change notifications. These carry ids and an action only;
	// clients refetch what they need.
	MessageDocumentUpdate MessageType = "document_update"
	MessageItemUpdate     MessageType = "item_update"

	// Fragment updates carry the recomputed aggregate plus the item row so
	// clients can repaint without a refetch.
	MessageFragmentUpdate MessageType = "fragment_update"

	// System messages
	MessagePing  MessageType = "ping"
	MessagePong  MessageType = "pong"
	MessageAck   MessageType = "ack"
	MessageError MessageType = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Authorizer decides whether a user may subscribe to an estimation's room.
// The accounts service provides this so the hub never reaches into storage
// on its own.
type Authorizer func(ctx context.Context, userID, estimationID string) bool

// Hub maintains the set of active clients and fans out room broadcasts
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Clients indexed by room (estimation:<id>)
	roomClients map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Broadcast to a specific room
	roomBroadcast chan *RoomMessage

	authorize Authorizer

	mu sync.RWMutex
}

// RoomMessage represents a message to be sent to a specific room
type RoomMessage struct {
	Room    string
	Message []byte
}

// NewHub creates a new Hub
func NewHub(authorize Authorizer) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		roomClients:   make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		roomBroadcast: make(chan *RoomMessage, 256),
		authorize:     authorize,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	log.Println("[Hub] WebSocket hub started")

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case rm := <-h.roomBroadcast:
			h.broadcastToRoom(rm)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	connectedClients.Inc()

	log.Printf("[Hub] ✅ Client registered: user=%s, id=%s, total_clients=%d",
		client.UserID, client.ID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		connectedClients.Dec()

		// Remove from all rooms
		for room := range client.Rooms {
			if clients, ok := h.roomClients[room]; ok {
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.roomClients, room)
				}
			}
		}

		close(client.Send)
		log.Printf("[Hub] ❌ Client disconnected: user=%s, id=%s, total_clients=%d",
			client.UserID, client.ID, len(h.clients))
	}
}

func (h *Hub) broadcastToRoom(rm *RoomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.roomClients[rm.Room]
	if !ok {
		// Empty room, nothing to deliver.
		return
	}

	sentCount := 0
	for client := range clients {
		select {
		case client.Send <- rm.Message:
			sentCount++
		default:
			// Slow consumer; drop the connection rather than block the hub.
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
	broadcastsTotal.Add(float64(sentCount))
	log.Printf("[Hub] Broadcast to room %s: sent to %d clients", rm.Room, sentCount)
}

// ============================================
// Room Management
// ============================================

// JoinRoom adds a client to a room after the authorizer admits it.
func (h *Hub) JoinRoom(ctx context.Context, client *Client, room string) bool {
	estimationID, ok := parseRoom(room)
	if !ok {
		return false
	}
	if h.authorize != nil && !h.authorize(ctx, client.UserID, estimationID) {
		subscriptionsRejected.Inc()
		log.Printf("[Hub] 🚫 Subscribe rejected: user=%s, room=%s", client.UserID, room)
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	client.Rooms[room] = true
	client.mu.Unlock()

	if h.roomClients[room] == nil {
		h.roomClients[room] = make(map[*Client]bool)
	}
	h.roomClients[room][client] = true

	log.Printf("[Hub] 👥 Client joined room: user=%s, room=%s", client.UserID, room)
	return true
}

// LeaveRoom removes a client from a room
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	delete(client.Rooms, room)
	client.mu.Unlock()

	if clients, ok := h.roomClients[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.roomClients, room)
		}
	}

	log.Printf("[Hub] 👋 Client left room: user=%s, room=%s", client.UserID, room)
}

// SendToRoom broadcasts a message to all clients in a room
func (h *Hub) SendToRoom(room string, msgType MessageType, payload interface{}) error {
	msg := Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.roomBroadcast <- &RoomMessage{
		Room:    room,
		Message: data,
	}
	return nil
}

// ============================================
// Query Methods
// ============================================

// GetRoomClients returns the number of clients in a room
func (h *Hub) GetRoomClients(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.roomClients[room]; ok {
		return len(clients)
	}
	return 0
}

// GetConnectedClientsCount returns total connected clients
func (h *Hub) GetConnectedClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomForEstimation names the room clients subscribe to for one estimation.
func RoomForEstimation(estimationID string) string {
	return "estimation:" + estimationID
}

func parseRoom(room string) (estimationID string, ok bool) {
	const prefix = "estimation:"
	if len(room) > len(prefix) && room[:len(prefix)] == prefix {
		return room[len(prefix):], true
	}
	return "", false
}
