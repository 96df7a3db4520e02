package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
)

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	// Registered clients (connection ID -> Client)
	clients map[string]*Client

	// Inbound messages to fan out
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe client map access
	mu sync.RWMutex
}

// Message is one payload to fan out. An empty Role reaches every client;
// otherwise only clients whose role is in Roles receive it.
type Message struct {
	Roles []string
	Data  interface{}
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("✅ [WEBSOCKET] Client connected: user=%s role=%s (total %d)",
				client.UserID, client.UserRole, h.GetClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				log.Printf("🔴 [WEBSOCKET] Client disconnected: user=%s role=%s (remaining %d)",
					client.UserID, client.UserRole, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message.Data)
			if err != nil {
				log.Printf("❌ Failed to marshal broadcast message: %v", err)
				continue
			}

			h.mu.RLock()
			for id, client := range h.clients {
				if !message.reaches(client.UserRole) {
					continue
				}
				select {
				case client.send <- data:
				default:
					// Client buffer full; drop the message, the pumps will
					// close a dead connection on their own.
					log.Printf("⚠️ Client buffer full, skipping: %s", id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (m *Message) reaches(role string) bool {
	if len(m.Roles) == 0 {
		return true
	}
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// BroadcastAll sends a message to every connected client.
func (h *Hub) BroadcastAll(data interface{}) {
	h.broadcast <- &Message{Data: data}
}

// BroadcastToRoles sends a message to clients holding one of the given roles.
func (h *Hub) BroadcastToRoles(roles []string, data interface{}) {
	h.broadcast <- &Message{Roles: roles, Data: data}
}

// BinUpdated mirrors an accepted bin mutation to every dashboard. The hub
// satisfies the ingest and actions Broadcaster interfaces with this.
func (h *Hub) BinUpdated(b *models.Bin) {
	h.BroadcastAll(map[string]interface{}{
		"type": "bin_update",
		"data": b.ToBinResponse(),
	})
}

// NotificationFired mirrors a fired alert to staff dashboards. The hub
// satisfies services.DashboardFeed with this.
func (h *Hub) NotificationFired(n models.Notification) {
	h.BroadcastToRoles([]string{models.RoleOfficer, models.RoleAdmin}, map[string]interface{}{
		"type": "notification",
		"data": n,
	})
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
