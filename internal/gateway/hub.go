// Package gateway fans out typed market-data messages to connected
// WebSocket clients, filtered by per-client symbol subscriptions.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub manages WebSocket clients and message fan-out. It exclusively
// owns the subscription registry; connect/subscribe/disconnect events
// may run concurrently with broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	upgrader websocket.Upgrader

	// OnDrop is called when a slow client's buffer forces a drop
	// (optional, for metrics).
	OnDrop func()
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboard clients connect cross-origin in development
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades an HTTP request and registers the client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		hub:  h,
		subs: make(map[string]struct{}),
	}
	h.register(client)

	go client.writePump()
	go client.readPump()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("[gateway] ws client connected (%d total)", count)
}

// RemoveClient removes a client from the hub and closes its queue.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends payload to every connected client that passes the
// symbol filter: no symbol tag, an empty subscription set, or a set
// containing the symbol. A slow client drops the message rather than
// blocking delivery to others; per-client queue order preserves
// submission order.
func (h *Hub) Broadcast(payload interface{}, msgType, symbol string) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[gateway] broadcast marshal error: %v", err)
		return
	}
	envelope := buildEnvelope(msgType, symbol, data, time.Now().UTC())

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.wantsSymbol(symbol) {
			continue
		}
		select {
		case client.send <- envelope:
		default:
			if h.OnDrop != nil {
				h.OnDrop()
			} else {
				log.Println("[gateway] client send buffer full, dropping message")
			}
		}
	}
}
