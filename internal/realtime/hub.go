package realtime

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/argus-sec/argus/backend/internal/logger"
)

// Event is a typed message pushed to dashboard clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans detection events out to connected websocket clients. Slow or dead
// clients are dropped on write failure rather than back-pressuring the
// detection path.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	upgrader websocket.Upgrader
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboard clients connect cross-origin in development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handle upgrades the request to a websocket and keeps the connection
// registered until the peer goes away.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithFields(map[string]interface{}{"error": err.Error()}).Warn("websocket upgrade failed")
		return
	}

	// The welcome frame must go out before the connection is registered:
	// once registered, Broadcast (under h.mu) is the connection's only
	// writer, and gorilla/websocket forbids concurrent writers.
	_ = conn.WriteJSON(Event{Type: "welcome", Data: gin.H{"message": "Connected to Argus"}})

	h.register(conn)
	logger.WithFields(map[string]interface{}{"client": conn.RemoteAddr().String()}).Info("dashboard client connected")

	// Drain control frames; the read loop ends when the client disconnects.
	go func() {
		defer func() {
			h.unregister(conn)
			_ = conn.Close()
			logger.WithFields(map[string]interface{}{"client": conn.RemoteAddr().String()}).Info("dashboard client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	event := Event{Type: eventType, Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}
