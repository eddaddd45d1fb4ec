package websocket

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

// Hub keeps one live connection per user and pushes notifications to it.
type Hub struct {
	clients map[uuid.UUID]*websocket.Conn
	mu      sync.RWMutex
	writeMu sync.Mutex
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{clients: make(map[uuid.UUID]*websocket.Conn), log: log}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.UserID] = c.Conn
	h.mu.Unlock()
	h.log.Debug("Client registered", zap.String("user_id", c.UserID.String()))
}

// Unregister removes the client unless a newer connection replaced it.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if conn, ok := h.clients[c.UserID]; ok && conn == c.Conn {
		delete(h.clients, c.UserID)
	}
	h.mu.Unlock()
	h.log.Debug("Client unregistered", zap.String("user_id", c.UserID.String()))
}

func (h *Hub) Connected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Push writes payload to the user's socket and reports whether it was delivered.
// A failed write drops the connection.
func (h *Hub) Push(userID uuid.UUID, payload interface{}) bool {
	h.mu.RLock()
	conn, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	h.writeMu.Lock()
	err := conn.WriteJSON(payload)
	h.writeMu.Unlock()
	if err != nil {
		h.log.Warn("Error pushing to client", zap.String("user_id", userID.String()), zap.Error(err))
		conn.Close()
		h.Unregister(&Client{UserID: userID, Conn: conn})
		return false
	}
	return true
}

// Serve blocks for the lifetime of the connection. Inbound frames are read only to
// detect the close.
func (h *Hub) Serve(c *Client) {
	h.Register(c)
	defer h.Unregister(c)
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
