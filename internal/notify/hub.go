package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"marketplace-app/internal/domain/notifications"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Registry tracks live connections per user.
type Registry interface {
	Register(userID uint, c *Client)
	Unregister(c *Client)
	Lookup(userID uint) []*Client
}

// Client is one live connection. conn may be nil for in-process listeners.
type Client struct {
	UserID uint

	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func NewClient(userID uint, conn *websocket.Conn) *Client {
	return &Client{UserID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Hub is the concurrency-safe Registry and local Deliverer.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*Client]struct{}
	log     *logrus.Entry
}

func NewHub(log *logrus.Entry) *Hub {
	return &Hub{clients: make(map[uint]map[*Client]struct{}), log: log}
}

func (h *Hub) Register(userID uint, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	c.close()
}

func (h *Hub) Lookup(userID uint) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		out = append(out, c)
	}
	return out
}

// Deliver writes n to every connection of its user. A connection whose
// buffer is full is dropped.
func (h *Hub) Deliver(_ context.Context, n notifications.Notification) error {
	clients := h.Lookup(n.UserID)
	if len(clients) == 0 {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	for _, c := range clients {
		select {
		case c.send <- payload:
		default:
			h.log.WithField("user_id", c.UserID).Warn("notification buffer full, dropping connection")
			h.Unregister(c)
		}
	}
	return nil
}

// Serve pumps a websocket connection until it closes.
func (h *Hub) Serve(userID uint, conn *websocket.Conn) {
	c := NewClient(userID, conn)
	h.Register(userID, c)
	go c.writePump()
	c.readPump()
	h.Unregister(c)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only keeps the connection alive; clients send nothing we use.
func (c *Client) readPump() {
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
