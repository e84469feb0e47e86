// Package floor broadcasts seating events to host-stand screens over
// websockets.
package floor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/periodic-tables/events"
)

const (
	writeWait = 5 * time.Second
	// sendBuffer is how many events a screen may fall behind before it is
	// dropped.
	sendBuffer = 32
)

// client is one connected screen. Its writer goroutine drains send.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub holds the connected screens.
type Hub struct {
	clients  map[*websocket.Conn]*client
	mutex    sync.Mutex
	upgrader websocket.Upgrader
	logger   *logrus.Entry
}

// NewHub returns a hub accepting connections from allowedOrigin, or from any
// origin when allowedOrigin is "*" or empty.
func NewHub(allowedOrigin string, logger *logrus.Entry) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
		logger: logger,
	}
}

// RegisterClient adds conn to the broadcast set and starts its writer.
func (h *Hub) RegisterClient(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mutex.Lock()
	h.clients[conn] = c
	h.mutex.Unlock()
	go h.writePump(c)
}

// UnregisterClient removes conn and closes it.
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if c, ok := h.clients[conn]; ok {
		h.drop(c)
	}
}

// drop must be called with the mutex held.
func (h *Hub) drop(c *client) {
	delete(h.clients, c.conn)
	close(c.send)
	c.conn.Close()
}

// Clients returns the number of connected screens.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Publish queues e for every connected screen without waiting on the
// network. Screens whose queue is full are dropped.
func (h *Hub) Publish(_ context.Context, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.logger.WithFields(logrus.Fields{"event": e.Type, "clients": len(h.clients)}).Debug("broadcasting floor event")
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow floor client")
			h.drop(c)
		}
	}
	return nil
}

func (h *Hub) writePump(c *client) {
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.WithError(err).Warn("dropping floor client")
			h.UnregisterClient(c.conn)
			return
		}
	}
}

// ServeWS upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) ServeWS(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.RegisterClient(ws)
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	h.UnregisterClient(ws)
}

// Close disconnects every screen.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn, c := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		h.drop(c)
	}
}
