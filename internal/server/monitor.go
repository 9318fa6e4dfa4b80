package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// #region events

// MonitorEvent is a session lifecycle event streamed to monitor clients.
type MonitorEvent struct {
	Type      string `json:"type"` // "session_created" | "verified" | "rejected"
	Timestamp string `json:"ts"`
	Payload   any    `json:"payload,omitempty"`
}

func newMonitorEvent(kind string, payload any) MonitorEvent {
	return MonitorEvent{
		Type:      kind,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:   payload,
	}
}

// #endregion events

// #region hub

// Hub fans session lifecycle events out to connected websocket monitors.
type Hub struct {
	register   chan *monitorClient
	unregister chan *monitorClient
	clients    map[*monitorClient]bool
	broadcast  chan []byte
}

type monitorClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub; call Run in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *monitorClient),
		unregister: make(chan *monitorClient),
		clients:    make(map[*monitorClient]bool),
		broadcast:  make(chan []byte, 256),
	}
}

// Run owns the client set until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Broadcast serializes and queues an event for all monitors. Slow clients
// are dropped rather than allowed to back-pressure the request path.
func (h *Hub) Broadcast(ev MonitorEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- b:
	default:
	}
}

// #endregion hub

// #region serve

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func serveMonitorWS(h *Hub, logger *slog.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("monitor upgrade failed", "err", err)
		return
	}
	client := &monitorClient{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()
}

func (c *monitorClient) writePump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// #endregion serve
