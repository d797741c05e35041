// Package feed streams simulation progress to websocket clients.
package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/dealersim/internal/simulator"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512

	sendBuffer = 64
)

// Hub fans engine events out to every connected websocket client. It never
// blocks the caller: clients that fall behind are disconnected.
type Hub struct {
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	// replayed to clients that connect mid-run
	lastProgress []byte
	lastRows     []byte
}

// NewHub creates an empty hub
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger: logger.WithPrefix("feed"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the client
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	c := newClient()

	h.mu.Lock()
	for _, msg := range [][]byte{h.lastProgress, h.lastRows} {
		if msg != nil {
			c.send <- msg
		}
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("Client connected", "remote", r.RemoteAddr)
	go h.writePump(c, conn)
	go h.readPump(c, conn)
}

// Publish converts ev and broadcasts it
func (h *Hub) Publish(ev simulator.Event) {
	msg, ok := FromEvent(ev)
	if !ok {
		return
	}
	h.Broadcast(msg)
}

// Broadcast sends msg to every client without waiting on any of them
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode message", "type", msg.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch msg.Type {
	case TypeProgress:
		h.lastProgress = data
	case TypeSnapshot, TypeCompleted, TypeCancelled, TypeFailed:
		h.lastRows = data
	}

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("Client send buffer full, disconnecting")
			h.removeLocked(c)
		}
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.close()
}

type client struct {
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient() *client {
	return &client{
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readPump discards anything the client sends and notices when it goes away
func (h *Hub) readPump(c *client, conn *websocket.Conn) {
	defer h.remove(c)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("WebSocket error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("Failed to write message", "error", err)
				h.remove(c)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}

		case <-c.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
