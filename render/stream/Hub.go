// Package stream streams hill racing snapshots to websocket viewers
// and collects the motor commands viewers send back
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samuelfneumann/hillracing/environment/box2d/hillracing"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Snapshots queued for broadcast. Further snapshots are dropped
	// until the queue drains.
	queueSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is sent to viewers after every rendered step
type Message struct {
	Event    string               `json:"event"`
	Snapshot *hillracing.Snapshot `json:"snapshot,omitempty"`
}

// Control is sent by viewers to drive the car. Action is one of
// "gas", "reverse", or "idle".
type Control struct {
	Action string `json:"action"`
}

// Client is a websocket viewer
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active viewers and broadcasts snapshots to
// them. Hub implements hillracing.Renderer.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	command hillracing.Command

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		command:    hillracing.Idle,
		broadcast:  make(chan []byte, queueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop, which runs until ctx is done. Run
// must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// ServeWS handles websocket requests from viewers
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Render queues the snapshot for broadcast to all viewers. If viewers
// are lagging behind the queue, the snapshot is dropped.
func (h *Hub) Render(s hillracing.Snapshot) error {
	data, err := json.Marshal(Message{Event: "snapshot", Snapshot: &s})
	if err != nil {
		return fmt.Errorf("render: %v", err)
	}

	select {
	case h.broadcast <- data:
	default:
	}
	return nil
}

// LatestCommand returns the last motor command sent by any viewer
func (h *Hub) LatestCommand() hillracing.Command {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.command
}

// Clients returns the number of connected viewers
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) setCommand(c hillracing.Command) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.command = c
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true

	log.Printf("Viewer connected (total viewers: %d)", len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		log.Printf("Viewer disconnected (remaining viewers: %d)",
			len(h.clients))
	}
}

func (h *Hub) broadcastMessage(message []byte) {
	h.mu.RLock()
	var slow []*Client
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.unregisterClient(client)
	}
}

// ParseCommand returns the motor command named by action
func ParseCommand(action string) (hillracing.Command, error) {
	for _, c := range []hillracing.Command{
		hillracing.Idle, hillracing.Gas, hillracing.Reverse,
	} {
		if c.String() == action {
			return c, nil
		}
	}
	return hillracing.Idle, fmt.Errorf("parseCommand: no such action %q",
		action)
}

// readPump reads controls from the websocket connection
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var control Control
		if err := json.Unmarshal(data, &control); err != nil {
			log.Printf("Ignoring malformed control: %v", err)
			continue
		}
		command, err := ParseCommand(control.Action)
		if err != nil {
			log.Printf("Ignoring control: %v", err)
			continue
		}
		c.hub.setCommand(command)
	}
}

// writePump writes queued snapshots to the websocket connection
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
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage,
				message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage,
				nil); err != nil {
				return
			}
		}
	}
}
