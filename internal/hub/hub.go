// Package hub fans delivery job updates out to WebSocket subscribers.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/makolaonline/whatsapp-router/internal/domain"
)

// BoardChannel receives every job update.
const BoardChannel = "board"

// Connection represents a single WebSocket connection.
type Connection struct {
	ID      string
	Channel string
	Conn    *websocket.Conn
	Send    chan []byte
	hub     *Hub
	mu      sync.Mutex
}

// Hub manages all WebSocket connections.
type Hub struct {
	// Connections indexed by connection ID
	connections map[string]*Connection

	// Channels maps a channel name to its set of connection IDs
	channels map[string]map[string]bool

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *ChannelMessage
	done       chan struct{}

	logger *slog.Logger
	mu     sync.RWMutex
}

// ChannelMessage is used to broadcast a message to a channel.
type ChannelMessage struct {
	Channel string
	Data    []byte
}

// JobUpdate is the frame pushed to subscribers for each job event.
type JobUpdate struct {
	Type  string              `json:"type"`
	Event domain.JobEvent     `json:"event"`
	Job   *domain.DeliveryJob `json:"job,omitempty"`
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		connections: make(map[string]*Connection),
		channels:    make(map[string]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *ChannelMessage, 256),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// Run starts the hub's main loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, conn := range h.connections {
				delete(h.connections, id)
				close(conn.Send)
			}
			h.channels = make(map[string]map[string]bool)
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if conn.Channel != "" {
				if h.channels[conn.Channel] == nil {
					h.channels[conn.Channel] = make(map[string]bool)
				}
				h.channels[conn.Channel][conn.ID] = true
			}
			h.mu.Unlock()
			h.logger.Debug("connection registered", "conn_id", conn.ID, "channel", conn.Channel)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				h.removeFromChannel(conn)
				close(conn.Send)
			}
			h.mu.Unlock()
			h.logger.Debug("connection unregistered", "conn_id", conn.ID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for connID := range h.channels[msg.Channel] {
				conn, exists := h.connections[connID]
				if !exists {
					continue
				}
				select {
				case conn.Send <- msg.Data:
				default:
					h.logger.Warn("connection buffer full, closing", "conn_id", connID)
					go h.Unregister(conn)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) removeFromChannel(conn *Connection) {
	if conn.Channel == "" || h.channels[conn.Channel] == nil {
		return
	}
	delete(h.channels[conn.Channel], conn.ID)
	if len(h.channels[conn.Channel]) == 0 {
		delete(h.channels, conn.Channel)
	}
}

// NewConnection creates a new connection subscribed to channel.
func (h *Hub) NewConnection(ws *websocket.Conn, channel string) *Connection {
	return &Connection{
		ID:      uuid.New().String(),
		Channel: channel,
		Conn:    ws,
		Send:    make(chan []byte, 256),
		hub:     h,
	}
}

// Register registers a connection with the hub.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Unregister unregisters a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Broadcast sends a message to all connections of a channel.
func (h *Hub) Broadcast(channel string, data []byte) {
	select {
	case h.broadcast <- &ChannelMessage{Channel: channel, Data: data}:
	case <-h.done:
	}
}

// BroadcastJSON sends a JSON message to all connections of a channel.
func (h *Hub) BroadcastJSON(channel string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(channel, data)
	return nil
}

// Notify pushes a job event to the board and to the assigned rider's channel.
func (h *Hub) Notify(ctx context.Context, event domain.JobEvent, job *domain.DeliveryJob) {
	data, err := json.Marshal(JobUpdate{Type: "job_event", Event: event, Job: job})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode job update", "job_id", event.JobID, "error", err)
		return
	}
	h.Broadcast(BoardChannel, data)
	if job != nil && job.RiderID != nil && *job.RiderID != BoardChannel {
		h.Broadcast(*job.RiderID, data)
	}
}

// GetConnectionCount returns the number of active connections.
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// HasSubscribers checks if a channel has any active connections.
func (h *Hub) HasSubscribers(channel string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	connIDs, ok := h.channels[channel]
	return ok && len(connIDs) > 0
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the connection.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
