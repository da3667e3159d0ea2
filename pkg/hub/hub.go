package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/menta2k/face-analyzer/pkg/processing"
	"github.com/menta2k/face-analyzer/pkg/session"
	"github.com/menta2k/face-analyzer/pkg/types"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	frameMaxPx = 640
)

// Upgrader accepts viewers from any origin
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON document sent to viewers
type Message struct {
	Frame     string                  `json:"frame,omitempty"`
	Records   []types.AttributeRecord `json:"records"`
	Total     int                     `json:"total"`
	Processed int                     `json:"processed"`
	Final     bool                    `json:"final,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// Hub fans camera updates out to websocket viewers
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *slog.Logger
}

// New creates a hub; call Run to start it
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("viewer connected", "total", n)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			n := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("viewer disconnected", "total", n)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Warn("failed to send update", "error", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register adds a viewer connection
func (h *Hub) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes and closes a viewer connection
func (h *Hub) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a raw message to every viewer
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// ClientCount returns the number of connected viewers
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Publish encodes a camera update and broadcasts it
func (h *Hub) Publish(u session.Update) error {
	msg := Message{
		Records:   u.Records,
		Total:     u.Total,
		Processed: u.Processed,
		Final:     u.Final,
	}
	if msg.Records == nil {
		msg.Records = []types.AttributeRecord{}
	}
	if u.Err != nil {
		msg.Error = u.Err.Error()
	}
	if u.Frame != nil {
		frame, err := processing.EncodeBase64(u.Frame, "jpg", frameMaxPx, 80)
		if err != nil {
			return fmt.Errorf("failed to encode frame: %w", err)
		}
		msg.Frame = frame
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}
	h.Broadcast(data)
	return nil
}

// Forward publishes every update until ctx is done or a final update is sent
func (h *Hub) Forward(ctx context.Context, updates <-chan session.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-updates:
			if err := h.Publish(u); err != nil {
				h.logger.Warn("failed to publish update", "error", err)
			}
			if u.Final {
				return
			}
		}
	}
}

// ServeWS upgrades the request and keeps the viewer registered until it disconnects
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	h.Register(conn)
	defer h.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
