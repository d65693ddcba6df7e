package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

// Message is the envelope sent to websocket clients
type Message struct {
	Type      string          `json:"type"`
	Seq       uint64          `json:"seq"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Message types
const (
	MsgCatalogChange = "catalog.change"
	MsgHello         = "hello"
)

// Hub maintains connected clients and broadcasts catalog changes to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *zap.Logger
}

// Ensure it implements the interface
var _ ports.ChangePublisher = (*Hub)(nil)

// NewHub creates a new websocket hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run starts the hub's message processing loop until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", zap.String("remote", client.remote))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected", zap.String("remote", client.remote))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; drop it rather than stall the feed
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropping slow websocket client", zap.String("remote", client.remote))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues a change for every connected client
func (h *Hub) Publish(change domain.CatalogChange) {
	data, err := json.Marshal(change)
	if err != nil {
		h.logger.Error("failed to marshal change", zap.Error(err))
		return
	}
	h.broadcast <- mustMarshal(h.logger, Message{
		Type:      MsgCatalogChange,
		Seq:       change.Seq,
		Data:      data,
		Timestamp: change.Time,
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func mustMarshal(logger *zap.Logger, v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to marshal message", zap.Error(err))
		return []byte("{}")
	}
	return b
}
