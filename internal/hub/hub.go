// Package hub fans detected punts out to websocket subscribers.
package hub

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andrew-shackelford/Surrender-Index/internal/consumer"
	"github.com/andrew-shackelford/Surrender-Index/pkg/models"
)

// MessageSource supplies punt events from the stream.
type MessageSource interface {
	ConsumeStream(ctx context.Context, streamKey string) (<-chan consumer.Message, <-chan error)
	AckMessage(ctx context.Context, streamKey, messageID string) error
}

// Hub maintains the set of active clients and broadcasts punts to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.PuntEvent
	register   chan *Client
	unregister chan *Client

	totalConnections int64
	totalBroadcasts  int64
	metricsMu        sync.Mutex

	logger *zap.SugaredLogger
}

// NewHub creates a new Hub instance
func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.PuntEvent, 1000),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Infow("Hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case event := <-h.broadcast:
			h.broadcastPunt(event)
		}
	}
}

// Feed consumes punt events from the stream and broadcasts them until the
// context is canceled.
func (h *Hub) Feed(ctx context.Context, source MessageSource, streamKey string) {
	messageCh, errorCh := source.ConsumeStream(ctx, streamKey)

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-errorCh:
			if err != nil {
				h.logger.Errorw("Stream error", "error", err)
			}

		case msg, ok := <-messageCh:
			if !ok {
				return
			}
			h.Broadcast(msg.Event)
			if err := source.AckMessage(ctx, msg.StreamKey, msg.ID); err != nil {
				h.logger.Errorw("Failed to ack message", "message_id", msg.ID, "error", err)
			}
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Broadcast queues a punt for delivery to all matching clients
func (h *Hub) Broadcast(event models.PuntEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warnw("Broadcast buffer full, dropping punt",
			"game_id", event.GameID,
			"drive_id", event.DriveID)
	}
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.incrementTotalConnections()

	h.logger.Infow("Client connected", "client_id", c.ID, "total", len(h.clients))
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		h.logger.Infow("Client disconnected", "client_id", c.ID, "total", len(h.clients))
	}
}

// broadcastPunt sends a punt to every client whose filter matches
func (h *Hub) broadcastPunt(event models.PuntEvent) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := models.ServerMessage{
		Type:      models.MessageTypePunt,
		Payload:   event,
		Timestamp: time.Now(),
	}

	sent := 0
	for _, c := range clients {
		if !c.MatchesFilter(event) {
			continue
		}

		if c.TrySend(message) {
			sent++
		} else {
			// Buffer full: the client is too slow, disconnect it
			h.logger.Warnw("Client buffer full, disconnecting", "client_id", c.ID)
			go h.Unregister(c)
		}
	}

	if sent > 0 {
		h.incrementTotalBroadcasts()
	}
}

// Metrics returns hub metrics
func (h *Hub) Metrics() map[string]interface{} {
	h.clientsMu.RLock()
	activeClients := len(h.clients)
	h.clientsMu.RUnlock()

	h.metricsMu.Lock()
	totalConnections := h.totalConnections
	totalBroadcasts := h.totalBroadcasts
	h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":     activeClients,
		"total_connections":  totalConnections,
		"total_broadcasts":   totalBroadcasts,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.logger.Infow("Shutting down hub", "active_clients", len(h.clients))

	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
}

func (h *Hub) incrementTotalConnections() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalConnections++
}

func (h *Hub) incrementTotalBroadcasts() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalBroadcasts++
}
