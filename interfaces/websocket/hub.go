// Package websocket implements the relay: a hub that holds the
// authoritative shared document for a session and fans change batches
// out to every connected client.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	gorilla "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tripgraph/infrastructure/config"
	"tripgraph/infrastructure/memory"
	"tripgraph/infrastructure/observability"
	"tripgraph/pkg/wire"
)

// inbound pairs a received batch with its sender so the fan-out can
// skip echoing it back.
type inbound struct {
	sender *Client
	msg    *wire.Message
}

// Hub maintains active WebSocket connections, applies incoming batches
// to its document copy, and rebroadcasts them to the other clients.
type Hub struct {
	doc *memory.Document
	cfg config.RelayConfig

	clients map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound

	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	metrics  *observability.Collector
	upgrader gorilla.Upgrader
}

// NewHub creates a hub over an in-memory document. A nil metrics
// collector disables instrumentation.
func NewHub(doc *memory.Document, cfg config.RelayConfig, logger *zap.Logger, metrics *observability.Collector) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		doc:        doc,
		cfg:        cfg,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		inbound:    make(chan inbound, 256),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		metrics:    metrics,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Run starts the hub's main event loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("Hub shutting down")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case in := <-h.inbound:
			h.handleBatch(in)
		}
	}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}

// ServeHTTP upgrades the request and starts a client's pumps
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	count := len(h.clients)
	h.mu.RUnlock()

	if count >= h.cfg.MaxConnections {
		h.logger.Warn("Connection rejected, hub full",
			zap.Int("maxConnections", h.cfg.MaxConnections),
		)
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	NewClient(h, conn, h.logger).Start()
}

// registerClient adds a connection and sends it the full document
// state so a late joiner converges without replaying history.
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.HubConnections.Inc()
	}

	entities, trip, hasTrip := h.doc.Snapshot()
	if !hasTrip {
		trip = nil
	}
	data, err := json.Marshal(wire.NewStateMessage(entities, trip))
	if err != nil {
		h.logger.Error("Failed to marshal state message", zap.Error(err))
	} else {
		client.enqueue(data)
	}

	h.logger.Info("Client registered",
		zap.String("connectionID", client.id),
		zap.Int("totalConnections", total),
	)
}

// unregisterClient removes a connection
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	if h.metrics != nil {
		h.metrics.HubConnections.Dec()
	}

	h.logger.Info("Client unregistered",
		zap.String("connectionID", client.id),
		zap.Int("remainingConnections", len(h.clients)),
	)
}

// handleBatch applies one incoming batch to the hub's document and
// forwards it to every client except the sender. The document copy is
// what newly joining clients hydrate from.
func (h *Hub) handleBatch(in inbound) {
	if err := h.doc.Apply(in.msg.Batch()); err != nil {
		h.logger.Error("Failed to apply batch",
			zap.Error(err),
			zap.String("connectionID", in.sender.id),
		)
		return
	}

	data, err := json.Marshal(in.msg)
	if err != nil {
		h.logger.Error("Failed to marshal batch message", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if client != in.sender {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.send <- data:
			if h.metrics != nil {
				h.metrics.HubBatchesSent.Inc()
			}
		default:
			// Send buffer full; drop the connection rather than
			// block the hub loop. The client rejoins and rehydrates.
			h.logger.Warn("Closing slow client",
				zap.String("connectionID", client.id),
			)
			go func(c *Client) {
				h.unregister <- c
				c.conn.Close()
			}(client)
		}
	}

	h.logger.Debug("Batch relayed",
		zap.String("connectionID", in.sender.id),
		zap.Int("put", len(in.msg.Put)),
		zap.Int("delete", len(in.msg.Delete)),
		zap.Int("targets", len(targets)),
	)
}

// closeAllClients closes all active connections during shutdown
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		client.conn.Close()
	}
	h.clients = make(map[*Client]bool)
}
