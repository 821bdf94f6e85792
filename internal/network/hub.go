// Package network provides the WebSocket observer feed. Renderers and other
// external consumers subscribe here; they only ever receive committed
// per-tick snapshots.
package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sablehall/vesper/server/internal/engine"
	"github.com/sablehall/vesper/server/internal/platform/logger"
	"github.com/sablehall/vesper/server/internal/platform/metrics"
)

// Client represents an active WebSocket connection. It holds a Hub ref to
// allow unregister and a Loop ref to route inbound commands.
type Client struct {
	hub           *Hub
	loop          *engine.Loop
	conn          *websocket.Conn
	send          chan []byte
	lastChallenge time.Time
}

// Hub maintains the set of active clients and broadcasts snapshots to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	logger     *logger.Logger
	collector  *metrics.Collector
	sendBuffer int
}

// NewHub initializes a new WebSocket Hub.
func NewHub(log *logger.Logger, collector *metrics.Collector, broadcastBuffer, sendBuffer int) *Hub {
	if broadcastBuffer < 1 {
		broadcastBuffer = 1
	}
	if sendBuffer < 1 {
		sendBuffer = 1
	}
	return &Hub{
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     log,
		collector:  collector,
		sendBuffer: sendBuffer,
	}
}

// Run starts the Hub's main loop. Call in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.collector != nil {
				h.collector.WSConnections.Inc()
			}
			h.logger.Info("New observer connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				if h.collector != nil {
					h.collector.WSConnections.Dec()
				}
				h.logger.Info("Observer disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastHints serializes a committed snapshot and fans it out. Safe to
// call from the simulation loop; a full broadcast queue drops the frame
// rather than blocking a tick.
func (h *Hub) BroadcastHints(hints engine.RenderHints) {
	payload, err := json.Marshal(hints)
	if err != nil {
		h.logger.Error("Failed to serialize RenderHints for broadcast: %v", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("Broadcast queue full, dropping snapshot frame")
	}
}
