package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/typing-racer/internal/domain"
)

// Message types
const (
	MessageTypeSubmitScore       = "submit_score"
	MessageTypeScoreSubmitted    = "score_submitted"
	MessageTypeGetLeaderboard    = "get_leaderboard"
	MessageTypeLeaderboardUpdate = "leaderboard_update"
	MessageTypePing              = "ping"
	MessageTypePong              = "pong"
	MessageTypeError             = "error"
)

// Message is the wire envelope for every event on the channel.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// SubmitReply is the score_submitted payload: one reply per submit.
type SubmitReply struct {
	Success bool    `json:"success"`
	ID      string  `json:"id,omitempty"`
	Score   float64 `json:"score,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// LeaderboardRequest is the get_leaderboard payload.
type LeaderboardRequest struct {
	Filter domain.Filter `json:"filter"`
}

// ScoreAPI is the slice of the leaderboard service the channel needs.
type ScoreAPI interface {
	Submit(ctx context.Context, sub domain.Submission) (*domain.SubmitResult, error)
	Query(ctx context.Context, filter domain.Filter) ([]domain.RankedRecord, error)
}

// Hub maintains the set of active clients and broadcasts leaderboard
// updates to all of them.
type Hub struct {
	// All connected clients
	clients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Outbound broadcast messages
	broadcast chan *Message

	// Mutex for thread-safe operations
	mu sync.RWMutex

	api    ScoreAPI
	logger *slog.Logger

	// Context for shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a new Hub serving the given score API.
func NewHub(api ScoreAPI, logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		api:        api,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

// broadcastMessage sends a message to every connected client. A client with
// a full buffer is skipped rather than blocking the fan-out.
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("client buffer full, skipping", "client_id", client.id)
		}
	}
}

// BroadcastLeaderboard sends a ranked leaderboard to all connected clients.
// Implements service.Broadcaster.
func (h *Hub) BroadcastLeaderboard(filter domain.Filter, entries []domain.RankedRecord) {
	data, err := json.Marshal(entries)
	if err != nil {
		h.logger.Error("failed to marshal leaderboard", "error", err)
		return
	}
	message := &Message{
		Type:      MessageTypeLeaderboardUpdate,
		Data:      data,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub. A no-op once the hub has stopped, so
// connection goroutines never block on a dead loop.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// GetTotalConnections returns the total number of connected clients
func (h *Hub) GetTotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
