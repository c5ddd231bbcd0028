package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/typing-racer/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Deadline for service calls made on behalf of a client
	requestTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		return true
	},
}

// Client represents a WebSocket client connection
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		id:     uuid.New().String(),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		logger: logger,
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			c.logger.Warn("invalid message format", "error", err)
			c.sendError("invalid message format")
			continue
		}

		c.handleMessage(&msg)
	}
}

// handleMessage processes incoming client messages
func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeSubmitScore:
		c.handleSubmit(msg.Data)

	case MessageTypeGetLeaderboard:
		c.handleGetLeaderboard(msg.Data)

	case MessageTypePing:
		c.sendPong()

	default:
		c.logger.Debug("unknown message type", "type", msg.Type)
	}
}

// handleSubmit validates and persists a race result, replying with exactly
// one score_submitted message.
func (c *Client) handleSubmit(data json.RawMessage) {
	var sub domain.Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		c.sendSubmitReply(SubmitReply{Success: false, Error: "invalid submission payload"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	result, err := c.hub.api.Submit(ctx, sub)
	if err != nil {
		if domain.IsRejection(err) {
			c.sendSubmitReply(SubmitReply{Success: false, Error: err.Error()})
		} else {
			c.logger.Error("submit failed", "error", err, "client_id", c.id)
			c.sendSubmitReply(SubmitReply{Success: false, Error: "internal error"})
		}
		return
	}

	c.sendSubmitReply(SubmitReply{Success: true, ID: result.ID, Score: result.Score})
}

// handleGetLeaderboard answers a one-off leaderboard query with a direct
// leaderboard_update to this client only.
func (c *Client) handleGetLeaderboard(data json.RawMessage) {
	req := LeaderboardRequest{Filter: domain.FilterDaily}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			c.sendError("invalid leaderboard request")
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	entries, err := c.hub.api.Query(ctx, req.Filter)
	if err != nil {
		if domain.IsRejection(err) {
			c.sendError(err.Error())
		} else {
			c.logger.Error("leaderboard query failed", "error", err, "client_id", c.id)
			c.sendError("internal error")
		}
		return
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		c.logger.Error("failed to marshal leaderboard", "error", err)
		return
	}
	c.sendMessage(Message{
		Type:      MessageTypeLeaderboardUpdate,
		Data:      payload,
		Timestamp: time.Now(),
	})
}

// writePump pumps messages from the hub to the WebSocket connection
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

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendMessage queues a message for this client, dropping it if the buffer
// is full.
func (c *Client) sendMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to marshal message", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// sendSubmitReply sends the score_submitted response
func (c *Client) sendSubmitReply(reply SubmitReply) {
	payload, err := json.Marshal(reply)
	if err != nil {
		c.logger.Error("failed to marshal submit reply", "error", err)
		return
	}
	c.sendMessage(Message{
		Type:      MessageTypeScoreSubmitted,
		Data:      payload,
		Timestamp: time.Now(),
	})
}

// sendError sends an error message to the client
func (c *Client) sendError(errMsg string) {
	payload, _ := json.Marshal(map[string]string{"error": errMsg})
	c.sendMessage(Message{
		Type:      MessageTypeError,
		Data:      payload,
		Timestamp: time.Now(),
	})
}

// sendPong sends a pong response
func (c *Client) sendPong() {
	c.sendMessage(Message{
		Type:      MessageTypePong,
		Timestamp: time.Now(),
	})
}

// ServeWs handles WebSocket requests from peers
func ServeWs(hub *Hub, logger *slog.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(hub, conn, logger)
	hub.Register(client)

	// Start client goroutines
	go client.writePump()
	go client.readPump()

	logger.Debug("new websocket connection", "client_id", client.id)
}
