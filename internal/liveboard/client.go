// Package liveboard is the client side of the leaderboard channel: it
// submits finished races and receives live leaderboard updates. The race
// itself never depends on it; without a server the game still runs.
package liveboard

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/typing-racer/internal/domain"
	"github.com/typing-racer/internal/websocket"
)

const (
	dialTimeout  = 5 * time.Second
	writeTimeout = 5 * time.Second
)

// Client is a websocket client for the leaderboard service.
type Client struct {
	conn   *gws.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	updates chan []domain.RankedRecord
	replies chan websocket.SubmitReply

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the leaderboard websocket endpoint and starts the read
// loop. url is the full ws:// or wss:// address.
func Dial(url string, logger *slog.Logger) (*Client, error) {
	dialer := gws.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to leaderboard: %w", err)
	}

	c := &Client{
		conn:    conn,
		logger:  logger,
		updates: make(chan []domain.RankedRecord, 8),
		replies: make(chan websocket.SubmitReply, 8),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close shuts the connection down. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// Updates delivers leaderboard snapshots, both broadcast and requested.
func (c *Client) Updates() <-chan []domain.RankedRecord {
	return c.updates
}

// Replies delivers one score_submitted reply per SubmitScore call.
func (c *Client) Replies() <-chan websocket.SubmitReply {
	return c.replies
}

// Done is closed when the connection is lost or closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// SubmitScore sends a finished race to the server.
func (c *Client) SubmitScore(sub domain.Submission) error {
	return c.send(websocket.MessageTypeSubmitScore, sub)
}

// RequestLeaderboard asks for the current board; the answer arrives on
// Updates.
func (c *Client) RequestLeaderboard(filter domain.Filter) error {
	return c.send(websocket.MessageTypeGetLeaderboard, websocket.LeaderboardRequest{Filter: filter})
}

func (c *Client) send(msgType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", msgType, err)
	}
	msg := websocket.Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("sending %s: %w", msgType, err)
	}
	return nil
}

// readLoop dispatches server messages until the connection drops.
func (c *Client) readLoop() {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Debug("leaderboard connection closed", "error", err)
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("malformed server message", "error", err)
			continue
		}

		switch msg.Type {
		case websocket.MessageTypeLeaderboardUpdate:
			var entries []domain.RankedRecord
			if err := json.Unmarshal(msg.Data, &entries); err != nil {
				c.logger.Warn("malformed leaderboard update", "error", err)
				continue
			}
			select {
			case c.updates <- entries:
			default:
				// A stale snapshot is worthless; drop it.
			}

		case websocket.MessageTypeScoreSubmitted:
			var reply websocket.SubmitReply
			if err := json.Unmarshal(msg.Data, &reply); err != nil {
				c.logger.Warn("malformed submit reply", "error", err)
				continue
			}
			select {
			case c.replies <- reply:
			default:
			}

		case websocket.MessageTypeError:
			c.logger.Warn("server error message", "data", string(msg.Data))

		case websocket.MessageTypePong:
			// Nothing to do.

		default:
			c.logger.Debug("unknown server message", "type", msg.Type)
		}
	}
}
