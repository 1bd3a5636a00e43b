// internal/conn/conn.go
package conn

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

const (
	msgSetActiveConversation   = "SET_ACTIVE_CONVERSATION"
	msgClearActiveConversation = "CLEAR_ACTIVE_CONVERSATION"
)

type message struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId,omitempty"`
}

// Conn is the client end of the persistent presence websocket. Writes are
// fire-and-forget announcement frames; inbound traffic is drained only to
// keep the connection's read side healthy.
type Conn struct {
	logger *zap.Logger

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool
}

// Dial connects to the presence websocket, retrying with backoff. A token
// is attached as a bearer header when non-empty.
func Dial(ctx context.Context, url, token string, logger *zap.Logger) (*Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	var ws *websocket.Conn
	err := retry.Do(
		func() error {
			dialed, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
			if err != nil {
				return fmt.Errorf("failed to dial %s: %w", url, err)
			}
			ws = dialed
			return nil
		},
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Info("retrying presence websocket dial",
				zap.Uint("attempt", n),
				zap.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		logger: logger,
		ws:     ws,
	}
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// SetActiveConversation announces the conversation the client has open.
func (c *Conn) SetActiveConversation(ctx context.Context, conversationID string) error {
	return c.write(ctx, message{Type: msgSetActiveConversation, ConversationID: conversationID})
}

// ClearActiveConversation retracts a previous announcement.
func (c *Conn) ClearActiveConversation(ctx context.Context, conversationID string) error {
	return c.write(ctx, message{Type: msgClearActiveConversation, ConversationID: conversationID})
}

func (c *Conn) write(ctx context.Context, msg message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("connection closed")
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write %s: %w", msg.Type, err)
	}
	return nil
}

// Close shuts the websocket down. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	deadline := time.Now().Add(writeWait)
	_ = c.ws.SetWriteDeadline(deadline)
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}

func (c *Conn) readLoop() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// Server-to-client frames carry no announcer state; drain them.
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.logger.Warn("presence websocket read failed", zap.Error(err))
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (c *Conn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		err := c.ws.WriteMessage(websocket.PingMessage, nil)
		c.mu.Unlock()
		if err != nil {
			return
		}
	}
}
