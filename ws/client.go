package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"card-session-server/matchmaking"
	"card-session-server/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// How long a requeue waits for the previous session to tear down.
	requeueWait = 5 * time.Second
)

// Client is a middleman between the websocket connection and the session
// router.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	ID     protocol.ConnectionID
	Name   string
	UserID string

	limiter *rate.Limiter
	logger  *slog.Logger
}

func (c *Client) player() matchmaking.Player {
	return matchmaking.Player{Conn: c.ID, Name: c.Name, UserID: c.UserID, Send: c.Send}
}

// ReadPump pumps intents from the websocket connection to the router.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("read error", "err", err)
			}
			break
		}
		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage routes one inbound frame. Malformed, throttled and rejected
// intents are dropped without a reply.
func (c *Client) handleMessage(data []byte) {
	if c.limiter != nil && !c.limiter.Allow() {
		c.logger.Debug("intent throttled")
		return
	}
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		c.logger.Debug("bad envelope", "err", err)
		return
	}
	if env.Tag == protocol.IntentRequeue {
		go c.requeue()
		return
	}
	action, err := ToAction(env)
	if err != nil {
		c.logger.Debug("bad intent", "intent", env.Tag, "err", err)
		return
	}
	if err := c.Hub.Router.Post(c.ID, action); err != nil {
		c.logger.Debug("intent not routed", "intent", env.Tag, "err", err)
	}
}

func (c *Client) requeue() {
	ctx, cancel := context.WithTimeout(context.Background(), requeueWait)
	defer cancel()
	if _, err := c.Hub.Router.Requeue(ctx, c.player()); err != nil {
		c.logger.Info("requeue refused", "err", err)
	}
}
