package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a command sent by the client.
	maxCommandSize = 16384

	// sendBuffer is the number of events queued for a slow browser before new ones are dropped.
	sendBuffer = 256
)

// Client carries one Tab over a WebSocket connection.
type Client struct {
	manager *Manager

	// underlying WebSocket connection object.
	conn *websocket.Conn

	tab *Tab

	// a buffered channel used to queue events waiting to be sent to the browser.
	send chan []byte

	// done is closed once the connection is torn down.
	done      chan struct{}
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc

	// structured logger with tab context.
	logger zerolog.Logger
}

func newClient(m *Manager, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(m.ctx)

	c := &Client{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}

	c.tab = NewTab(m.deps, c.enqueue)
	c.logger = m.logger.With().Str("tab_id", c.tab.ID).Logger()

	return c
}

// Tab returns the tab carried by c.
func (c *Client) Tab() *Tab {
	return c.tab
}

// ReadPump reads commands until the connection fails, then tears the client down.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxCommandSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			return
		}

		c.tab.Handle(raw)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.tab.Close()
	c.manager.unregister(c)
	c.shutdown()
}

// WritePump writes queued events and periodic pings until the client is torn down.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case message := <-c.send:
			if !c.write(websocket.TextMessage, message) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// enqueue marshals ev and queues it. Events for a closed or saturated client are dropped.
func (c *Client) enqueue(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error().Err(err).Str("event", string(ev.Type)).Msg("Error marshaling event")
		return
	}

	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping event")
	}
}

// Kick sends a close frame with code and reason, then tears the client down.
func (c *Client) Kick(code int, reason string) {
	c.logger.Info().Int("close_code", code).Str("reason", reason).Msg("Closing connection.")

	closeMessage := websocket.FormatCloseMessage(code, reason)
	if err := c.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to send close message.")
	}

	c.shutdown()
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error")
		}
	})
}
