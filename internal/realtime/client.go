package realtime

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 16
)

// Client is one websocket connection. Room membership lives on the hub; the
// client only carries its send queue and the set of rooms it joined.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan OutboundMessage
	rooms  map[string]struct{}
	logger *zap.Logger
}

// NewClient wraps a connection. conn may be nil in tests that drive the hub
// directly through Join and the send channel.
func NewClient(hub *Hub, conn *websocket.Conn, logger *zap.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan OutboundMessage, sendBufferSize),
		rooms:  make(map[string]struct{}),
		logger: logger,
	}
}

// Send exposes the outbound queue for the write pump and for tests.
func (c *Client) Send() <-chan OutboundMessage {
	return c.send
}

// readPump consumes join/leave frames until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		if msg.TicketID == "" {
			continue
		}
		switch msg.Type {
		case inboundJoinTicket:
			c.hub.Join(msg.TicketID, c)
		case inboundLeaveTicket:
			c.hub.Leave(msg.TicketID, c)
		}
	}
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
