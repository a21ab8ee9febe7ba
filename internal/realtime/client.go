package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cargo-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client is the server side of one websocket. Writes go through a
// bounded queue drained by writePump, so Send never blocks the caller.
type Client struct {
	id       string
	identity entity.Identity
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	log      *zap.Logger
}

func newClient(conn *websocket.Conn, identity entity.Identity, buffer int, log *zap.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:       id,
		identity: identity,
		conn:     conn,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
		log: log.With(
			zap.String("connection_id", id),
			zap.String("user_id", identity.UserID.String()),
		),
	}
}

func (c *Client) ID() string { return c.id }

// Send queues ev. A closed connection or a full queue is a transport
// failure for this client only.
func (c *Client) Send(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Type, err)
	}

	select {
	case <-c.done:
		return fmt.Errorf("connection %s closed: %w", c.id, entity.ErrTransportFailure)
	default:
	}

	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return fmt.Errorf("connection %s closed: %w", c.id, entity.ErrTransportFailure)
	default:
		return fmt.Errorf("connection %s send queue full: %w", c.id, entity.ErrTransportFailure)
	}
}

// Close stops the pumps and closes the socket. Safe to call repeatedly.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// writePump owns all writes to the socket, including pings.
func (c *Client) writePump(pingInterval, writeTimeout time.Duration) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	defer c.Close()

	for {
		select {
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug("Websocket write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("Websocket ping failed", zap.Error(err))
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump discards client frames and returns once the peer goes away.
// The push channel is one-way; reading is how a close is noticed.
func (c *Client) readPump(pongWait time.Duration) {
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("Websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

// locationPump pushes a simulated position on its own cadence. It shares
// the socket with status broadcasts but nothing else.
func (c *Client) locationPump(interval time.Duration, next func() Location) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Send(LocationEvent(next())); err != nil {
				c.log.Debug("Location update dropped", zap.Error(err))
			}
		case <-c.done:
			return
		}
	}
}
