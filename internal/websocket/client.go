package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // must stay below pongWait

	// Inbound frames are subscription requests only
	maxMessageSize = 512
)

// Client is one websocket connection of a user. It receives the events of
// the entities in its subscription.
type Client struct {
	id           string
	userID       int32
	conn         *websocket.Conn
	hub          *Hub
	send         chan []byte
	subscription *Subscription
	closed       bool
	mu           sync.RWMutex
	closeOnce    sync.Once
}

// NewClient creates a client subscribed to entities, or to all of them when
// entities is empty
func NewClient(conn *websocket.Conn, userID int32, hub *Hub, entities []EntityType) *Client {
	return &Client{
		id:           uuid.New().String(),
		userID:       userID,
		conn:         conn,
		hub:          hub,
		send:         make(chan []byte, 256),
		subscription: NewSubscription(entities),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) UserID() int32 {
	return c.userID
}

// Subscription returns the entities the client currently receives
func (c *Client) Subscription() []EntityType {
	return c.subscription.Entities()
}

// Wants reports whether the client subscribed to entity
func (c *Client) Wants(entity EntityType) bool {
	return c.subscription.Wants(entity)
}

// Send queues a message for the client. A full buffer counts as a closed client.
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientClosed
	}
}

// Close is safe to call more than once
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		closeErr = c.conn.Close()
	})
	return closeErr
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// handleMessage applies a subscription request and acknowledges it
func (c *Client) handleMessage(data []byte) {
	err := c.subscription.Apply(data)
	if err != nil {
		log.Debug().Err(err).Str("client_id", c.id).Msg("WebSocket subscription request rejected")
	}
	_ = c.Send(newSubscriptionAck(c.subscription.Entities(), err))
}

// ReadPump runs in its own goroutine until the connection fails
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Int32("user_id", c.userID).
					Msg("WebSocket unexpected close")
			}
			return
		}
		if msgType == websocket.TextMessage {
			c.handleMessage(data)
		}
	}
}

// WritePump runs in its own goroutine and owns all writes to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Int32("user_id", c.userID).
					Msg("WebSocket write error")
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
