package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/voxlink/huddle/internal/core"
	"github.com/voxlink/huddle/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// WSConn is an indirection over *websocket.Conn to ease testing.
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Conn is one live transport endpoint. It owns a buffered send channel;
// a full buffer drops the frame instead of blocking the sender.
type Conn struct {
	id        domain.ConnID
	handshake core.Handshake
	conn      WSConn
	send      chan []byte

	mu     sync.Mutex
	closed bool
}

func NewConn(id domain.ConnID, hs core.Handshake, conn WSConn) *Conn {
	return &Conn{
		id:        id,
		handshake: hs,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
	}
}

func (c *Conn) ID() domain.ConnID         { return c.id }
func (c *Conn) Handshake() core.Handshake { return c.handshake }

func (c *Conn) TrySend(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

// writePump drains the send channel to the network. It owns the transport
// resource and closes it on exit.
func (c *Conn) writePump(ctx context.Context) {
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Error().Err(err).Str("module", "ws").Str("conn", string(c.id)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Str("conn", string(c.id)).Msg("writePump write error")
				return
			}
		}
	}
}
