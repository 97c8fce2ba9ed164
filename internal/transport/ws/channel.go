package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrChannelFull reports a dropped message on a slow consumer.
var ErrChannelFull = errors.New("ws: send buffer full")

// Channel is the write side of one websocket session. All writes go through
// a buffered queue drained by a single writer goroutine, so Send is safe
// from any goroutine, never blocks the caller, and becomes a no-op once the
// session is closed.
type Channel struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func newChannel(conn *websocket.Conn, buffer int) *Channel {
	if buffer < 1 {
		buffer = 1
	}
	return &Channel{
		conn: conn,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// Send queues a payload for delivery. A closed channel accepts and discards
// silently; a full buffer drops the payload and reports ErrChannelFull.
func (c *Channel) Send(payload []byte) error {
	select {
	case <-c.done:
		return nil
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return nil
	default:
		return ErrChannelFull
	}
}

func (c *Channel) writePump() {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Channel) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
