package server

import (
	"net"
	"time"

	"github.com/google/uuid"
)

// outboundBuffer is the per-client queue depth for encoded frames. A client
// that falls this far behind is evicted rather than allowed to stall the
// broadcaster.
const outboundBuffer = 32

// client is one connected player's transport state. The read loop is the
// connection's sole reader; the write loop is its sole writer. Frames are
// handed to the write loop through the outbound channel, which is enqueued
// to only under the server's client-table lock and closed exactly once when
// the client is deregistered.
type client struct {
	// playerID is assigned at handshake; 0 until then.
	playerID int
	// connID correlates log lines before and after the handshake.
	connID uuid.UUID
	conn   net.Conn

	outbound     chan []byte
	writeTimeout time.Duration
}

func newClient(conn net.Conn, writeTimeout time.Duration) *client {
	return &client{
		connID:       uuid.New(),
		conn:         conn,
		outbound:     make(chan []byte, outboundBuffer),
		writeTimeout: writeTimeout,
	}
}

// enqueue hands a frame to the write loop without blocking.
//
// Precondition: the caller holds the server's client-table lock, and the
// client is still registered (its outbound channel is open).
// Postcondition: Returns false if the client's buffer is full.
func (c *client) enqueue(frame []byte) bool {
	select {
	case c.outbound <- frame:
		return true
	default:
		return false
	}
}

// writeLoop drains the outbound channel onto the socket. It exits when the
// channel is closed or a write fails; on failure it closes the socket so the
// read loop observes the disconnect and runs cleanup.
func (c *client) writeLoop() {
	broken := false
	for frame := range c.outbound {
		if broken {
			// Keep draining so the closer never blocks on a full buffer.
			continue
		}
		if c.writeTimeout > 0 {
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		}
		if _, err := c.conn.Write(frame); err != nil {
			_ = c.conn.Close()
			broken = true
		}
	}
}
