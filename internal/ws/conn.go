package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one bidirectional text-message channel to a client.
type Conn interface {
	ID() string
	Send(data []byte) error
	Close() error
}

type clientConn struct {
	id        string
	rawConn   *websocket.Conn
	writeWait time.Duration

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newClientConn(id string, rawConn *websocket.Conn, writeWait time.Duration) *clientConn {
	return &clientConn{id: id, rawConn: rawConn, writeWait: writeWait}
}

func (c *clientConn) ID() string { return c.id }

func (c *clientConn) Send(data []byte) error {
	return c.write(websocket.TextMessage, data)
}

func (c *clientConn) ping() error {
	return c.write(websocket.PingMessage, nil)
}

func (c *clientConn) write(mt int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.writeWait))
	return c.rawConn.WriteMessage(mt, data)
}

// Close is safe to call from the reader, the pinger, the broadcaster and the
// sweeper concurrently; only the first call reaches the socket.
func (c *clientConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.rawConn.Close()
	})
	return c.closeErr
}
