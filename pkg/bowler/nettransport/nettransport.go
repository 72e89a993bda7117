// Package nettransport implements bowler.Transport over a net.Conn,
// letting cmd/bowlerdemo (and any other consumer) drive a real device
// reachable over TCP or a Unix socket instead of a physical serial line.
//
// Grounded on internal/ron/server.go's DialSerial: dial, hand the
// resulting net.Conn to a background read loop, and reconnect is left to
// the caller rather than built in here, the same division of
// responsibility ron's Server keeps between dial and handshake.
package nettransport

import (
	"net"
	"sync"
)

// Conn implements bowler.Transport over an already-dialed net.Conn.
type Conn struct {
	conn net.Conn

	mu      sync.Mutex
	onChunk func([]byte)
	onErr   func(error)

	closeOnce sync.Once
}

// Dial connects to network/address (e.g. "tcp", "host:port", or "unix",
// "/path/to/socket") and wraps the resulting connection.
func Dial(network, address string) (*Conn, error) {
	c, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	return New(c), nil
}

// New wraps an already-connected net.Conn.
func New(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

// Open starts the background read loop feeding OnRawChunk. The
// connection is already established by Dial/New, so Open only has to
// start the reader; it is safe to call exactly once, as Device.Connect
// does.
func (c *Conn) Open() error {
	go c.readLoop()
	return nil
}

// Write sends b to the remote device.
func (c *Conn) Write(b []byte) error {
	_, err := c.conn.Write(b)
	return err
}

// OnRawChunk registers the callback invoked with every chunk read off the
// connection.
func (c *Conn) OnRawChunk(fn func([]byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChunk = fn
}

// OnError registers the callback invoked when the read loop's underlying
// connection errors out.
func (c *Conn) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onErr = fn
}

// Close shuts down the connection. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

func (c *Conn) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.mu.Lock()
			cb := c.onChunk
			c.mu.Unlock()
			if cb != nil {
				cb(chunk)
			}
		}
		if err != nil {
			c.mu.Lock()
			cb := c.onErr
			c.mu.Unlock()
			if cb != nil {
				cb(err)
			}
			return
		}
	}
}
