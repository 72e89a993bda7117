// Package transporttest provides an in-memory Transport implementation for
// exercising pkg/bowler without a real serial line.
//
// Grounded on internal/minitunnel's test harness (minitunnel_test.go),
// which dials a real net.Pipe pair to drive its multiplexer end to end
// without a network. LoopTransport does the same: a net.Pipe gives one
// side to the device under test and keeps the other end, Peer, for the
// test to read raw bytes from and write canned device replies onto.
package transporttest

import (
	"net"
	"sync"
)

// LoopTransport implements bowler.Transport over one end of an in-process
// net.Pipe. The other end is exposed as Peer for the test to drive.
type LoopTransport struct {
	conn net.Conn
	peer net.Conn

	mu      sync.Mutex
	onChunk func([]byte)
	onErr   func(error)

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a LoopTransport. Open() must be called before use.
func New() *LoopTransport {
	a, b := net.Pipe()
	return &LoopTransport{conn: a, peer: b, done: make(chan struct{})}
}

// Open starts the background read loop feeding OnRawChunk.
func (lt *LoopTransport) Open() error {
	go lt.readLoop()
	return nil
}

// Write sends b to the peer side of the pipe. Like any net.Pipe write, it
// returns only once the peer side has read all of b.
func (lt *LoopTransport) Write(b []byte) error {
	_, err := lt.conn.Write(b)
	return err
}

// OnRawChunk registers the callback invoked with every chunk read off the
// pipe. Only one callback is supported, matching the Transport contract.
func (lt *LoopTransport) OnRawChunk(fn func([]byte)) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.onChunk = fn
}

// OnError registers the callback invoked when the read loop's underlying
// connection errors out (typically io.EOF after Close).
func (lt *LoopTransport) OnError(fn func(error)) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.onErr = fn
}

// Close shuts down both ends of the pipe. Safe to call more than once.
func (lt *LoopTransport) Close() error {
	var err error
	lt.closeOnce.Do(func() {
		err = lt.conn.Close()
		lt.peer.Close()
		close(lt.done)
	})
	return err
}

// Peer returns the test-facing end of the pipe: writes here arrive at the
// device's OnRawChunk callback, and reads here see bytes the device wrote.
func (lt *LoopTransport) Peer() net.Conn {
	return lt.peer
}

func (lt *LoopTransport) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := lt.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			lt.mu.Lock()
			cb := lt.onChunk
			lt.mu.Unlock()
			if cb != nil {
				cb(chunk)
			}
		}
		if err != nil {
			lt.mu.Lock()
			cb := lt.onErr
			lt.mu.Unlock()
			if cb != nil {
				cb(err)
			}
			return
		}
	}
}
