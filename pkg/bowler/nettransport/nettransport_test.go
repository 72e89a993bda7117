package nettransport

import (
	"io"
	"net"
	"testing"
	"time"
)

func TestWriteReachesPeer(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	c := New(a)
	if err := c.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	go func() {
		if err := c.Write([]byte("ping")); err != nil {
			t.Errorf("Write: %v", err)
		}
	}()

	buf := make([]byte, 4)
	if _, err := io.ReadFull(b, buf); err != nil {
		t.Fatalf("reading from peer: %v", err)
	}
	if string(buf) != "ping" {
		t.Fatalf("got %q, want %q", buf, "ping")
	}
}

func TestOnRawChunkSeesPeerWrites(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	c := New(a)
	got := make(chan []byte, 1)
	c.OnRawChunk(func(chunk []byte) {
		cp := make([]byte, len(chunk))
		copy(cp, chunk)
		got <- cp
	})
	if err := c.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := b.Write([]byte("pong")); err != nil {
		t.Fatalf("writing from peer: %v", err)
	}

	select {
	case chunk := <-got:
		if string(chunk) != "pong" {
			t.Fatalf("got %q, want %q", chunk, "pong")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for chunk")
	}
}

func TestOnErrorFiresOnClose(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	c := New(a)
	errCh := make(chan error, 1)
	c.OnError(func(err error) { errCh <- err })
	if err := c.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected a non-nil error after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnError")
	}
}
