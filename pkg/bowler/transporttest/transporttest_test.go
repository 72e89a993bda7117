package transporttest

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestLoopTransportDeliversChunksFromPeer(t *testing.T) {
	lt := New()
	defer lt.Close()

	received := make(chan []byte, 1)
	lt.OnRawChunk(func(b []byte) { received <- b })
	if err := lt.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := []byte{0x03, 0xFF, 0x10, 0x00, 0x04}
	go func() {
		lt.Peer().Write(want)
	}()

	select {
	case got := <-received:
		if !bytes.Equal(got, want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for chunk")
	}
}

func TestLoopTransportWriteReachesPeer(t *testing.T) {
	lt := New()
	defer lt.Close()
	if err := lt.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := []byte("ping")
	go func() {
		if err := lt.Write(want); err != nil {
			t.Errorf("Write: %v", err)
		}
	}()

	buf := make([]byte, len(want))
	if _, err := io.ReadFull(lt.Peer(), buf); err != nil {
		t.Fatalf("peer read: %v", err)
	}
	if !bytes.Equal(buf, want) {
		t.Fatalf("got %v, want %v", buf, want)
	}
}

func TestLoopTransportCloseFiresOnError(t *testing.T) {
	lt := New()
	errCh := make(chan error, 1)
	lt.OnError(func(err error) { errCh <- err })
	if err := lt.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	lt.Close()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected a non-nil error after close")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for OnError callback")
	}
}
