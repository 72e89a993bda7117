package bowler

import (
	"io"
	"testing"
	"time"

	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry/namespaces/dyio"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/transporttest"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"
)

func noIntrospectNoHeartbeat() Options {
	opts := DefaultOptions()
	opts.IntrospectNamespaces = false
	opts.HeartbeatMS = 0
	opts.RequestTimeoutMS = 500
	return opts
}

// readPeerPacket reads exactly one Bowler frame off the peer side of lt,
// using the 10th byte (offset 9, payload size) to know how much body to read.
func readPeerPacket(t *testing.T, lt *transporttest.LoopTransport) []byte {
	t.Helper()
	header := make([]byte, 15)
	if _, err := readFull(lt, header); err != nil {
		t.Fatalf("reading header: %v", err)
	}
	bodyLen := int(header[9]) - 4
	if bodyLen < 0 {
		t.Fatalf("impossible size byte %d", header[9])
	}
	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		if _, err := readFull(lt, body); err != nil {
			t.Fatalf("reading body: %v", err)
		}
	}
	return append(header, body...)
}

func readFull(lt *transporttest.LoopTransport, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := lt.Peer().Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestPingRoundTrip(t *testing.T) {
	lt := transporttest.New()
	defer lt.Close()

	d := New(lt, noIntrospectNoHeartbeat())
	d.transport.OnRawChunk(d.handleRawChunk)
	d.transport.OnError(d.handleTransportError)
	if err := lt.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	result := make(chan error, 1)
	go func() {
		result <- d.Ping()
	}()

	got := readPeerPacket(t, lt)
	want := []byte{0x03, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x10, 0x00, 0x04, 0x11, '_', 'p', 'n', 'g'}
	if string(got) != string(want) {
		t.Fatalf("got % X, want % X", got, want)
	}

	reply, err := wire.AssemblePacket(wire.AssemblePacketInput{
		MAC:       wire.Broadcast,
		Method:    wire.MethodGet,
		Namespace: "bcs.core",
		RPC:       "_png",
	}, wire.NewAssembler(wire.BodyOffset), d.reg.IDs)
	if err != nil {
		t.Fatalf("assembling reply: %v", err)
	}
	if _, err := lt.Peer().Write(reply); err != nil {
		t.Fatalf("writing reply: %v", err)
	}

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("Ping() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Ping to return")
	}
}

func TestFIFOCorrelation(t *testing.T) {
	lt := transporttest.New()
	defer lt.Close()

	d := New(lt, noIntrospectNoHeartbeat())
	d.transport.OnRawChunk(d.handleRawChunk)
	d.transport.OnError(d.handleTransportError)
	if err := lt.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	ping := d.CommandTo().Namespace("bcs").Namespace("core").RPC("_png")

	var order []int
	done := make(chan struct{}, 2)
	go ping.Async(func(r registry.Result, err error) {
		order = append(order, 1)
		done <- struct{}{}
	})
	readPeerPacket(t, lt)

	go ping.Async(func(r registry.Result, err error) {
		order = append(order, 2)
		done <- struct{}{}
	})
	readPeerPacket(t, lt)

	replyPing := func() []byte {
		b, err := wire.AssemblePacket(wire.AssemblePacketInput{
			MAC: wire.Broadcast, Method: wire.MethodGet, Namespace: "bcs.core", RPC: "_png",
		}, wire.NewAssembler(wire.BodyOffset), d.reg.IDs)
		if err != nil {
			t.Fatalf("assembling reply: %v", err)
		}
		return b
	}

	if _, err := lt.Peer().Write(replyPing()); err != nil {
		t.Fatalf("writing first reply: %v", err)
	}
	if _, err := lt.Peer().Write(replyPing()); err != nil {
		t.Fatalf("writing second reply: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for continuations")
		}
	}

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("continuations fired out of registration order: %v", order)
	}
}

func TestMultiMethodDispatch(t *testing.T) {
	lt := transporttest.New()
	defer lt.Close()

	d := New(lt, noIntrospectNoHeartbeat())
	if err := d.SupportsNamespace(dyio.Contribution()); err != nil {
		t.Fatalf("SupportsNamespace: %v", err)
	}
	d.reg.IDs.Assign(1, dyio.Root)

	d.transport.OnRawChunk(d.handleRawChunk)
	d.transport.OnError(d.handleTransportError)
	if err := lt.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	pwr := d.CommandTo().Namespace("neuronrobotics").Namespace("dyio")

	critDone := make(chan error, 1)
	go func() {
		_, err := pwr.Method("_pwr", wire.MethodCritical).Call(true)
		critDone <- err
	}()

	critPacket := readPeerPacket(t, lt)
	if critPacket[7] != byte(wire.MethodCritical) {
		t.Fatalf("critical call used method byte 0x%02X, want 0x30", critPacket[7])
	}
	if critPacket[9] != 5 || critPacket[15] != 0x01 {
		t.Fatalf("critical call body wrong: % X", critPacket)
	}

	ackReply, err := wire.AssemblePacket(wire.AssemblePacketInput{
		MAC: wire.Broadcast, Method: wire.MethodCritical, Namespace: dyio.Root, RPC: "_pwr",
	}, wire.NewAssembler(wire.BodyOffset), d.reg.IDs)
	if err != nil {
		t.Fatalf("assembling ack: %v", err)
	}
	if _, err := lt.Peer().Write(ackReply); err != nil {
		t.Fatalf("writing ack: %v", err)
	}
	if err := <-critDone; err != nil {
		t.Fatalf("critical call failed: %v", err)
	}

	getDone := make(chan error, 1)
	go func() {
		_, err := pwr.Method("_pwr", wire.MethodGet).Call()
		getDone <- err
	}()

	getPacket := readPeerPacket(t, lt)
	if getPacket[7] != byte(wire.MethodGet) {
		t.Fatalf("get call used method byte 0x%02X, want 0x10", getPacket[7])
	}
	if getPacket[9] != 4 {
		t.Fatalf("get call should have an empty body, got size byte %d", getPacket[9])
	}

	getBody := wire.NewAssembler(wire.BodyOffset)
	getBody.WriteByte(wire.BodyOffset, 0x01) // power state: on
	getReply, err := wire.AssemblePacket(wire.AssemblePacketInput{
		MAC: wire.Broadcast, Method: wire.MethodGet, Namespace: dyio.Root, RPC: "_pwr",
	}, getBody, d.reg.IDs)
	if err != nil {
		t.Fatalf("assembling get reply: %v", err)
	}
	if _, err := lt.Peer().Write(getReply); err != nil {
		t.Fatalf("writing get reply: %v", err)
	}
	if err := <-getDone; err != nil {
		t.Fatalf("get call failed: %v", err)
	}
}

func TestConnectSequencing(t *testing.T) {
	lt := transporttest.New()
	defer lt.Close()

	opts := DefaultOptions()
	opts.IntrospectNamespaces = false
	opts.HeartbeatMS = 0
	opts.RequestTimeoutMS = 500
	d := New(lt, opts)

	connectDone := make(chan error, 1)
	go d.Connect(func(err error) { connectDone <- err })

	for _, rpc := range []string{"_pwr", "_rev", "info"} {
		readPeerPacket(t, lt)
		reply, err := wire.AssemblePacket(wire.AssemblePacketInput{
			MAC: wire.Broadcast, Method: wire.MethodGet, Namespace: "bcs.core", RPC: rpc,
		}, wire.NewAssembler(wire.BodyOffset), d.reg.IDs)
		if err != nil {
			t.Fatalf("assembling %s reply: %v", rpc, err)
		}
		if _, err := lt.Peer().Write(reply); err != nil {
			t.Fatalf("writing %s reply: %v", rpc, err)
		}
	}

	select {
	case err := <-connectDone:
		if err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Connect to finish")
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	lt1, lt2 := transporttest.New(), transporttest.New()
	defer lt1.Close()
	defer lt2.Close()

	d1 := New(lt1, noIntrospectNoHeartbeat())
	d2 := New(lt2, noIntrospectNoHeartbeat())

	if d1.SessionID() == "" || d2.SessionID() == "" {
		t.Fatal("SessionID should never be empty")
	}
	if d1.SessionID() == d2.SessionID() {
		t.Fatal("distinct Devices should not share a session id")
	}
}

func TestCallTimesOutWithoutReply(t *testing.T) {
	lt := transporttest.New()
	defer lt.Close()

	opts := noIntrospectNoHeartbeat()
	opts.RequestTimeoutMS = 20
	d := New(lt, opts)
	if err := lt.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	d.transport.OnRawChunk(d.handleRawChunk)
	d.transport.OnError(d.handleTransportError)
	go io.Copy(io.Discard, lt.Peer()) // accept the request, never reply

	err := d.Ping()
	if err != ErrTimeout {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}
