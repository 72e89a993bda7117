// Package bowler is the command dispatcher: it marries outgoing RPC
// calls to incoming responses by firing a one-shot listener
// keyed on "<recv_method>:<namespace>#<rpc>", the only correlation the
// wire protocol offers.
//
// Grounded on internal/qmp.Conn's messageSync/messageAsync channel split,
// generalized from QMP's single-call-in-flight assumption to a
// string-keyed FIFO (pendingByKey) because Bowler's RPC surface allows
// many distinct calls in flight at once, and on internal/ron.Ron's
// mutex-guarded shared maps (r.commandLock over r.commands/r.clients) for
// the ownership discipline protecting that FIFO from concurrent callers.
package bowler

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neuronrobotics/bowlerhost/pkg/bowler/bowlerlog"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/events"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/heartbeat"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/introspect"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry/namespaces/bcscore"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry/namespaces/bcsrpc"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"
)

var log = bowlerlog.Named("bowler")

// Options configures a Device. The zero value is not usable directly;
// call DefaultOptions and override fields as needed.
type Options struct {
	// IntrospectNamespaces runs the `_nms` namespace walk during Connect.
	IntrospectNamespaces bool
	// IntrospectRPCs additionally runs the `_rpc`/`args` walk per
	// namespace. Requires bcs.rpc to be present on the device.
	IntrospectRPCs bool
	// HeartbeatMS is the period of the periodic bcs.core._png liveness
	// check. Zero disables the heartbeat entirely.
	HeartbeatMS uint32
	// RequestTimeoutMS bounds how long a call waits for its matching
	// reply before its continuation receives ErrTimeout.
	RequestTimeoutMS uint32
	// MAC addresses the target device. DefaultOptions sets it to
	// wire.Broadcast; the zero value is the all-zero address.
	MAC wire.MAC
	// MaxPacketSize bounds the framer's packet allocation. Zero uses the
	// framer's own default.
	MaxPacketSize int
}

// DefaultOptions returns the documented defaults: namespace introspection
// on, RPC introspection off, a 3s heartbeat, and a 2s request timeout.
func DefaultOptions() Options {
	return Options{
		IntrospectNamespaces: true,
		IntrospectRPCs:       false,
		HeartbeatMS:          3000,
		RequestTimeoutMS:     2000,
		MAC:                  wire.Broadcast,
	}
}

type pendingCall struct {
	key     string
	timer   *time.Timer
	deliver func(registry.Result, error)
}

// Device is a single connection to one physical Bowler device. It owns
// the registry, the namespace id table, and the pending-call FIFO. mu
// guards the pending-call FIFO and the connected flag, and SupportsNamespace
// also holds it while importing into the registry; introspection during
// Connect updates the registry and id table without taking mu.
type Device struct {
	sessionID string
	transport Transport
	opts      Options
	reg       *registry.Registry
	framer    *wire.Framer
	bus       *events.Bus
	hb        *heartbeat.Heartbeat

	mu           sync.Mutex
	pendingByKey map[string][]*pendingCall
	connected    bool

	writeMu sync.Mutex

	rootMu sync.Mutex
	root   *CommandHandle
}

// New creates a Device bound to transport, with bcs.core and bcs.rpc
// already imported so the handshake, introspection, and heartbeat RPCs
// this package issues internally always resolve.
func New(transport Transport, opts Options) *Device {
	reg := registry.New()
	reg.IDs.Assign(0, bcscore.Root)
	if err := reg.ImportNamespace(bcscore.Contribution()); err != nil {
		panic("bowler: built-in bcs.core contribution rejected: " + err.Error())
	}
	if err := reg.ImportNamespace(bcsrpc.Contribution()); err != nil {
		panic("bowler: built-in bcs.rpc contribution rejected: " + err.Error())
	}

	d := &Device{
		sessionID:    uuid.NewString(),
		transport:    transport,
		opts:         opts,
		reg:          reg,
		framer:       wire.NewFramer(opts.MaxPacketSize),
		bus:          events.New(),
		pendingByKey: map[string][]*pendingCall{},
	}
	d.hb = heartbeat.New(d, time.Duration(opts.HeartbeatMS)*time.Millisecond)
	return d
}

// SupportsNamespace merges a statically-provided namespace contribution
// (bcsio.Contribution(), dyio.Contribution(), ...) into the registry. Safe
// to call before or after Connect; either way it invalidates the cached
// command-handle tree.
func (d *Device) SupportsNamespace(c registry.Contribution) error {
	d.mu.Lock()
	err := d.reg.ImportNamespace(c)
	d.mu.Unlock()
	if err != nil {
		return err
	}
	d.invalidateCommandTree()
	return nil
}

// SessionID identifies this Device instance in log output. It has no
// meaning on the wire; it exists only to tell apart concurrent Devices in
// a process that drives more than one.
func (d *Device) SessionID() string {
	return d.sessionID
}

// Events returns the public event bus Device.On/Device.Once subscribe
// through. Every correlated reply additionally fires here, keyed
// "<method>:<namespace>#<rpc>", independent of the one-shot continuation
// that receives it synchronously or asynchronously via Call/Async.
func (d *Device) Events() *events.Bus {
	return d.bus
}

// On subscribes to every future event fired for (method, namespace, rpc),
// carrying the parsed registry.Result.
func (d *Device) On(method wire.Method, namespace, rpc string) *events.Subscription {
	return d.bus.Subscribe(eventKey(method, namespace, rpc))
}

// Once subscribes to the next event fired for (method, namespace, rpc).
func (d *Device) Once(method wire.Method, namespace, rpc string) <-chan interface{} {
	return d.bus.Once(eventKey(method, namespace, rpc))
}

// Connect opens the transport, wires the framing parser to it, optionally
// introspects the device, starts the heartbeat, and performs the
// power/revision/info resync, then invokes done. done is called
// exactly once, with a non-nil error if any step failed.
func (d *Device) Connect(done func(error)) {
	d.mu.Lock()
	if d.connected {
		d.mu.Unlock()
		done(ErrAlreadyConnected)
		return
	}
	d.connected = true
	d.mu.Unlock()

	d.transport.OnRawChunk(d.handleRawChunk)
	d.transport.OnError(d.handleTransportError)

	if err := d.transport.Open(); err != nil {
		done(fmt.Errorf("bowler: opening transport: %w", err))
		return
	}

	if d.opts.IntrospectNamespaces {
		sess := introspect.NewSession(d, d.reg, introspect.Options{
			IntrospectNamespaces: true,
			IntrospectRPCs:       d.opts.IntrospectRPCs,
		})
		if err := sess.Run(); err != nil {
			done(fmt.Errorf("bowler: introspection: %w", err))
			return
		}
		d.invalidateCommandTree()
	}

	d.hb.Start()

	if _, err := d.callSync(bcscore.Root, "_pwr", wire.MethodGet, false, nil); err != nil {
		done(fmt.Errorf("bowler: resync _pwr: %w", err))
		return
	}
	if _, err := d.callSync(bcscore.Root, "_rev", wire.MethodGet, false, nil); err != nil {
		done(fmt.Errorf("bowler: resync _rev: %w", err))
		return
	}
	if _, err := d.callSync(bcscore.Root, "info", wire.MethodGet, false, nil); err != nil {
		done(fmt.Errorf("bowler: resync info: %w", err))
		return
	}

	done(nil)
}

// Close stops the heartbeat and fails every outstanding call with
// ErrTransportClosed. The transport itself is not closed here: Device
// never owns the transport's lifetime beyond Open and treats it as an
// external collaborator.
func (d *Device) Close() {
	d.hb.Stop()
	d.failAllPending(ErrTransportClosed)
}

// Ping issues a synchronous bcs.core._png call, satisfying
// heartbeat.Pinger.
func (d *Device) Ping() error {
	_, err := d.callSync(bcscore.Root, "_png", wire.MethodGet, false, nil)
	return err
}

// Call implements introspect.Caller: a blocking, no-continuation RPC
// invocation used by the introspection session itself.
func (d *Device) Call(namespace, rpc string, method wire.Method, hasMethod bool, args []interface{}) (registry.Result, error) {
	return d.callSync(namespace, rpc, method, hasMethod, args)
}

func (d *Device) handleTransportError(err error) {
	log.Error("[%s] transport error: %v", d.sessionID, err)
	d.failAllPending(fmt.Errorf("%w: %v", ErrTransportClosed, err))
}

func (d *Device) handleRawChunk(chunk []byte) {
	packets, err := d.framer.Feed(chunk)
	if err != nil {
		log.Warn("[%s] framing resync: %v", d.sessionID, err)
	}
	for _, raw := range packets {
		d.handlePacket(raw)
	}
}

func (d *Device) handlePacket(raw []byte) {
	pkt, err := wire.ParsePacket(raw, d.reg.IDs)
	if err != nil {
		log.Warn("[%s] dropping malformed packet: %v", d.sessionID, err)
		return
	}

	var result registry.Result
	var parseErr error
	if _, rpc, err := d.reg.Resolve(pkt.Namespace, pkt.RPC); err == nil {
		if disp, err := rpc.Call(pkt.Method, true); err == nil && disp.Parser != nil {
			result, parseErr = disp.Parser(pkt.Body)
		} else {
			result, parseErr = registry.Result{Positional: []interface{}{pkt.Body}}, nil
		}
	} else {
		result, parseErr = registry.Result{Positional: []interface{}{pkt.Body}}, nil
	}

	key := eventKey(pkt.Method, pkt.Namespace, pkt.RPC)
	if !d.deliverPending(key, result, parseErr) {
		log.Debug("[%s] spurious reply for %s, no pending listener", d.sessionID, key)
	}
	d.bus.Fire(key, result)
}

func eventKey(method wire.Method, namespace, rpc string) string {
	return fmt.Sprintf("%s:%s#%s", method, namespace, rpc)
}

// callSync performs a blocking RPC call, used both by Device.Call
// (introspection) and by RPCHandle.Call (the leaf handle's synchronous
// call shape).
func (d *Device) callSync(namespace, rpc string, method wire.Method, hasMethod bool, args []interface{}) (registry.Result, error) {
	resultCh := make(chan callResult, 1)
	err := d.send(namespace, rpc, method, hasMethod, args, func(r registry.Result, err error) {
		resultCh <- callResult{r, err}
	})
	if err != nil {
		return registry.Result{}, err
	}
	res := <-resultCh
	return res.result, res.err
}

type callResult struct {
	result registry.Result
	err    error
}

// callAsync performs the continuation-based call shape: it returns as
// soon as the packet is written, and deliver is invoked later, from the
// transport's read path when the matching reply arrives or from the
// timeout timer when the call times out. If sending fails, deliver is
// invoked with that error before callAsync returns.
func (d *Device) callAsync(namespace, rpc string, method wire.Method, hasMethod bool, args []interface{}, deliver func(registry.Result, error)) {
	if err := d.send(namespace, rpc, method, hasMethod, args, deliver); err != nil {
		deliver(registry.Result{}, err)
	}
}

// send resolves the RPC, builds its body, registers deliver against the
// reply's event key, and writes the packet. Registration (under mu)
// finishes before the write (under writeMu) starts, so a reply racing the
// write can never arrive before its listener exists.
func (d *Device) send(namespace, rpc string, method wire.Method, hasMethod bool, args []interface{}, deliver func(registry.Result, error)) error {
	_, entry, err := d.reg.Resolve(namespace, rpc)
	if err != nil {
		return err
	}
	dispatch, err := entry.Call(method, hasMethod)
	if err != nil {
		return err
	}
	body, err := dispatch.Builder(args)
	if err != nil {
		return fmt.Errorf("bowler: building %s.%s: %w", namespace, rpc, err)
	}

	key := eventKey(dispatch.RecvMethod, namespace, rpc)

	packet, err := wire.AssemblePacket(wire.AssemblePacketInput{
		MAC:       d.opts.MAC,
		Method:    dispatch.SendMethod,
		Namespace: namespace,
		RPC:       rpc,
	}, body, d.reg.IDs)
	if err != nil {
		return fmt.Errorf("bowler: assembling %s.%s: %w", namespace, rpc, err)
	}

	call := d.registerPending(key, deliver)

	d.writeMu.Lock()
	writeErr := d.transport.Write(packet)
	d.writeMu.Unlock()
	if writeErr != nil {
		d.removePending(key, call)
		return fmt.Errorf("bowler: writing %s.%s: %w", namespace, rpc, writeErr)
	}
	return nil
}

func (d *Device) registerPending(key string, deliver func(registry.Result, error)) *pendingCall {
	call := &pendingCall{key: key, deliver: deliver}

	d.mu.Lock()
	d.pendingByKey[key] = append(d.pendingByKey[key], call)
	d.mu.Unlock()

	timeoutMS := d.opts.RequestTimeoutMS
	if timeoutMS == 0 {
		timeoutMS = 2000
	}
	call.timer = time.AfterFunc(time.Duration(timeoutMS)*time.Millisecond, func() {
		if d.removePending(key, call) {
			deliver(registry.Result{}, ErrTimeout)
		}
	})
	return call
}

// removePending removes call from its key's FIFO if still present,
// reporting whether it did (false means it already fired or timed out).
func (d *Device) removePending(key string, call *pendingCall) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	queue := d.pendingByKey[key]
	for i, c := range queue {
		if c == call {
			d.pendingByKey[key] = append(queue[:i], queue[i+1:]...)
			if len(d.pendingByKey[key]) == 0 {
				delete(d.pendingByKey, key)
			}
			return true
		}
	}
	return false
}

// deliverPending pops the oldest pending call for key, if any, and
// delivers result to it. With no correlation id on the wire, same-key
// calls are matched in the order they were registered.
func (d *Device) deliverPending(key string, result registry.Result, err error) bool {
	d.mu.Lock()
	queue := d.pendingByKey[key]
	if len(queue) == 0 {
		d.mu.Unlock()
		return false
	}
	call := queue[0]
	d.pendingByKey[key] = queue[1:]
	if len(d.pendingByKey[key]) == 0 {
		delete(d.pendingByKey, key)
	}
	d.mu.Unlock()

	call.timer.Stop()
	call.deliver(result, err)
	return true
}

func (d *Device) failAllPending(err error) {
	d.mu.Lock()
	all := d.pendingByKey
	d.pendingByKey = map[string][]*pendingCall{}
	d.mu.Unlock()

	for _, queue := range all {
		for _, call := range queue {
			call.timer.Stop()
			call.deliver(registry.Result{}, err)
		}
	}
}
