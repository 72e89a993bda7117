package bowler

import (
	"sync"

	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"
)

// CommandHandle is one node of the navigable command_to tree: a dotted
// namespace path, with lazily constructed and cached children per
// segment. Rebuilding the registry (SupportsNamespace, introspection)
// invalidates the whole cached tree via Device.invalidateCommandTree, so
// a handle obtained before a rebuild never silently serves a stale view.
type CommandHandle struct {
	dev  *Device
	path string

	mu       sync.Mutex
	children map[string]*CommandHandle
}

// CommandTo returns the root of the navigable command tree, creating and
// caching it on first use.
func (d *Device) CommandTo() *CommandHandle {
	d.rootMu.Lock()
	defer d.rootMu.Unlock()
	if d.root == nil {
		d.root = &CommandHandle{dev: d}
	}
	return d.root
}

func (d *Device) invalidateCommandTree() {
	d.rootMu.Lock()
	defer d.rootMu.Unlock()
	d.root = nil
}

// Namespace descends into segment, returning (and caching) its handle.
func (h *CommandHandle) Namespace(segment string) *CommandHandle {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.children == nil {
		h.children = map[string]*CommandHandle{}
	}
	if child, ok := h.children[segment]; ok {
		return child
	}

	path := segment
	if h.path != "" {
		path = h.path + "." + segment
	}
	child := &CommandHandle{dev: h.dev, path: path}
	h.children[segment] = child
	return child
}

// RPC resolves a single-method (or default-method) leaf under this
// namespace: the rpc's own declared send method is used when the handle
// is not further disambiguated by Method.
func (h *CommandHandle) RPC(name string) *RPCHandle {
	return &RPCHandle{dev: h.dev, namespace: h.path, name: name}
}

// Method resolves a method-disambiguated leaf on a multi-method RPC, e.g.
// CommandTo().Namespace("neuronrobotics.dyio").Method("_pwr", wire.MethodCritical).
func (h *CommandHandle) Method(name string, method wire.Method) *RPCHandle {
	return &RPCHandle{dev: h.dev, namespace: h.path, name: name, method: method, hasMethod: true}
}

// RPCHandle is a callable leaf. It exposes both call shapes explicitly
// rather than inferring one from argument count (Go has no natural
// arity-based overload the way a dynamically typed dispatch could): Call
// blocks for the reply, Async registers a continuation and returns
// immediately.
type RPCHandle struct {
	dev       *Device
	namespace string
	name      string
	method    wire.Method
	hasMethod bool
}

// Call sends the RPC and blocks until its correlated reply arrives or the
// call times out.
func (h *RPCHandle) Call(args ...interface{}) (registry.Result, error) {
	return h.dev.callSync(h.namespace, h.name, h.method, h.hasMethod, args)
}

// Async sends the RPC and returns once the packet is written; continuation
// is invoked exactly once, with either the correlated reply (from the
// transport's read path) or an error (ErrTimeout from the timeout timer,
// or a send error before Async returns).
func (h *RPCHandle) Async(continuation func(registry.Result, error), args ...interface{}) {
	h.dev.callAsync(h.namespace, h.name, h.method, h.hasMethod, args, continuation)
}
