// Package registry implements the namespace/RPC trie: a dot-segment
// keyed tree of registry nodes whose leaves bind RPC names to
// typed builders and parsers, plus the wire id ↔ name table consulted by
// the packet codec.
//
// Grounded on pkg/minicli/trie.go's patternTrie: a map-of-children node
// walked segment by segment. minicli's trie errors on a name collision
// when registering a second handler for the same pattern; this registry's
// existing-wins merge is the one deliberate divergence, needed to let a
// base namespace module be layered under device-specific overrides without
// the override clobbering it.
package registry

import "strings"

type node struct {
	children map[string]*node
	rpcs     map[string]*RPC
}

func newNode() *node {
	return &node{children: map[string]*node{}, rpcs: map[string]*RPC{}}
}

// Registry is the trie root plus its namespace id table. There is exactly
// one Registry per Device, owned by the device's single task, requiring no
// internal locking.
type Registry struct {
	root *node
	IDs  *IDTable
}

// New creates an empty registry with a fresh IDTable.
func New() *Registry {
	return &Registry{root: newNode(), IDs: NewIDTable()}
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	var segs []string
	for _, s := range strings.Split(path, ".") {
		if s == "com" {
			continue // a lone "com" segment is skipped during traversal
		}
		segs = append(segs, s)
	}
	return segs
}

// walk traverses path from the root, creating intermediate nodes as needed
// when create is true, or failing with ErrUndefinedNamespace otherwise.
func (r *Registry) walk(path string, create bool) (*node, error) {
	cur := r.root
	for _, seg := range splitPath(path) {
		child, ok := cur.children[seg]
		if !ok {
			if !create {
				return nil, ErrUndefinedNamespace
			}
			child = newNode()
			cur.children[seg] = child
		}
		cur = child
	}
	return cur, nil
}

// Namespace resolves path to a handle over its registry node. Empty path
// resolves to the root.
func (r *Registry) Namespace(path string) (Namespace, error) {
	n, err := r.walk(path, false)
	if err != nil {
		return Namespace{}, err
	}
	return Namespace{node: n, path: path}, nil
}

// Namespace is a navigable handle onto one trie node, used directly by the
// dispatcher's command-to tree.
type Namespace struct {
	node *node
	path string
}

// Path returns the dot-joined path this handle was resolved from.
func (ns Namespace) Path() string {
	return ns.path
}

// Children lists the immediate child namespace segments.
func (ns Namespace) Children() []string {
	out := make([]string, 0, len(ns.node.children))
	for seg := range ns.node.children {
		out = append(out, seg)
	}
	return out
}

// RPC resolves an RPC name within this namespace.
func (ns Namespace) RPC(name string) (*RPC, error) {
	rpc, ok := ns.node.rpcs[name]
	if !ok {
		return nil, ErrUndefinedRpc
	}
	return rpc, nil
}

// RPCNames lists the RPC names registered directly on this namespace node.
func (ns Namespace) RPCNames() []string {
	out := make([]string, 0, len(ns.node.rpcs))
	for name := range ns.node.rpcs {
		out = append(out, name)
	}
	return out
}

// Resolve is the single-call form of `resolve(path, rpc_name?)`: when
// rpcName is empty it returns the namespace node; otherwise it additionally
// resolves the RPC leaf.
func (r *Registry) Resolve(path, rpcName string) (Namespace, *RPC, error) {
	ns, err := r.Namespace(path)
	if err != nil {
		return Namespace{}, nil, err
	}
	if rpcName == "" {
		return ns, nil, nil
	}
	rpc, err := ns.RPC(rpcName)
	if err != nil {
		return Namespace{}, nil, err
	}
	return ns, rpc, nil
}

// ImportNamespace merges contribution into the trie at its Root path.
// Merge is recursive and existing-wins on leaf-name collision: a base
// module imported first keeps any RPC an override imported later also
// defines.
func (r *Registry) ImportNamespace(c Contribution) error {
	n, err := r.walk(c.Root, true)
	if err != nil {
		return err
	}
	for name, contrib := range c.RPCs {
		if _, exists := n.rpcs[name]; exists {
			continue
		}
		n.rpcs[name] = contrib.build(name)
	}
	return nil
}

// Define registers a single, already-built RPC directly under path, used
// by the introspector when it synthesizes generic RPCs discovered live
// from a device. If path already holds an RPC of that name, only the send
// methods it lacks are added to it; methods it already has keep their
// existing builder and parser.
func (r *Registry) Define(path, name string, rpc *RPC) error {
	n, err := r.walk(path, true)
	if err != nil {
		return err
	}
	if existing, ok := n.rpcs[name]; ok {
		existing.mergeFrom(rpc)
		return nil
	}
	n.rpcs[name] = rpc
	return nil
}

// mergeFrom folds newly discovered methods of other into r, used when the
// introspector learns an additional send/recv pair for an RPC name it has
// already seen: augment rather than replace.
func (r *RPC) mergeFrom(other *RPC) {
	switch {
	case other.Single != nil:
		if _, err := r.Call(other.Single.Method, true); err != nil {
			r.Promote(other.Single.Method, other.Single.Builder, other.Single.Parser, other.Single.RecvMethod)
		}
	case other.Multi != nil:
		for m, b := range other.Multi.Builders {
			if _, err := r.Call(m, true); err == nil {
				continue
			}
			r.Promote(m, b, other.Multi.Parsers[m], other.Multi.RecvMethods[m])
		}
	}
}
