// Package introspect implements the device-walking coroutine (component
// C6): a cooperative sequence of request/response steps that discovers a
// device's namespaces and, optionally, its RPCs, synthesizing generic
// codec entries from the type codes the device reports.
//
// Modeled as an explicit step sequence with yield points between device
// round trips, rather than a generator-based coroutine. Grounded on
// internal/ron/heartbeat.go's sleep/send/await-reply loop structure and
// internal/qmp's synchronous request/await-reply exchange — both drive a
// single in-flight round trip at a time, suspending the calling goroutine
// between steps exactly as this session's Run does.
package introspect

import (
	"fmt"

	"github.com/neuronrobotics/bowlerhost/pkg/bowler/bowlerlog"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/codec"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry/namespaces/bcscore"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry/namespaces/bcsrpc"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"
)

var log = bowlerlog.Named("introspect")

// maxRPCsPerNamespace bounds the `_rpc` enumeration loop: the protocol
// gives no explicit RPC count up front (unlike `_nms`'s namespace count),
// so the loop instead terminates on the first empty name `_rpc` reports
// and this cap exists purely to bound a misbehaving device's reply stream.
const maxRPCsPerNamespace = 128

// Caller is the narrow slice of Device's call surface introspection needs.
// It is an interface, not a concrete Device, specifically so that
// pkg/bowler (which drives introspection) and pkg/bowler/introspect never
// import each other's concrete types.
type Caller interface {
	Call(namespace, rpc string, method wire.Method, hasMethod bool, args []interface{}) (registry.Result, error)
}

// Options controls how much of the walk runs.
type Options struct {
	IntrospectNamespaces bool
	IntrospectRPCs       bool
}

// Session drives one full introspection pass against reg via caller.
type Session struct {
	caller Caller
	reg    *registry.Registry
	opts   Options
}

// NewSession creates a Session. reg should already have the static
// namespace contributions (bcscore, bcsrpc, ...) imported so the `_nms`
// and `_rpc`/`args` calls the session itself makes can resolve.
func NewSession(caller Caller, reg *registry.Registry, opts Options) *Session {
	return &Session{caller: caller, reg: reg, opts: opts}
}

// Run executes the full walk: namespace discovery, then (if requested) RPC
// discovery. Failures short-circuit with the underlying error.
func (s *Session) Run() error {
	if s.opts.IntrospectNamespaces {
		if err := s.discoverNamespaces(); err != nil {
			return fmt.Errorf("introspect: namespace discovery: %w", err)
		}
	}
	if s.opts.IntrospectRPCs {
		if _, err := s.reg.Resolve(bcsrpc.Root, "_rpc"); err != nil {
			return ErrIntrospectionUnsupported
		}
		if err := s.discoverRPCs(); err != nil {
			return fmt.Errorf("introspect: rpc discovery: %w", err)
		}
	}
	return nil
}

// discoverNamespaces learns the namespace count from index 0, then walks
// 1..n-1 assigning wire ids.
func (s *Session) discoverNamespaces() error {
	first, err := s.callNms(0)
	if err != nil {
		return err
	}
	s.reg.IDs.Assign(0, first.Name)
	log.Debug("namespace 0 = %s (%s), %d total", first.Name, first.VersionStr, first.NumNamespaces)

	for i := 1; i < int(first.NumNamespaces); i++ {
		info, err := s.callNms(uint8(i))
		if err != nil {
			return err
		}
		s.reg.IDs.Assign(byte(i), info.Name)
		log.Debug("namespace %d = %s (%s)", i, info.Name, info.VersionStr)
	}
	return nil
}

func (s *Session) callNms(index uint8) (bcscore.NamespaceInfo, error) {
	result, err := s.caller.Call(bcscore.Root, "_nms", wire.MethodGet, false, []interface{}{index})
	if err != nil {
		return bcscore.NamespaceInfo{}, err
	}
	info, ok := result.Positional[0].(bcscore.NamespaceInfo)
	if !ok {
		return bcscore.NamespaceInfo{}, fmt.Errorf("introspect: _nms returned unexpected result type %T", result.Positional[0])
	}
	return info, nil
}

// discoverRPCs walks every known namespace, interleaving `_rpc`/`args`
// calls until the device stops naming new RPCs, synthesizing a generic
// builder/parser pair from the reported type codes for every RPC not
// already present in the registry.
func (s *Session) discoverRPCs() error {
	for id := byte(0); int(id) < s.reg.IDs.Len(); id++ {
		name, ok := s.reg.IDs.ResolveID(id)
		if !ok {
			continue
		}
		if err := s.discoverNamespaceRPCs(id, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) discoverNamespaceRPCs(nsID byte, nsName string) error {
	for j := 0; j < maxRPCsPerNamespace; j++ {
		nameResult, err := s.caller.Call(bcsrpc.Root, "_rpc", wire.MethodGet, false, []interface{}{nsID, uint8(j)})
		if err != nil {
			return err
		}
		rpcName, _ := nameResult.Positional[0].(string)
		if rpcName == "" {
			return nil
		}

		argsResult, err := s.caller.Call(bcsrpc.Root, "args", wire.MethodGet, false, []interface{}{nsID, uint8(j)})
		if err != nil {
			return err
		}
		info, ok := argsResult.Positional[0].(bcsrpc.ArgsInfo)
		if !ok {
			return fmt.Errorf("introspect: args returned unexpected result type %T", argsResult.Positional[0])
		}

		rpc := &registry.RPC{
			Name: rpcName,
			Single: &registry.SingleRPC{
				Method:     info.SendMethod,
				RecvMethod: info.RecvMethod,
				Builder:    genericBuilder(info.SendTypes),
				Parser:     genericParser(info.RecvTypes),
			},
		}
		if err := s.reg.Define(nsName, rpcName, rpc); err != nil {
			return err
		}
		log.Debug("discovered rpc %s.%s send=%v recv=%v", nsName, rpcName, info.SendTypes, info.RecvTypes)
	}
	log.Warn("namespace %s reached the %d-rpc introspection cap without an empty name", nsName, maxRPCsPerNamespace)
	return nil
}

// genericBuilder synthesizes a Builder that serializes positional
// arguments in declaration order according to types.
func genericBuilder(types []codec.Type) registry.Builder {
	return func(args []interface{}) (*wire.Assembler, error) {
		if len(args) != len(types) {
			return nil, fmt.Errorf("introspect: expected %d args, got %d", len(types), len(args))
		}
		a := wire.NewAssembler(wire.BodyOffset)
		pos := wire.BodyOffset
		for i, t := range types {
			n, err := a.WriteTyped(pos, t, args[i])
			if err != nil {
				return nil, err
			}
			pos += n
		}
		return a, nil
	}
}

// genericParser synthesizes a Parser that deserializes a reply body into
// both a positional slice and an "argN"-keyed name map.
func genericParser(types []codec.Type) registry.Parser {
	return func(body []byte) (registry.Result, error) {
		result := registry.Result{
			Positional: make([]interface{}, 0, len(types)),
			Named:      make(map[string]interface{}, len(types)),
		}
		offset := 0
		for i, t := range types {
			v, n, err := codec.Deserialize(t, body, offset, codec.ASCII)
			if err != nil {
				return registry.Result{}, err
			}
			result.Positional = append(result.Positional, v)
			result.Named[fmt.Sprintf("arg%d", i)] = v
			offset += n
		}
		return result, nil
	}
}
