package registry

import (
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"
)

// Result is the structured form a Parser produces from a reply body: the
// values in declaration order, plus the same values addressable by the
// argument name the device (or a static contribution) assigned them.
type Result struct {
	Positional []interface{}
	Named      map[string]interface{}
}

// Builder serializes positional call arguments into a body assembler ready
// to be appended to a packet header (wire.AssemblePacket's body param).
type Builder func(args []interface{}) (*wire.Assembler, error)

// Parser decodes a reply body into a Result.
type Parser func(body []byte) (Result, error)

// SingleRPC is the send/recv pair for an RPC with exactly one wire method.
type SingleRPC struct {
	Method     wire.Method
	RecvMethod wire.Method
	Builder    Builder
	Parser     Parser
}

// MultiRPC is an RPC whose builder/parser are keyed per wire method, with
// an explicit send-method set and a send→recv mapping.
type MultiRPC struct {
	Builders    map[wire.Method]Builder
	Parsers     map[wire.Method]Parser
	SendMethods map[wire.Method]struct{}
	RecvMethods map[wire.Method]wire.Method
}

// RPC is a tagged union {Single, Multi}. Exactly one of Single/Multi is
// non-nil.
type RPC struct {
	Name   string
	Single *SingleRPC
	Multi  *MultiRPC
}

// IsMulti reports whether this RPC has been promoted to multi-method form.
func (r *RPC) IsMulti() bool {
	return r.Multi != nil
}

// Promote converts a Single RPC into a Multi RPC that also carries the
// newly discovered method, modeling a second method appearing for an RPC
// as an explicit operation rather than in-place mutation of the original's
// type.
func (r *RPC) Promote(method wire.Method, builder Builder, parser Parser, recv wire.Method) {
	if r.Multi != nil {
		r.Multi.Builders[method] = builder
		r.Multi.Parsers[method] = parser
		r.Multi.SendMethods[method] = struct{}{}
		r.Multi.RecvMethods[method] = recv
		return
	}

	m := &MultiRPC{
		Builders:    map[wire.Method]Builder{method: builder},
		Parsers:     map[wire.Method]Parser{method: parser},
		SendMethods: map[wire.Method]struct{}{method: {}},
		RecvMethods: map[wire.Method]wire.Method{method: recv},
	}
	if r.Single != nil {
		m.Builders[r.Single.Method] = r.Single.Builder
		m.Parsers[r.Single.Method] = r.Single.Parser
		m.SendMethods[r.Single.Method] = struct{}{}
		m.RecvMethods[r.Single.Method] = r.Single.RecvMethod
	}
	r.Single = nil
	r.Multi = m
}

// Dispatch is what Call returns: the resolved send/recv methods and the
// builder/parser pair to use for them.
type Dispatch struct {
	SendMethod wire.Method
	RecvMethod wire.Method
	Builder    Builder
	Parser     Parser
}

// Call resolves which builder/parser pair to use for the given method. If
// the RPC is Single, hasMethod=false (no method-disambiguated handle) picks
// the RPC's only method; hasMethod=true must match it exactly.
func (r *RPC) Call(method wire.Method, hasMethod bool) (Dispatch, error) {
	if r.Single != nil {
		if hasMethod && method != r.Single.Method {
			return Dispatch{}, ErrUnsupportedMethod
		}
		return Dispatch{
			SendMethod: r.Single.Method,
			RecvMethod: r.Single.RecvMethod,
			Builder:    r.Single.Builder,
			Parser:     r.Single.Parser,
		}, nil
	}

	if !hasMethod {
		return Dispatch{}, ErrUnsupportedMethod
	}
	if _, ok := r.Multi.SendMethods[method]; !ok {
		return Dispatch{}, ErrUnsupportedMethod
	}
	return Dispatch{
		SendMethod: method,
		RecvMethod: r.Multi.RecvMethods[method],
		Builder:    r.Multi.Builders[method],
		Parser:     r.Multi.Parsers[method],
	}, nil
}
