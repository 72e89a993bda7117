package registry

import "github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"

// RPCContribution describes one RPC entry as supplied by a static
// namespace contribution. Exactly one of the single-method fields
// (Method/Builder/Parser) or the multi-method maps (Builders/Parsers/
// RecvMethods) is populated.
type RPCContribution struct {
	Method     wire.Method
	RecvMethod wire.Method
	Builder    Builder
	Parser     Parser

	Builders    map[wire.Method]Builder
	Parsers     map[wire.Method]Parser
	RecvMethods map[wire.Method]wire.Method
}

// IsMulti reports whether this contribution declares the multi-method form
// (an "is_rpc" map of {method: function} in the source's terms).
func (c RPCContribution) IsMulti() bool {
	return c.Builders != nil
}

func (c RPCContribution) build(name string) *RPC {
	if c.IsMulti() {
		sendMethods := make(map[wire.Method]struct{}, len(c.Builders))
		for m := range c.Builders {
			sendMethods[m] = struct{}{}
		}
		return &RPC{
			Name: name,
			Multi: &MultiRPC{
				Builders:    c.Builders,
				Parsers:     c.Parsers,
				SendMethods: sendMethods,
				RecvMethods: c.RecvMethods,
			},
		}
	}
	return &RPC{
		Name: name,
		Single: &SingleRPC{
			Method:     c.Method,
			RecvMethod: c.RecvMethod,
			Builder:    c.Builder,
			Parser:     c.Parser,
		},
	}
}

// Contribution is a source module's set of RPCs to merge into the registry
// trie at Root.
type Contribution struct {
	Root string
	RPCs map[string]RPCContribution
}
