// Package bcsrpc is the static namespace contribution for "bcs.rpc": the
// two introspection-support RPCs (`_rpc`, `args`) the introspector calls
// to learn what RPCs a device's other namespaces expose.
package bcsrpc

import (
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/codec"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"
)

// Root is the dotted path this contribution installs under.
const Root = "bcs.rpc"

// RpcNameInfo holds an RPC name as reported by "_rpc". parseRpcName itself
// returns the name as a plain string in Result.Positional[0] and
// Result.Named["name"].
type RpcNameInfo struct {
	Name string
}

// ArgsInfo is the parsed result of an "args" call: the declared send
// method and argument type codes, and the matching receive side.
type ArgsInfo struct {
	SendMethod wire.Method
	SendTypes  []codec.Type
	RecvMethod wire.Method
	RecvTypes  []codec.Type
}

func Contribution() registry.Contribution {
	return registry.Contribution{
		Root: Root,
		RPCs: map[string]registry.RPCContribution{
			"_rpc": {
				Method:     wire.MethodGet,
				RecvMethod: wire.MethodGet,
				Builder:    buildNsAndIndex,
				Parser:     parseRpcName,
			},
			"args": {
				Method:     wire.MethodGet,
				RecvMethod: wire.MethodGet,
				Builder:    buildNsAndIndex,
				Parser:     parseArgs,
			},
		},
	}
}

// buildNsAndIndex encodes (namespace_id uint8, rpc_index uint8), the
// argument shape both `_rpc` and `args` take.
func buildNsAndIndex(args []interface{}) (*wire.Assembler, error) {
	if len(args) != 2 {
		return nil, codec.ErrWrongGoType
	}
	ns, ok := args[0].(uint8)
	if !ok {
		return nil, codec.ErrWrongGoType
	}
	idx, ok := args[1].(uint8)
	if !ok {
		return nil, codec.ErrWrongGoType
	}
	a := wire.NewAssembler(15)
	if _, err := a.WriteTyped(15, codec.TypeUInt8, ns); err != nil {
		return nil, err
	}
	if _, err := a.WriteTyped(16, codec.TypeUInt8, idx); err != nil {
		return nil, err
	}
	return a, nil
}

func parseRpcName(body []byte) (registry.Result, error) {
	r, err := wire.NewByteRange(body, 0, len(body)-1)
	if err != nil {
		return registry.Result{}, err
	}
	name, _, err := r.ToString(codec.ASCII)
	if err != nil {
		return registry.Result{}, err
	}
	return registry.Result{
		Positional: []interface{}{name},
		Named:      map[string]interface{}{"name": name},
	}, nil
}

// parseArgs decodes: send_method(1) send_argc(1) send_types(send_argc)
// recv_method(1) recv_argc(1) recv_types(recv_argc) -- the four facts
// `args` must convey (a send method, its argument type codes, a receive
// method, and its argument type codes), in that order.
func parseArgs(body []byte) (registry.Result, error) {
	r, err := wire.NewByteRange(body, 0, len(body)-1)
	if err != nil {
		return registry.Result{}, err
	}

	pos := r.Start
	readByte := func() (byte, error) {
		b, err := r.Byte(pos - r.Start)
		pos++
		return b, err
	}
	readTypes := func(n int) ([]codec.Type, error) {
		out := make([]codec.Type, n)
		for i := 0; i < n; i++ {
			b, err := readByte()
			if err != nil {
				return nil, err
			}
			t, err := codec.FromCode(b)
			if err != nil {
				return nil, err
			}
			out[i] = t
		}
		return out, nil
	}

	sendMethod, err := readByte()
	if err != nil {
		return registry.Result{}, err
	}
	sendArgc, err := readByte()
	if err != nil {
		return registry.Result{}, err
	}
	sendTypes, err := readTypes(int(sendArgc))
	if err != nil {
		return registry.Result{}, err
	}
	recvMethod, err := readByte()
	if err != nil {
		return registry.Result{}, err
	}
	recvArgc, err := readByte()
	if err != nil {
		return registry.Result{}, err
	}
	recvTypes, err := readTypes(int(recvArgc))
	if err != nil {
		return registry.Result{}, err
	}

	info := ArgsInfo{
		SendMethod: wire.Method(sendMethod),
		SendTypes:  sendTypes,
		RecvMethod: wire.Method(recvMethod),
		RecvTypes:  recvTypes,
	}
	return registry.Result{
		Positional: []interface{}{info},
		Named: map[string]interface{}{
			"send_method": info.SendMethod,
			"send_types":  info.SendTypes,
			"recv_method": info.RecvMethod,
			"recv_types":  info.RecvTypes,
		},
	}, nil
}
