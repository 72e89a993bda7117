// Package bcsio is the static namespace contribution for "bcs.io": reading
// and writing a single addressed channel's value.
package bcsio

import (
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/codec"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"
)

// Root is the dotted path this contribution installs under.
const Root = "bcs.io"

func Contribution() registry.Contribution {
	return registry.Contribution{
		Root: Root,
		RPCs: map[string]registry.RPCContribution{
			"get": {
				Method:     wire.MethodGet,
				RecvMethod: wire.MethodGet,
				Builder:    buildChannelIndex,
				Parser:     parseChannelValue,
			},
			"set": {
				Method:     wire.MethodPost,
				RecvMethod: wire.MethodPost,
				Builder:    buildChannelValue,
				Parser:     parseAck,
			},
		},
	}
}

func buildChannelIndex(args []interface{}) (*wire.Assembler, error) {
	if len(args) != 1 {
		return nil, codec.ErrWrongGoType
	}
	ch, ok := args[0].(uint8)
	if !ok {
		return nil, codec.ErrWrongGoType
	}
	a := wire.NewAssembler(15)
	if _, err := a.WriteTyped(15, codec.TypeUInt8, ch); err != nil {
		return nil, err
	}
	return a, nil
}

func buildChannelValue(args []interface{}) (*wire.Assembler, error) {
	if len(args) != 2 {
		return nil, codec.ErrWrongGoType
	}
	ch, ok := args[0].(uint8)
	if !ok {
		return nil, codec.ErrWrongGoType
	}
	val, ok := args[1].(int16)
	if !ok {
		return nil, codec.ErrWrongGoType
	}
	a := wire.NewAssembler(15)
	if _, err := a.WriteTyped(15, codec.TypeUInt8, ch); err != nil {
		return nil, err
	}
	if _, err := a.WriteTyped(16, codec.TypeInt16, val); err != nil {
		return nil, err
	}
	return a, nil
}

func parseChannelValue(body []byte) (registry.Result, error) {
	r, err := wire.NewByteRange(body, 0, len(body)-1)
	if err != nil {
		return registry.Result{}, err
	}
	val, _, err := r.ToInt()
	if err != nil {
		return registry.Result{}, err
	}
	return registry.Result{
		Positional: []interface{}{val},
		Named:      map[string]interface{}{"value": val},
	}, nil
}

func parseAck(body []byte) (registry.Result, error) {
	return registry.Result{}, nil
}
