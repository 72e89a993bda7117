// Package bcsiosetmode is the static namespace contribution for
// "bcs.io.setmode": assigning a channel's I/O mode.
package bcsiosetmode

import (
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/codec"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"
)

// Root is the dotted path this contribution installs under.
const Root = "bcs.io.setmode"

func Contribution() registry.Contribution {
	return registry.Contribution{
		Root: Root,
		RPCs: map[string]registry.RPCContribution{
			"set": {
				Method:     wire.MethodPost,
				RecvMethod: wire.MethodPost,
				Builder:    buildSetMode,
				Parser:     parseAck,
			},
		},
	}
}

// buildSetMode encodes (channel uint8, mode uint8).
func buildSetMode(args []interface{}) (*wire.Assembler, error) {
	if len(args) != 2 {
		return nil, codec.ErrWrongGoType
	}
	ch, ok := args[0].(uint8)
	if !ok {
		return nil, codec.ErrWrongGoType
	}
	mode, ok := args[1].(uint8)
	if !ok {
		return nil, codec.ErrWrongGoType
	}
	a := wire.NewAssembler(15)
	if _, err := a.WriteTyped(15, codec.TypeUInt8, ch); err != nil {
		return nil, err
	}
	if _, err := a.WriteTyped(16, codec.TypeUInt8, mode); err != nil {
		return nil, err
	}
	return a, nil
}

func parseAck(body []byte) (registry.Result, error) {
	return registry.Result{}, nil
}
