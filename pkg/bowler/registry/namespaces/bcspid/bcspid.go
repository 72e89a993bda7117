// Package bcspid is the static namespace contribution for "bcs.pid": PID
// loop gain tuning for a single addressed control channel.
package bcspid

import (
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/codec"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"
)

// Root is the dotted path this contribution installs under.
const Root = "bcs.pid"

// Gains is the parsed result of a "get_gains" call.
type Gains struct {
	P, I, D float64
}

func Contribution() registry.Contribution {
	return registry.Contribution{
		Root: Root,
		RPCs: map[string]registry.RPCContribution{
			"set_gains": {
				Method:     wire.MethodPost,
				RecvMethod: wire.MethodPost,
				Builder:    buildSetGains,
				Parser:     parseAck,
			},
			"get_gains": {
				Method:     wire.MethodGet,
				RecvMethod: wire.MethodGet,
				Builder:    buildChannelIndex,
				Parser:     parseGains,
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

// buildSetGains encodes (channel uint8, p, i, d FixedPointTwoPlaces).
func buildSetGains(args []interface{}) (*wire.Assembler, error) {
	if len(args) != 4 {
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
	pos := 16
	for _, v := range args[1:] {
		f, ok := v.(float64)
		if !ok {
			return nil, codec.ErrWrongGoType
		}
		n, err := a.WriteTyped(pos, codec.TypeFixedPointTwoPlaces, f)
		if err != nil {
			return nil, err
		}
		pos += n
	}
	return a, nil
}

func parseGains(body []byte) (registry.Result, error) {
	r, err := wire.NewByteRange(body, 0, len(body)-1)
	if err != nil {
		return registry.Result{}, err
	}
	var vals [3]float64
	pos := r.Start
	for i := range vals {
		sub, err := r.Bytes(pos, pos+3)
		if err != nil {
			return registry.Result{}, err
		}
		v, consumed, err := sub.ToInt()
		if err != nil {
			return registry.Result{}, err
		}
		vals[i] = float64(v) / 100.0
		pos += consumed
	}
	g := Gains{P: vals[0], I: vals[1], D: vals[2]}
	return registry.Result{
		Positional: []interface{}{g},
		Named:      map[string]interface{}{"p": g.P, "i": g.I, "d": g.D},
	}, nil
}

func parseAck(body []byte) (registry.Result, error) {
	return registry.Result{}, nil
}
