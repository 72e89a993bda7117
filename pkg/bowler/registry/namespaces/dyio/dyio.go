// Package dyio is the static namespace contribution for
// "neuronrobotics.dyio": the DyIO-specific power RPC, a multi-method
// entry whose `critical` form sets power state and whose `get` form reads
// it back.
package dyio

import (
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/codec"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"
)

// Root is the dotted path this contribution installs under.
const Root = "neuronrobotics.dyio"

func Contribution() registry.Contribution {
	return registry.Contribution{
		Root: Root,
		RPCs: map[string]registry.RPCContribution{
			"_pwr": {
				Builders: map[wire.Method]registry.Builder{
					wire.MethodCritical: buildPowerSet,
					wire.MethodGet:      buildPowerGet,
				},
				Parsers: map[wire.Method]registry.Parser{
					wire.MethodCritical: parsePowerAck,
					wire.MethodGet:      parsePowerState,
				},
				RecvMethods: map[wire.Method]wire.Method{
					wire.MethodCritical: wire.MethodCritical,
					wire.MethodGet:      wire.MethodGet,
				},
			},
		},
	}
}

// buildPowerSet encodes the single bool argument of `_pwr.critical(true)`.
func buildPowerSet(args []interface{}) (*wire.Assembler, error) {
	if len(args) != 1 {
		return nil, codec.ErrWrongGoType
	}
	on, ok := args[0].(bool)
	if !ok {
		return nil, codec.ErrWrongGoType
	}
	a := wire.NewAssembler(15)
	if _, err := a.WriteTyped(15, codec.TypeBool, on); err != nil {
		return nil, err
	}
	return a, nil
}

func buildPowerGet(args []interface{}) (*wire.Assembler, error) {
	return wire.NewAssembler(15), nil
}

func parsePowerAck(body []byte) (registry.Result, error) {
	return registry.Result{}, nil
}

func parsePowerState(body []byte) (registry.Result, error) {
	r, err := wire.NewByteRange(body, 0, len(body)-1)
	if err != nil {
		return registry.Result{}, err
	}
	on, err := r.ToBool()
	if err != nil {
		return registry.Result{}, err
	}
	return registry.Result{
		Positional: []interface{}{on},
		Named:      map[string]interface{}{"power": on},
	}, nil
}
