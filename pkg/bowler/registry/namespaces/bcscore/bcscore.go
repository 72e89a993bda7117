// Package bcscore is the static namespace contribution for "bcs.core": the
// ping, namespace-discovery, and power/revision/info resync RPCs every
// Bowler device supports regardless of what else it advertises.
//
// Grounded on the shape of minimega's own always-registered CLI handlers
// (e.g. internal/miniccc's heartbeat/ack commands): a small fixed set of
// control-plane operations that exist independent of whatever the rest of
// the device surface introspects to.
package bcscore

import (
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/codec"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"
)

// Root is the dotted path this contribution installs under.
const Root = "bcs.core"

// NamespaceInfo is the parsed result of a "_nms" call.
type NamespaceInfo struct {
	Name          string
	VersionStr    string
	NumNamespaces uint8
}

// Contribution returns the registry.Contribution for bcs.core.
func Contribution() registry.Contribution {
	return registry.Contribution{
		Root: Root,
		RPCs: map[string]registry.RPCContribution{
			"_png": {
				Method:     wire.MethodGet,
				RecvMethod: wire.MethodGet,
				Builder:    buildPing,
				Parser:     parsePing,
			},
			"_nms": {
				Method:     wire.MethodGet,
				RecvMethod: wire.MethodGet,
				Builder:    buildNms,
				Parser:     parseNms,
			},
			"_pwr": {
				Method:     wire.MethodGet,
				RecvMethod: wire.MethodGet,
				Builder:    buildNoArgs,
				Parser:     parseResync,
			},
			"_rev": {
				Method:     wire.MethodGet,
				RecvMethod: wire.MethodGet,
				Builder:    buildNoArgs,
				Parser:     parseResync,
			},
			"info": {
				Method:     wire.MethodGet,
				RecvMethod: wire.MethodGet,
				Builder:    buildNoArgs,
				Parser:     parseInfoResult,
			},
		},
	}
}

func buildPing(args []interface{}) (*wire.Assembler, error) {
	return wire.NewAssembler(15), nil
}

func parsePing(body []byte) (registry.Result, error) {
	return registry.Result{}, nil
}

func buildNoArgs(args []interface{}) (*wire.Assembler, error) {
	return wire.NewAssembler(15), nil
}

// buildNms encodes the single uint8 namespace index argument `_nms` takes.
func buildNms(args []interface{}) (*wire.Assembler, error) {
	if len(args) != 1 {
		return nil, codec.ErrWrongGoType
	}
	idx, ok := args[0].(uint8)
	if !ok {
		return nil, codec.ErrWrongGoType
	}
	a := wire.NewAssembler(15)
	if _, err := a.WriteTyped(15, codec.TypeUInt8, idx); err != nil {
		return nil, err
	}
	return a, nil
}

// parseNms decodes the composite "name;version\x00<count>" reply body a
// device sends for each namespace index.
func parseNms(body []byte) (registry.Result, error) {
	r, err := wire.NewByteRange(body, 0, len(body)-1)
	if err != nil {
		return registry.Result{}, err
	}

	composite, consumed, err := r.ToNull(false)
	if err != nil {
		return registry.Result{}, err
	}

	raw := composite.Slice()
	semi := -1
	for i, b := range raw {
		if b == ';' {
			semi = i
			break
		}
	}
	var name, version string
	if semi == -1 {
		name = string(raw)
	} else {
		name = string(raw[:semi])
		version = string(raw[semi+1:])
	}

	rest, err := r.Bytes(r.Start+consumed, r.End)
	if err != nil {
		return registry.Result{}, err
	}
	count, err := rest.Byte(0)
	if err != nil {
		return registry.Result{}, err
	}

	info := NamespaceInfo{Name: name, VersionStr: version, NumNamespaces: count}
	return registry.Result{
		Positional: []interface{}{info},
		Named: map[string]interface{}{
			"name":           info.Name,
			"version_str":    info.VersionStr,
			"num_namespaces": info.NumNamespaces,
		},
	}, nil
}

// parseResync is shared by the coarse power/revision RPCs invoked during
// Device.connect's resync step; their exact payload shape is device
// specific, so the generic result simply exposes the raw bytes.
func parseResync(body []byte) (registry.Result, error) {
	return registry.Result{
		Positional: []interface{}{body},
		Named:      map[string]interface{}{"raw": body},
	}, nil
}

func parseInfoResult(body []byte) (registry.Result, error) {
	return parseResync(body)
}
