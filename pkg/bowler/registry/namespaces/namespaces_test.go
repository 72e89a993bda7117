package namespaces

import (
	"testing"

	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry/namespaces/bcscore"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry/namespaces/bcsrpc"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry/namespaces/dyio"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, r.ImportNamespace(bcscore.Contribution()))
	require.NoError(t, r.ImportNamespace(bcsrpc.Contribution()))
	require.NoError(t, r.ImportNamespace(dyio.Contribution()))
	r.IDs.Assign(0, bcscore.Root)
	r.IDs.Assign(1, bcsrpc.Root)
	r.IDs.Assign(2, dyio.Root)
	return r
}

func TestPingRPCResolvesAndBuildsEmptyBody(t *testing.T) {
	r := newTestRegistry(t)
	_, rpc, err := r.Resolve(bcscore.Root, "_png")
	require.NoError(t, err)

	d, err := rpc.Call(wire.MethodGet, false)
	require.NoError(t, err)
	body, err := d.Builder(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, body.Length())
}

func TestNmsParsesCompositeBody(t *testing.T) {
	_, rpc, err := newTestRegistry(t).Resolve(bcscore.Root, "_nms")
	require.NoError(t, err)

	d, err := rpc.Call(wire.MethodGet, false)
	require.NoError(t, err)

	body := append([]byte("bcs.core;1.0.0"), 0x00, 0x01)
	result, err := d.Parser(body)
	require.NoError(t, err)

	info := result.Positional[0].(bcscore.NamespaceInfo)
	assert.Equal(t, "bcs.core", info.Name)
	assert.Equal(t, "1.0.0", info.VersionStr)
	assert.Equal(t, uint8(1), info.NumNamespaces)
}

func TestDyioPowerMultiMethodDispatch(t *testing.T) {
	_, rpc, err := newTestRegistry(t).Resolve(dyio.Root, "_pwr")
	require.NoError(t, err)
	require.True(t, rpc.IsMulti())

	critical, err := rpc.Call(wire.MethodCritical, true)
	require.NoError(t, err)
	body, err := critical.Builder([]interface{}{true})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, body.Assemble()[15:])

	get, err := rpc.Call(wire.MethodGet, true)
	require.NoError(t, err)
	body2, err := get.Builder(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, body2.Length())

	_, err = rpc.Call(wire.MethodAsync, true)
	assert.ErrorIs(t, err, registry.ErrUnsupportedMethod)
}

func TestArgsParsesSendAndRecvTypeLists(t *testing.T) {
	_, rpc, err := newTestRegistry(t).Resolve(bcsrpc.Root, "args")
	require.NoError(t, err)
	d, err := rpc.Call(wire.MethodGet, false)
	require.NoError(t, err)

	body := []byte{
		byte(wire.MethodGet), 0x01, 8, // send: method get, 1 arg, UInt8
		byte(wire.MethodGet), 0x01, 43, // recv: method get, 1 arg, Bool
	}
	result, err := d.Parser(body)
	require.NoError(t, err)
	info := result.Positional[0].(bcsrpc.ArgsInfo)
	assert.Equal(t, wire.MethodGet, info.SendMethod)
	require.Len(t, info.SendTypes, 1)
	require.Len(t, info.RecvTypes, 1)
}
