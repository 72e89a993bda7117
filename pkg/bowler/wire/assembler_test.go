package wire

import (
	"testing"

	"github.com/neuronrobotics/bowlerhost/pkg/bowler/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemblerWriteAndAssemble(t *testing.T) {
	a := NewAssembler(0)
	a.WriteByte(0, 0xAA)
	a.WriteBytes(1, []byte{0x01, 0x02})
	assert.Equal(t, 3, a.Length())
	assert.Equal(t, []byte{0xAA, 0x01, 0x02}, a.Assemble())
}

func TestAssemblerOffsetShiftsWrites(t *testing.T) {
	body := NewAssembler(15)
	n, err := body.WriteTyped(15, codec.TypeUInt8, uint8(9))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, body.Length())

	header := NewAssembler(0)
	header.WriteByte(0, 0x03)
	header.Append(body)

	out := header.Assemble()
	require.Len(t, out, 16)
	assert.Equal(t, byte(0x03), out[0])
	assert.Equal(t, byte(9), out[15])
}

func TestAssemblerAppendConcatenatesInOrder(t *testing.T) {
	a := NewAssembler(0)
	a.WriteBytes(0, []byte{1, 2, 3})
	b := NewAssembler(3)
	b.WriteBytes(3, []byte{4, 5})
	a.Append(b)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, a.Assemble())
}
