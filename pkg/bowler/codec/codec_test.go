package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCode(t *testing.T) {
	cases := []struct {
		code byte
		want Type
	}{
		{43, TypeBool},
		{8, TypeUInt8},
		{16, TypeInt16},
		{32, TypeInt32},
		{37, TypeByteBuffer},
		{38, TypeInt32Array},
		{39, TypeNullTerminatedString},
		{41, TypeFixedPointTwoPlaces},
		{42, TypeFixedPointThreePlaces},
	}
	for _, c := range cases {
		got, err := FromCode(c.code)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}

	_, err := FromCode(99)
	assert.ErrorIs(t, err, ErrUnknownTypeCode)
}

func TestRoundTripFixedWidth(t *testing.T) {
	cases := []struct {
		name string
		typ  Type
		val  interface{}
	}{
		{"bool true", TypeBool, true},
		{"bool false", TypeBool, false},
		{"uint8", TypeUInt8, uint8(200)},
		{"int16 positive", TypeInt16, int16(1234)},
		{"int16 negative", TypeInt16, int16(-1234)},
		{"int32 positive", TypeInt32, int32(70000)},
		{"int32 negative", TypeInt32, int32(-70000)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			width, err := Width(c.typ, c.val)
			require.NoError(t, err)

			buf := make([]byte, width)
			n, err := Serialize(c.typ, c.val, buf, 0)
			require.NoError(t, err)
			assert.Equal(t, width, n)

			got, consumed, err := Deserialize(c.typ, buf, 0, ASCII)
			require.NoError(t, err)
			assert.Equal(t, width, consumed)
			assert.Equal(t, c.val, got)
		})
	}
}

func TestFixedPointTwoPlaces(t *testing.T) {
	buf := make([]byte, 4)
	n, err := Serialize(TypeFixedPointTwoPlaces, 12.34, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0x00, 0x00, 0x04, 0xD2}, buf) // 1234

	got, consumed, err := Deserialize(TypeFixedPointTwoPlaces, buf, 0, ASCII)
	require.NoError(t, err)
	assert.Equal(t, 4, consumed)
	assert.InDelta(t, 12.34, got.(float64), 0.001)
}

func TestFixedPointThreePlacesTruncatesTowardZero(t *testing.T) {
	buf := make([]byte, 4)
	// 1.2345 * 1000 = 1234.5, truncation toward zero yields 1234, not 1235.
	_, err := Serialize(TypeFixedPointThreePlaces, 1.2345, buf, 0)
	require.NoError(t, err)
	got, _, err := Deserialize(TypeFixedPointThreePlaces, buf, 0, ASCII)
	require.NoError(t, err)
	assert.InDelta(t, 1.234, got.(float64), 0.0001)

	buf2 := make([]byte, 4)
	_, err = Serialize(TypeFixedPointThreePlaces, -1.2345, buf2, 0)
	require.NoError(t, err)
	got2, _, err := Deserialize(TypeFixedPointThreePlaces, buf2, 0, ASCII)
	require.NoError(t, err)
	assert.InDelta(t, -1.234, got2.(float64), 0.0001)
}

func TestByteBufferRoundTrip(t *testing.T) {
	val := []byte{1, 2, 3, 4, 5}
	width, err := Width(TypeByteBuffer, val)
	require.NoError(t, err)
	assert.Equal(t, 6, width)

	buf := make([]byte, width)
	_, err = Serialize(TypeByteBuffer, val, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(5), buf[0])

	got, consumed, err := Deserialize(TypeByteBuffer, buf, 0, ASCII)
	require.NoError(t, err)
	assert.Equal(t, width, consumed)
	assert.Equal(t, val, got)
}

func TestByteBufferTooLong(t *testing.T) {
	val := make([]byte, 256)
	_, err := Width(TypeByteBuffer, val)
	assert.ErrorIs(t, err, ErrValueOutOfRange)
}

func TestInt32ArrayRoundTrip(t *testing.T) {
	// count=3 followed by three big-endian Int32s
	val := []int32{1, -2, 3}
	width, err := Width(TypeInt32Array, val)
	require.NoError(t, err)

	buf := make([]byte, width)
	_, err = Serialize(TypeInt32Array, val, buf, 0)
	require.NoError(t, err)

	want := []byte{
		0x03,
		0x00, 0x00, 0x00, 0x01,
		0xFF, 0xFF, 0xFF, 0xFE,
		0x00, 0x00, 0x00, 0x03,
	}
	assert.Equal(t, want, buf)

	got, consumed, err := Deserialize(TypeInt32Array, buf, 0, ASCII)
	require.NoError(t, err)
	assert.Equal(t, width, consumed)
	assert.Equal(t, val, got)
}

func TestNullTerminatedStringRoundTrip(t *testing.T) {
	val := "hello"
	width, err := Width(TypeNullTerminatedString, val)
	require.NoError(t, err)
	assert.Equal(t, 6, width)

	buf := make([]byte, width)
	_, err = Serialize(TypeNullTerminatedString, val, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), buf[len(buf)-1])

	got, consumed, err := Deserialize(TypeNullTerminatedString, buf, 0, ASCII)
	require.NoError(t, err)
	assert.Equal(t, width, consumed)
	assert.Equal(t, val, got)
}

func TestNullTerminatedStringTruncated(t *testing.T) {
	buf := []byte("no terminator here")
	_, _, err := Deserialize(TypeNullTerminatedString, buf, 0, ASCII)
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

func TestNullTerminatedStringInvalidASCII(t *testing.T) {
	buf := []byte{0xFF, 0x00}
	_, _, err := Deserialize(TypeNullTerminatedString, buf, 0, ASCII)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestInsufficientSpace(t *testing.T) {
	buf := make([]byte, 2)
	_, err := Serialize(TypeInt32, int32(1), buf, 0)
	assert.ErrorIs(t, err, ErrInsufficientSpace)
}

func TestTruncatedInt32(t *testing.T) {
	buf := []byte{0x00, 0x01}
	_, _, err := Deserialize(TypeInt32, buf, 0, ASCII)
	assert.ErrorIs(t, err, ErrTruncatedInput)
}
