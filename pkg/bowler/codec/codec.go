// Package codec implements Bowler's typed payload value codec (component
// C1 of the protocol core): the ten TypedValue kinds, their wire widths,
// and their serialization to/from a big-endian byte buffer.
//
// internal/ron and internal/qmp lean on encoding/gob and encoding/json for
// their own wire protocols, and go-xdr is RFC 4506 XDR, a fixed
// padding/alignment scheme Bowler's 1-byte length prefixes do not follow.
// encoding/binary is the grounded choice: internal/bridge and internal/vnc
// both decode raw wire structures with it whenever gob/json aren't in play.
package codec

import (
	"math"
)

// Type is a Bowler wire type code.
type Type uint8

const (
	TypeBool                  Type = 43
	TypeUInt8                 Type = 8
	TypeInt16                 Type = 16
	TypeInt32                 Type = 32
	TypeByteBuffer            Type = 37
	TypeInt32Array            Type = 38
	TypeNullTerminatedString  Type = 39
	TypeFixedPointTwoPlaces   Type = 41
	TypeFixedPointThreePlaces Type = 42

	// TypeUInt8Array shares ByteBuffer's wire shape (1-byte length prefix
	// followed by raw bytes) and its code. It exists as a name so callers
	// can express intent; FromCode(37) always returns TypeByteBuffer.
	TypeUInt8Array Type = TypeByteBuffer
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "Bool"
	case TypeUInt8:
		return "UInt8"
	case TypeInt16:
		return "Int16"
	case TypeInt32:
		return "Int32"
	case TypeByteBuffer:
		return "ByteBuffer"
	case TypeInt32Array:
		return "Int32Array"
	case TypeNullTerminatedString:
		return "NullTerminatedString"
	case TypeFixedPointTwoPlaces:
		return "FixedPointTwoPlaces"
	case TypeFixedPointThreePlaces:
		return "FixedPointThreePlaces"
	}
	return "Unknown"
}

// Encoding selects how NullTerminatedString bytes are interpreted. ASCII is
// the protocol default.
type Encoding int

const (
	ASCII Encoding = iota
	UTF8
)

// FromCode maps a wire type code to a Type. Total over the declared code
// set; anything else is ErrUnknownTypeCode.
func FromCode(code byte) (Type, error) {
	switch Type(code) {
	case TypeBool, TypeUInt8, TypeInt16, TypeInt32, TypeByteBuffer,
		TypeInt32Array, TypeNullTerminatedString,
		TypeFixedPointTwoPlaces, TypeFixedPointThreePlaces:
		return Type(code), nil
	}
	return 0, ErrUnknownTypeCode
}

// Width returns the number of bytes T occupies on the wire. For
// fixed-width types v may be nil; for length-dependent types v must be the
// value that will be serialized.
func Width(t Type, v interface{}) (int, error) {
	switch t {
	case TypeBool, TypeUInt8:
		return 1, nil
	case TypeInt16:
		return 2, nil
	case TypeInt32, TypeFixedPointTwoPlaces, TypeFixedPointThreePlaces:
		return 4, nil
	case TypeByteBuffer:
		b, ok := v.([]byte)
		if !ok {
			return 0, ErrWrongGoType
		}
		if len(b) > 255 {
			return 0, ErrValueOutOfRange
		}
		return 1 + len(b), nil
	case TypeInt32Array:
		a, ok := v.([]int32)
		if !ok {
			return 0, ErrWrongGoType
		}
		if len(a) > 255 {
			return 0, ErrValueOutOfRange
		}
		return 1 + 4*len(a), nil
	case TypeNullTerminatedString:
		s, ok := v.(string)
		if !ok {
			return 0, ErrWrongGoType
		}
		return len(s) + 1, nil
	}
	return 0, ErrUnknownTypeCode
}

// Serialize writes exactly Width(t, v) bytes at offset in buf, big-endian
// for multi-byte integers, and returns the number of bytes written.
func Serialize(t Type, v interface{}, buf []byte, offset int) (int, error) {
	width, err := Width(t, v)
	if err != nil {
		return 0, err
	}
	if offset < 0 || offset+width > len(buf) {
		return 0, ErrInsufficientSpace
	}

	switch t {
	case TypeBool:
		b, ok := v.(bool)
		if !ok {
			return 0, ErrWrongGoType
		}
		if b {
			buf[offset] = 1
		} else {
			buf[offset] = 0
		}
	case TypeUInt8:
		b, ok := v.(uint8)
		if !ok {
			return 0, ErrWrongGoType
		}
		buf[offset] = b
	case TypeInt16:
		n, ok := v.(int16)
		if !ok {
			return 0, ErrWrongGoType
		}
		putInt16(buf[offset:], n)
	case TypeInt32:
		n, ok := v.(int32)
		if !ok {
			return 0, ErrWrongGoType
		}
		putInt32(buf[offset:], n)
	case TypeFixedPointTwoPlaces:
		f, ok := v.(float64)
		if !ok {
			return 0, ErrWrongGoType
		}
		scaled, err := scaleFixed(f, 100)
		if err != nil {
			return 0, err
		}
		putInt32(buf[offset:], scaled)
	case TypeFixedPointThreePlaces:
		f, ok := v.(float64)
		if !ok {
			return 0, ErrWrongGoType
		}
		scaled, err := scaleFixed(f, 1000)
		if err != nil {
			return 0, err
		}
		putInt32(buf[offset:], scaled)
	case TypeByteBuffer:
		b := v.([]byte)
		buf[offset] = byte(len(b))
		copy(buf[offset+1:], b)
	case TypeInt32Array:
		a := v.([]int32)
		buf[offset] = byte(len(a))
		pos := offset + 1
		for _, n := range a {
			putInt32(buf[pos:], n)
			pos += 4
		}
	case TypeNullTerminatedString:
		s := v.(string)
		copy(buf[offset:], s)
		buf[offset+len(s)] = 0x00
	default:
		return 0, ErrUnknownTypeCode
	}

	return width, nil
}

// Deserialize reads a value of type t from buf at offset, returning the
// value and the number of bytes consumed (including any length/terminator
// byte for variable-width types).
func Deserialize(t Type, buf []byte, offset int, enc Encoding) (interface{}, int, error) {
	if offset < 0 || offset > len(buf) {
		return nil, 0, ErrTruncatedInput
	}
	remain := buf[offset:]

	switch t {
	case TypeBool:
		if len(remain) < 1 {
			return nil, 0, ErrTruncatedInput
		}
		return remain[0] != 0, 1, nil
	case TypeUInt8:
		if len(remain) < 1 {
			return nil, 0, ErrTruncatedInput
		}
		return remain[0], 1, nil
	case TypeInt16:
		if len(remain) < 2 {
			return nil, 0, ErrTruncatedInput
		}
		return getInt16(remain), 2, nil
	case TypeInt32:
		if len(remain) < 4 {
			return nil, 0, ErrTruncatedInput
		}
		return getInt32(remain), 4, nil
	case TypeFixedPointTwoPlaces:
		if len(remain) < 4 {
			return nil, 0, ErrTruncatedInput
		}
		return float64(getInt32(remain)) / 100.0, 4, nil
	case TypeFixedPointThreePlaces:
		if len(remain) < 4 {
			return nil, 0, ErrTruncatedInput
		}
		return float64(getInt32(remain)) / 1000.0, 4, nil
	case TypeByteBuffer:
		if len(remain) < 1 {
			return nil, 0, ErrTruncatedInput
		}
		n := int(remain[0])
		if len(remain) < 1+n {
			return nil, 0, ErrTruncatedInput
		}
		out := make([]byte, n)
		copy(out, remain[1:1+n])
		return out, 1 + n, nil
	case TypeInt32Array:
		if len(remain) < 1 {
			return nil, 0, ErrTruncatedInput
		}
		count := int(remain[0])
		need := 1 + 4*count
		if len(remain) < need {
			return nil, 0, ErrTruncatedInput
		}
		out := make([]int32, count)
		pos := 1
		for i := 0; i < count; i++ {
			out[i] = getInt32(remain[pos:])
			pos += 4
		}
		return out, need, nil
	case TypeNullTerminatedString:
		idx := -1
		for i, b := range remain {
			if b == 0x00 {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, 0, ErrTruncatedInput
		}
		raw := remain[:idx]
		if enc == ASCII {
			for _, b := range raw {
				if b > 0x7F {
					return nil, 0, ErrInvalidEncoding
				}
			}
		}
		return string(raw), idx + 1, nil
	}

	return nil, 0, ErrUnknownTypeCode
}

func scaleFixed(f float64, factor float64) (int32, error) {
	scaled := math.Trunc(f * factor)
	if scaled > math.MaxInt32 || scaled < math.MinInt32 {
		return 0, ErrValueOutOfRange
	}
	return int32(scaled), nil
}

func putInt16(buf []byte, n int16) {
	buf[0] = byte(uint16(n) >> 8)
	buf[1] = byte(uint16(n))
}

func getInt16(buf []byte) int16 {
	return int16(uint16(buf[0])<<8 | uint16(buf[1]))
}

func putInt32(buf []byte, n int32) {
	u := uint32(n)
	buf[0] = byte(u >> 24)
	buf[1] = byte(u >> 16)
	buf[2] = byte(u >> 8)
	buf[3] = byte(u)
}

func getInt32(buf []byte) int32 {
	return int32(uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3]))
}
