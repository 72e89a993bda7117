// Package wire implements components C2-C4 of the Bowler protocol core:
// byte-range helpers over a buffer, the fixed-header packet codec, and the
// stream framing parser. It is grounded on the byte-cursor idiom used
// throughout internal/ron/server.go and internal/qmp/qmp.go, generalized
// from their single gob/json-framed message to Bowler's own length-
// prefixed header.
package wire

import (
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/codec"
)

// ByteRange presents a slice of an owning buffer as [Start, End] inclusive.
// It is a pure, non-destructive view: every method either returns a plain
// Go value or a new ByteRange; none of them mutate Buf.
type ByteRange struct {
	Buf   []byte
	Start int
	End   int // inclusive
}

// NewByteRange builds a range over buf[start:end+1]. Panics are avoided in
// favor of ErrOutOfRange so callers parsing untrusted wire data never crash.
func NewByteRange(buf []byte, start, end int) (ByteRange, error) {
	if start < 0 || end < start-1 || end >= len(buf) {
		return ByteRange{}, ErrOutOfRange
	}
	return ByteRange{Buf: buf, Start: start, End: end}, nil
}

// Len returns the number of bytes covered by the range.
func (r ByteRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Slice returns the raw bytes of the range without copying.
func (r ByteRange) Slice() []byte {
	if r.Len() == 0 {
		return nil
	}
	return r.Buf[r.Start : r.End+1]
}

// Byte returns the i-th byte of the range (0-indexed from Start).
func (r ByteRange) Byte(i int) (byte, error) {
	if i < 0 || i >= r.Len() {
		return 0, ErrOutOfRange
	}
	return r.Buf[r.Start+i], nil
}

// Bytes returns the sub-range [a, b] (absolute offsets into Buf, inclusive).
func (r ByteRange) Bytes(a, b int) (ByteRange, error) {
	if a < r.Start || b > r.End || b < a-1 {
		return ByteRange{}, ErrOutOfRange
	}
	return ByteRange{Buf: r.Buf, Start: a, End: b}, nil
}

// ToEnd extends End to cover the rest of the owning buffer.
func (r ByteRange) ToEnd() ByteRange {
	return ByteRange{Buf: r.Buf, Start: r.Start, End: len(r.Buf) - 1}
}

// ToNull returns the sub-range up to the first 0x00 byte found, plus the
// number of bytes consumed (including the terminator itself, whether or
// not it is included in the returned range). includeNull=false means the
// returned range excludes the terminating byte -- includeNull is treated
// literally here rather than inferring intent from any caller convention.
func (r ByteRange) ToNull(includeNull bool) (ByteRange, int, error) {
	data := r.Slice()
	idx := -1
	for i, b := range data {
		if b == 0x00 {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ByteRange{}, 0, ErrNullNotFound
	}
	consumed := idx + 1

	if includeNull {
		rr, err := NewByteRange(r.Buf, r.Start, r.Start+idx)
		return rr, consumed, err
	}
	if idx == 0 {
		return ByteRange{Buf: r.Buf, Start: r.Start, End: r.Start - 1}, consumed, nil
	}
	rr, err := NewByteRange(r.Buf, r.Start, r.Start+idx-1)
	return rr, consumed, err
}

// MaskedWith returns a new range, backed by a fresh buffer, with every byte
// ANDed against m.
func (r ByteRange) MaskedWith(m byte) ByteRange {
	data := r.Slice()
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b & m
	}
	if len(out) == 0 {
		return ByteRange{Buf: out, Start: 0, End: -1}
	}
	return ByteRange{Buf: out, Start: 0, End: len(out) - 1}
}

// Format hands the raw bytes of the range to f, useful for hex-dump style
// callbacks without forcing a copy at the call site.
func (r ByteRange) Format(f func([]byte)) {
	f(r.Slice())
}

// MapEvery partitions the range into equal n-byte sub-ranges (left to
// right) and applies f to each. Len() must be evenly divisible by n.
func (r ByteRange) MapEvery(n int, f func(ByteRange) error) error {
	if n <= 0 || r.Len()%n != 0 {
		return ErrNotDivisible
	}
	for off := r.Start; off <= r.End; off += n {
		sub, err := NewByteRange(r.Buf, off, off+n-1)
		if err != nil {
			return err
		}
		if err := f(sub); err != nil {
			return err
		}
	}
	return nil
}

// ToInt auto-selects UInt8/Int16/Int32 based on the range's width (1, 2, or
// 4 bytes) and returns the value widened to int32.
func (r ByteRange) ToInt() (int32, int, error) {
	switch r.Len() {
	case 1:
		v, n, err := codec.Deserialize(codec.TypeUInt8, r.Slice(), 0, codec.ASCII)
		if err != nil {
			return 0, 0, err
		}
		return int32(v.(uint8)), n, nil
	case 2:
		v, n, err := codec.Deserialize(codec.TypeInt16, r.Slice(), 0, codec.ASCII)
		if err != nil {
			return 0, 0, err
		}
		return int32(v.(int16)), n, nil
	case 4:
		v, n, err := codec.Deserialize(codec.TypeInt32, r.Slice(), 0, codec.ASCII)
		if err != nil {
			return 0, 0, err
		}
		return v.(int32), n, nil
	}
	return 0, 0, codec.ErrWrongGoType
}

// ToString decodes the range as a null-terminated string if a 0x00 is
// present, or the whole range otherwise.
func (r ByteRange) ToString(enc codec.Encoding) (string, int, error) {
	if sub, consumed, err := r.ToNull(false); err == nil {
		s, _, derr := codec.Deserialize(codec.TypeNullTerminatedString, append(sub.Slice(), 0x00), 0, enc)
		if derr != nil {
			return "", 0, derr
		}
		return s.(string), consumed, nil
	}
	s, err := r.ToRawString(enc)
	if err != nil {
		return "", 0, err
	}
	return s, r.Len(), nil
}

// ToRawString decodes every byte of the range as a string with no
// terminator handling.
func (r ByteRange) ToRawString(enc codec.Encoding) (string, error) {
	data := r.Slice()
	if enc == codec.ASCII {
		for _, b := range data {
			if b > 0x7F {
				return "", codec.ErrInvalidEncoding
			}
		}
	}
	return string(data), nil
}

// ToBuffer returns a copy of the range's raw bytes.
func (r ByteRange) ToBuffer() []byte {
	data := r.Slice()
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// ToUint8Array is an alias of ToBuffer: ByteBuffer and UInt8Array share the
// same wire shape, so at the ByteRange level they are identical.
func (r ByteRange) ToUint8Array() []uint8 {
	return r.ToBuffer()
}

// ToInt32Array decodes the range as a 1-byte count followed by that many
// big-endian Int32s.
func (r ByteRange) ToInt32Array() ([]int32, int, error) {
	v, n, err := codec.Deserialize(codec.TypeInt32Array, r.Slice(), 0, codec.ASCII)
	if err != nil {
		return nil, 0, err
	}
	return v.([]int32), n, nil
}

// ToBool treats the first byte of the range as a Bowler Bool.
func (r ByteRange) ToBool() (bool, error) {
	b, err := r.Byte(0)
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// LookupIn uses the range's first byte as a key into table.
func (r ByteRange) LookupIn(table map[byte]string) (string, bool) {
	b, err := r.Byte(0)
	if err != nil {
		return "", false
	}
	v, ok := table[b]
	return v, ok
}
