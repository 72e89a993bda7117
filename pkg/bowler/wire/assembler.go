package wire

import (
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/codec"
)

// Assembler builds a byte buffer from a sequence of absolute-offset writes.
// It is the write-side counterpart to ByteRange: callers append instructions
// in any order (though in practice sequentially) and the assembler grows its
// backing buffer and tracks the high-water mark of bytes actually written.
//
// Grounded on the instruction-assembly pattern in internal/ron/message.go,
// where a message body is built up field by field against a fixed header
// size before the two pieces are concatenated.
type Assembler struct {
	offset int
	buf    []byte
	length int // high-water mark, relative to offset 0 of this assembler's own buffer
}

// NewAssembler creates an assembler whose buffer starts at absolute
// position offset. Writes take absolute positions, so a body assembler
// created at the header's body offset is written at positions from that
// offset on and can later be appended to a header assembler with no
// further coordinate translation.
func NewAssembler(offset int) *Assembler {
	return &Assembler{offset: offset, buf: make([]byte, 0, 16)}
}

// Offset returns the assembler's configured base offset.
func (a *Assembler) Offset() int {
	return a.offset
}

// Length returns the number of bytes written so far (relative size, not
// counting the base offset).
func (a *Assembler) Length() int {
	return a.length
}

func (a *Assembler) grow(relEnd int) {
	if relEnd > len(a.buf) {
		grown := make([]byte, relEnd)
		copy(grown, a.buf)
		a.buf = grown
	}
	if relEnd > a.length {
		a.length = relEnd
	}
}

// WriteByte writes a single byte at absolute position pos.
func (a *Assembler) WriteByte(pos int, b byte) {
	rel := pos - a.offset
	a.grow(rel + 1)
	a.buf[rel] = b
}

// WriteBytes writes raw bytes starting at absolute position pos.
func (a *Assembler) WriteBytes(pos int, data []byte) {
	rel := pos - a.offset
	a.grow(rel + len(data))
	copy(a.buf[rel:], data)
}

// WriteTyped encodes v as t at absolute position pos and returns the number
// of bytes written.
func (a *Assembler) WriteTyped(pos int, t codec.Type, v interface{}) (int, error) {
	width, err := codec.Width(t, v)
	if err != nil {
		return 0, err
	}
	rel := pos - a.offset
	a.grow(rel + width)
	return codec.Serialize(t, v, a.buf, rel)
}

// Append concatenates other's written bytes into a at other's own absolute
// offset, raising a's length high-water mark to cover it. This lets a
// header assembler absorb an already-positioned body assembler with no
// shifting logic: both assemblers already speak in the same absolute
// coordinate space.
func (a *Assembler) Append(other *Assembler) {
	a.WriteBytes(other.offset, other.buf[:other.length])
}

// Assemble returns the final contiguous buffer, offset bytes of leading
// padding included, ready to be framed or written to a transport.
func (a *Assembler) Assemble() []byte {
	total := a.offset + a.length
	out := make([]byte, total)
	copy(out[a.offset:], a.buf[:a.length])
	return out
}
