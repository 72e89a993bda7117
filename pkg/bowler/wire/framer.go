package wire

// Framer splits an arbitrary sequence of raw byte chunks into complete
// packet byte-slices using a NeedHeader/NeedBody state machine. It keeps a
// single contiguous internal buffer rather than separate header/body
// staging areas, so fragmentation, coalescing, and leftover tail bytes are
// all handled by the same loop in Feed.
//
// Grounded on internal/ron's use of a rolling bytes.Buffer ahead of its
// gob decoder (internal/ron/serial.go): bytes arrive in arbitrary chunks
// off a transport and must be reassembled before a full message exists.
// Bowler has no self-describing codec like gob, so the reassembly here
// is driven by the explicit length byte at header offset 9 instead.
type Framer struct {
	buf           []byte
	maxPacketSize int
}

// defaultMaxPacketSize bounds how large a single frame may be taken to be
// before NeedHeader treats the size byte as implausible and resynchronizes.
// 255 (max size byte) + bodyOffset headroom.
const defaultMaxPacketSize = 270

// NewFramer creates a Framer. maxPacketSize <= 0 uses defaultMaxPacketSize.
func NewFramer(maxPacketSize int) *Framer {
	if maxPacketSize <= 0 {
		maxPacketSize = defaultMaxPacketSize
	}
	return &Framer{maxPacketSize: maxPacketSize}
}

// Feed appends chunk to the internal buffer and extracts every complete
// packet now available. It never drops bytes belonging to a well-formed
// stream; on a malformed header it drops exactly one byte and continues.
// If any byte was dropped this way, Feed returns ErrFraming once (however
// many bytes were dropped) alongside the packets it did extract, so
// callers can log resyncs.
func (f *Framer) Feed(chunk []byte) ([][]byte, error) {
	f.buf = append(f.buf, chunk...)

	var out [][]byte
	var firstErr error

	for {
		if len(f.buf) < headerFixedSize-1 {
			// fewer than 10 bytes: size byte at offset 9 not yet available
			break
		}

		size := int(f.buf[9])
		total := bodyOffset + (size - rpcNameSize)
		if size < rpcNameSize || total > f.maxPacketSize {
			if firstErr == nil {
				firstErr = ErrFraming
			}
			f.buf = f.buf[1:]
			continue
		}

		if len(f.buf) < total {
			break // NeedBody: wait for more bytes
		}

		pkt := make([]byte, total)
		copy(pkt, f.buf[:total])
		out = append(out, pkt)
		f.buf = f.buf[total:]
	}

	return out, firstErr
}

// Pending returns the number of bytes currently buffered but not yet part
// of a completed frame.
func (f *Framer) Pending() int {
	return len(f.buf)
}
