package wire

import (
	"fmt"
)

// ProtocolVersion is the only version byte this codec accepts.
const ProtocolVersion byte = 3

const (
	headerFixedSize = 11 // bytes 0..=10, before the RPC name
	rpcNameSize     = 4  // bytes 11..=14
	bodyOffset      = headerFixedSize + rpcNameSize // 15
)

// BodyOffset is the absolute position a body Assembler must be constructed
// with (wire.NewAssembler(wire.BodyOffset)) so AssemblePacket can append it
// directly after the fixed header and RPC name.
const BodyOffset = bodyOffset

// Method is a Bowler RPC method byte.
type Method uint8

const (
	MethodStatus   Method = 0x00
	MethodGet      Method = 0x10
	MethodPost     Method = 0x20
	MethodCritical Method = 0x30
	MethodAsync    Method = 0x40
)

func (m Method) String() string {
	switch m {
	case MethodStatus:
		return "status"
	case MethodGet:
		return "get"
	case MethodPost:
		return "post"
	case MethodCritical:
		return "critical"
	case MethodAsync:
		return "async"
	}
	return fmt.Sprintf("Method(0x%02X)", uint8(m))
}

// MAC is a six-byte Bowler device address.
type MAC [6]byte

// Broadcast is the all-0xFF MAC used when no specific device address is
// known.
var Broadcast = MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// ParseMAC accepts a colon-separated upper-hex string ("DE:AD:BE:EF:00:01")
// or the literal "broadcast".
func ParseMAC(s string) (MAC, error) {
	if s == "broadcast" {
		return Broadcast, nil
	}
	var m MAC
	if len(s) != 17 {
		return m, fmt.Errorf("wire: malformed MAC %q", s)
	}
	for i := 0; i < 6; i++ {
		var b byte
		if _, err := fmt.Sscanf(s[i*3:i*3+2], "%02X", &b); err != nil {
			return m, fmt.Errorf("wire: malformed MAC %q: %w", s, err)
		}
		m[i] = b
	}
	return m, nil
}

func (m MAC) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

// NamespaceResolver looks up the correspondence between a namespace's wire
// id and its dotted registry name. A narrow interface rather than a
// concrete type: wire must not import registry (registry instead depends
// on wire's Method and Assembler types), so registry.IDTable satisfies this interface
// without either package importing the other's concrete types.
type NamespaceResolver interface {
	ResolveID(id byte) (name string, ok bool)
	ResolveName(name string) (id byte, ok bool)
}

// Packet is the parsed form of a Bowler frame.
type Packet struct {
	Version     byte
	MAC         MAC
	Method      Method
	NamespaceID byte // low 7 bits of the wire byte
	Direction   byte // 0 or 1, the wire byte's high bit
	Namespace   string
	RPC         string
	Body        []byte
}

// ParsePacket decodes buf (exactly one complete frame, as already isolated
// by a Framer) into a Packet, resolving the namespace id to a name via ids.
func ParsePacket(buf []byte, ids NamespaceResolver) (Packet, error) {
	if len(buf) < bodyOffset {
		return Packet{}, ErrTruncatedPacket
	}

	version := buf[0]
	if version != ProtocolVersion {
		return Packet{}, ErrBadVersion
	}

	sum := 0
	for _, b := range buf[0:10] {
		sum += int(b)
	}
	if byte(sum&0xFF) != buf[10] {
		return Packet{}, ErrBadChecksum
	}

	var mac MAC
	copy(mac[:], buf[1:7])

	nsByte := buf[8]
	nsID := nsByte & 0x7F
	direction := (nsByte >> 7) & 0x01

	name, ok := ids.ResolveID(nsID)
	if !ok {
		return Packet{}, ErrUnknownNamespaceID
	}

	size := int(buf[9])
	if size < rpcNameSize {
		return Packet{}, ErrTruncatedPacket
	}
	bodyLen := size - rpcNameSize
	if len(buf) < bodyOffset+bodyLen {
		return Packet{}, ErrTruncatedPacket
	}

	rpcRaw := buf[headerFixedSize:bodyOffset]
	end := len(rpcRaw)
	for end > 0 && rpcRaw[end-1] == 0x00 {
		end--
	}
	rpcName := string(rpcRaw[:end])

	var body []byte
	if bodyLen > 0 {
		body = make([]byte, bodyLen)
		copy(body, buf[bodyOffset:bodyOffset+bodyLen])
	}

	return Packet{
		Version:     version,
		MAC:         mac,
		Method:      Method(buf[7]),
		NamespaceID: nsID,
		Direction:   direction,
		Namespace:   name,
		RPC:         rpcName,
		Body:        body,
	}, nil
}

// AssemblePacketInput names the fields needed to build a frame; it omits
// the checksum and length, which are computed during assembly.
type AssemblePacketInput struct {
	MAC       MAC
	Method    Method
	Namespace string
	Direction byte
	RPC       string
}

// AssemblePacket builds a complete frame: a fixed-size header assembler at
// offset 0 plus the caller-supplied body assembler (expected to have been
// built at offset 15, i.e. via NewAssembler(15)), resolving the namespace
// name to a wire id via ids.
func AssemblePacket(in AssemblePacketInput, body *Assembler, ids NamespaceResolver) ([]byte, error) {
	nsID, ok := ids.ResolveName(in.Namespace)
	if !ok {
		return nil, ErrUnknownNamespace
	}
	if len(in.RPC) > rpcNameSize {
		return nil, fmt.Errorf("wire: RPC name %q exceeds %d bytes", in.RPC, rpcNameSize)
	}

	header := NewAssembler(0)
	header.WriteByte(0, ProtocolVersion)
	header.WriteBytes(1, in.MAC[:])
	header.WriteByte(7, byte(in.Method))
	header.WriteByte(8, (nsID&0x7F)|((in.Direction&0x01)<<7))

	bodyLen := 0
	if body != nil {
		bodyLen = body.Length()
	}
	if bodyLen > 255-rpcNameSize {
		return nil, ErrBodyTooLarge
	}
	size := rpcNameSize + bodyLen
	header.WriteByte(9, byte(size))

	rpcBytes := make([]byte, rpcNameSize)
	copy(rpcBytes, in.RPC)
	header.WriteBytes(headerFixedSize, rpcBytes)

	sum := 0
	for i := 0; i < 10; i++ {
		b, err := header.byteAt(i)
		if err != nil {
			return nil, err
		}
		sum += int(b)
	}
	header.WriteByte(10, byte(sum&0xFF))

	if body != nil {
		header.Append(body)
	}

	return header.Assemble(), nil
}

// byteAt reads back a byte already written to the assembler at absolute
// position pos, used internally while computing the checksum over bytes
// already placed in the header.
func (a *Assembler) byteAt(pos int) (byte, error) {
	rel := pos - a.offset
	if rel < 0 || rel >= len(a.buf) {
		return 0, ErrOutOfRange
	}
	return a.buf[rel], nil
}
