package wire

import "errors"

// Sentinel errors for components C2-C4 (byte-range helpers, packet codec,
// framing parser).
var (
	ErrOutOfRange   = errors.New("wire: byte range out of bounds")
	ErrNullNotFound = errors.New("wire: no null terminator in range")
	ErrNotDivisible = errors.New("wire: range length not divisible by partition size")

	ErrBadVersion         = errors.New("wire: unsupported protocol version")
	ErrBadChecksum        = errors.New("wire: checksum mismatch")
	ErrUnknownNamespaceID = errors.New("wire: unknown namespace id")
	ErrUnknownNamespace   = errors.New("wire: unknown namespace name")
	ErrTruncatedPacket    = errors.New("wire: truncated packet")
	ErrBodyTooLarge       = errors.New("wire: body exceeds 251 bytes")

	ErrFraming = errors.New("wire: malformed packet header, resynchronizing")
)
